package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SaveAnalysis upserts the analysis for a post and marks the post analyzed.
func (db *DB) SaveAnalysis(a Analysis) error {
	kwJSON, err := encodeKeywords(a.Keywords)
	if err != nil {
		return err
	}
	model, version := a.Model, a.Version
	if model == "" {
		model = AnalysisModel
	}
	if version == "" {
		version = AnalysisVersion
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin analysis: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO post_analysis
		(post_id, sentiment_score, sentiment_label, confidence_score, keywords,
		 bullish_bearish, risk_level, analysis_model, analysis_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(post_id) DO UPDATE SET
			sentiment_score = excluded.sentiment_score,
			sentiment_label = excluded.sentiment_label,
			confidence_score = excluded.confidence_score,
			keywords = excluded.keywords,
			bullish_bearish = excluded.bullish_bearish,
			risk_level = excluded.risk_level,
			analysis_model = excluded.analysis_model,
			analysis_version = excluded.analysis_version,
			updated_at = datetime('now')`,
		a.PostID, a.SentimentScore, a.SentimentLabel, a.ConfidenceScore, kwJSON,
		a.Stance, a.RiskLevel, model, version,
	); err != nil {
		return fmt.Errorf("upserting analysis for post %d: %w", a.PostID, err)
	}

	if _, err := tx.Exec("UPDATE stock_posts SET is_analyzed = 1 WHERE id = ?", a.PostID); err != nil {
		return fmt.Errorf("marking post %d analyzed: %w", a.PostID, err)
	}

	return tx.Commit()
}

// GetAnalysis returns the analysis for a post, or nil if none exists.
func (db *DB) GetAnalysis(postID int64) (*Analysis, error) {
	row := db.conn.QueryRow(
		`SELECT post_id, sentiment_score, sentiment_label, confidence_score, keywords,
		bullish_bearish, risk_level, analysis_model, analysis_version, created_at, updated_at
		FROM post_analysis WHERE post_id = ?`, postID,
	)

	var a Analysis
	var kwJSON, model, version sql.NullString
	if err := row.Scan(&a.PostID, &a.SentimentScore, &a.SentimentLabel, &a.ConfidenceScore,
		&kwJSON, &a.Stance, &a.RiskLevel, &model, &version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.Keywords = decodeKeywords(kwJSON)
	a.Model, a.Version = model.String, version.String
	return &a, nil
}

// GetWindowPosts returns analyzed posts whose date lies in [start, end],
// oldest first. Times are compared in their own wall-clock representation.
func (db *DB) GetWindowPosts(stockCode string, start, end time.Time) ([]WindowPost, error) {
	rows, err := db.conn.Query(
		`SELECT p.id, p.date, p.title, a.sentiment_score, a.sentiment_label,
			a.confidence_score, a.bullish_bearish, a.risk_level
		FROM stock_posts p JOIN post_analysis a ON a.post_id = p.id
		WHERE p.stock_code = ? AND p.date IS NOT NULL AND p.date BETWEEN ? AND ?
		ORDER BY p.date ASC, p.id ASC`,
		stockCode, start.Format(DateLayout), end.Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying window posts: %w", err)
	}
	defer rows.Close()

	var out []WindowPost
	for rows.Next() {
		var w WindowPost
		if err := rows.Scan(&w.PostID, &w.Date, &w.Title, &w.SentimentScore, &w.SentimentLabel,
			&w.ConfidenceScore, &w.Stance, &w.RiskLevel); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetDailySummary returns per-day sentiment counts for analyzed posts dated
// on or after since, newest day first.
func (db *DB) GetDailySummary(stockCode string, since time.Time) ([]DaySummary, error) {
	rows, err := db.conn.Query(
		`SELECT substr(p.date, 1, 10) AS day,
			COUNT(*),
			SUM(CASE WHEN a.sentiment_label = 'positive' THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.sentiment_label = 'negative' THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.sentiment_label = 'neutral' THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.bullish_bearish = 'bullish' THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.bullish_bearish = 'bearish' THEN 1 ELSE 0 END),
			AVG(a.sentiment_score),
			AVG(a.confidence_score)
		FROM stock_posts p JOIN post_analysis a ON a.post_id = p.id
		WHERE p.stock_code = ? AND p.date IS NOT NULL AND p.date >= ?
		GROUP BY day
		ORDER BY day DESC`,
		stockCode, since.Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily summary: %w", err)
	}
	defer rows.Close()

	var out []DaySummary
	for rows.Next() {
		var d DaySummary
		if err := rows.Scan(&d.Day, &d.Total, &d.Positive, &d.Negative, &d.Neutral,
			&d.Bullish, &d.Bearish, &d.AvgSentiment, &d.AvgConfidence); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetKeywordCounts returns the topN keywords by number of analyzed posts
// dated on or after since. Ties are broken alphabetically.
func (db *DB) GetKeywordCounts(stockCode string, since time.Time, topN int) ([]KeywordCount, error) {
	rows, err := db.conn.Query(
		`SELECT a.keywords
		FROM stock_posts p JOIN post_analysis a ON a.post_id = p.id
		WHERE p.stock_code = ? AND p.date IS NOT NULL AND p.date >= ?
		AND a.keywords IS NOT NULL AND a.keywords != '[]'`,
		stockCode, since.Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var kwJSON sql.NullString
		if err := rows.Scan(&kwJSON); err != nil {
			return nil, err
		}
		for _, kw := range decodeKeywords(kwJSON) {
			counts[kw]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]KeywordCount, 0, len(counts))
	for kw, n := range counts {
		out = append(out, KeywordCount{Keyword: kw, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("encoding keywords: %w", err)
	}
	return string(data), nil
}

func decodeKeywords(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var kws []string
	if err := json.Unmarshal([]byte(raw.String), &kws); err != nil {
		return nil
	}
	return kws
}
