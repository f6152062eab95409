package database

import (
	"database/sql"
	"fmt"
)

// ExistingKeys returns the identity keys of every stored post for a stock.
// A NULL date is reported as UnknownDate.
func (db *DB) ExistingKeys(stockCode string, withTitle bool) ([]PostKey, error) {
	rows, err := db.conn.Query(
		`SELECT COALESCE(date, ?), author, title FROM stock_posts WHERE stock_code = ?`,
		UnknownDate, stockCode,
	)
	if err != nil {
		return nil, fmt.Errorf("querying existing keys: %w", err)
	}
	defer rows.Close()

	var keys []PostKey
	for rows.Next() {
		var k PostKey
		if err := rows.Scan(&k.Date, &k.Author, &k.Title); err != nil {
			return nil, err
		}
		if !withTitle {
			k.Title = ""
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SavePosts inserts crawled rows in a single transaction, skipping any row
// whose (stock_code, date, author, title) is already stored. Returns the
// number of rows inserted.
func (db *DB) SavePosts(stockCode string, posts []NewPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, p := range posts {
		var exists int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM stock_posts
			WHERE stock_code = ? AND date IS ? AND author = ? AND title = ?`,
			stockCode, p.Date, p.Author, p.Title,
		).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("checking duplicate: %w", err)
		}
		if exists > 0 {
			continue
		}

		if _, err := tx.Exec(
			`INSERT INTO stock_posts (stock_code, date, title, author, views, likes, dislikes, link)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			stockCode, p.Date, p.Title, p.Author, p.Views, p.Likes, p.Dislikes, p.Link,
		); err != nil {
			return 0, fmt.Errorf("inserting post: %w", err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	return saved, nil
}

// CountPosts returns the number of stored posts for a stock.
func (db *DB) CountPosts(stockCode string) (int, error) {
	var n int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM stock_posts WHERE stock_code = ?", stockCode,
	).Scan(&n)
	return n, err
}

// MarkEmptyPostsAnalyzed flags posts without a link or title as analyzed so
// the analysis pass never picks them up. Returns the number of posts updated.
func (db *DB) MarkEmptyPostsAnalyzed(stockCode string) (int64, error) {
	result, err := db.conn.Exec(
		`UPDATE stock_posts SET is_analyzed = 1
		WHERE stock_code = ? AND is_analyzed = 0
		AND (link IS NULL OR link = '' OR title IS NULL OR TRIM(title) = '')`,
		stockCode,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetUnanalyzedPosts returns posts still waiting for analysis, newest first.
func (db *DB) GetUnanalyzedPosts(stockCode string, limit int) ([]Post, error) {
	rows, err := db.conn.Query(
		`SELECT id, stock_code, date, title, author, views, likes, dislikes, link, content, is_analyzed, created_at
		FROM stock_posts
		WHERE stock_code = ? AND is_analyzed = 0
		AND link IS NOT NULL AND link != '' AND title IS NOT NULL AND TRIM(title) != ''
		ORDER BY date DESC, id DESC
		LIMIT ?`, stockCode, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// UpdatePostContent stores an extracted post body.
func (db *DB) UpdatePostContent(postID int64, content string) error {
	_, err := db.conn.Exec(
		"UPDATE stock_posts SET content = ? WHERE id = ?", content, postID,
	)
	return err
}

// GetPostByID returns a single post by ID.
func (db *DB) GetPostByID(postID int64) (*Post, error) {
	rows, err := db.conn.Query(
		`SELECT id, stock_code, date, title, author, views, likes, dislikes, link, content, is_analyzed, created_at
		FROM stock_posts WHERE id = ?`, postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts, err := scanPosts(rows)
	if err != nil || len(posts) == 0 {
		return nil, err
	}
	return &posts[0], nil
}

// GetRecentPosts returns the newest posts with their analysis attached.
func (db *DB) GetRecentPosts(stockCode string, limit int) ([]PostWithAnalysis, error) {
	rows, err := db.conn.Query(
		`SELECT p.id, p.stock_code, p.date, p.title, p.author,
			COALESCE(p.views, ''), COALESCE(p.likes, ''), COALESCE(p.dislikes, ''),
			COALESCE(p.link, ''), COALESCE(p.content, ''), p.is_analyzed, p.created_at,
			a.sentiment_score, a.sentiment_label, a.confidence_score, a.keywords,
			a.bullish_bearish, a.risk_level
		FROM stock_posts p LEFT JOIN post_analysis a ON a.post_id = p.id
		WHERE p.stock_code = ?
		ORDER BY p.date DESC, p.id DESC
		LIMIT ?`, stockCode, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostWithAnalysis
	for rows.Next() {
		var pa PostWithAnalysis
		var analyzed int
		var score, confidence sql.NullFloat64
		var label, keywords, stance, risk sql.NullString
		if err := rows.Scan(&pa.ID, &pa.StockCode, &pa.Date, &pa.Title, &pa.Author,
			&pa.Views, &pa.Likes, &pa.Dislikes, &pa.Link, &pa.Content, &analyzed, &pa.CreatedAt,
			&score, &label, &confidence, &keywords, &stance, &risk); err != nil {
			return nil, err
		}
		pa.IsAnalyzed = analyzed != 0
		if label.Valid {
			pa.Analysis = &Analysis{
				PostID:          pa.ID,
				SentimentScore:  score.Float64,
				SentimentLabel:  label.String,
				ConfidenceScore: confidence.Float64,
				Keywords:        decodeKeywords(keywords),
				Stance:          stance.String,
				RiskLevel:       risk.String,
			}
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		var p Post
		var analyzed int
		var views, likes, dislikes, link, content sql.NullString
		if err := rows.Scan(&p.ID, &p.StockCode, &p.Date, &p.Title, &p.Author,
			&views, &likes, &dislikes, &link, &content, &analyzed, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Views, p.Likes, p.Dislikes = views.String, likes.String, dislikes.String
		p.Link, p.Content = link.String, content.String
		p.IsAnalyzed = analyzed != 0
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
