package database

import "fmt"

// InsertReportRun records a generated report, replacing an earlier run for
// the same type and target date.
func (db *DB) InsertReportRun(r ReportRun) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO report_runs
		(stock_code, report_type, target_date, file_name, window_start, window_end, total_posts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StockCode, r.ReportType, r.TargetDate, r.FileName, r.WindowStart, r.WindowEnd, r.TotalPosts,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting report run: %w", err)
	}
	return result.LastInsertId()
}

// GetLatestReportRuns returns the most recent run of each report type,
// keyed by report type.
func (db *DB) GetLatestReportRuns(stockCode string) (map[string]ReportRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, stock_code, report_type, target_date, file_name, window_start, window_end,
			total_posts, generated_at
		FROM report_runs r
		WHERE stock_code = ? AND id = (
			SELECT id FROM report_runs
			WHERE stock_code = r.stock_code AND report_type = r.report_type
			ORDER BY target_date DESC, id DESC LIMIT 1
		)`, stockCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := map[string]ReportRun{}
	for rows.Next() {
		var r ReportRun
		if err := rows.Scan(&r.ID, &r.StockCode, &r.ReportType, &r.TargetDate, &r.FileName,
			&r.WindowStart, &r.WindowEnd, &r.TotalPosts, &r.GeneratedAt); err != nil {
			return nil, err
		}
		runs[r.ReportType] = r
	}
	return runs, rows.Err()
}

// GetReportRuns returns the newest report runs across all types.
func (db *DB) GetReportRuns(stockCode string, limit int) ([]ReportRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, stock_code, report_type, target_date, file_name, window_start, window_end,
			total_posts, generated_at
		FROM report_runs WHERE stock_code = ?
		ORDER BY target_date DESC, id DESC LIMIT ?`, stockCode, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		var r ReportRun
		if err := rows.Scan(&r.ID, &r.StockCode, &r.ReportType, &r.TargetDate, &r.FileName,
			&r.WindowStart, &r.WindowEnd, &r.TotalPosts, &r.GeneratedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate database statistics for a stock.
func (db *DB) GetStats(stockCode string) (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM stock_posts WHERE stock_code = ?", &s.TotalPosts},
		{"SELECT COUNT(*) FROM stock_posts WHERE stock_code = ? AND is_analyzed = 1", &s.AnalyzedPosts},
		{`SELECT COUNT(*) FROM stock_posts WHERE stock_code = ? AND is_analyzed = 0
			AND link IS NOT NULL AND link != '' AND title IS NOT NULL AND TRIM(title) != ''`, &s.PendingPosts},
		{`SELECT COUNT(*) FROM stock_posts WHERE stock_code = ?
			AND (link IS NULL OR link = '' OR title IS NULL OR TRIM(title) = '')`, &s.ExcludedPosts},
		{`SELECT COUNT(*) FROM post_analysis a JOIN stock_posts p ON p.id = a.post_id
			WHERE p.stock_code = ?`, &s.AnalysisRecords},
		{"SELECT COUNT(*) FROM report_runs WHERE stock_code = ?", &s.ReportRuns},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql, stockCode).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	if err := db.conn.QueryRow(
		"SELECT MIN(date), MAX(date) FROM stock_posts WHERE stock_code = ? AND date IS NOT NULL",
		stockCode,
	).Scan(&s.FirstPostDate, &s.LastPostDate); err != nil {
		return nil, err
	}

	return s, nil
}
