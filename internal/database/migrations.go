package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "posts and analysis",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS stock_posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    stock_code TEXT NOT NULL,
    date TEXT,
    title TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    views TEXT DEFAULT '',
    likes TEXT DEFAULT '',
    dislikes TEXT DEFAULT '',
    link TEXT DEFAULT '',
    content TEXT DEFAULT '',
    is_analyzed INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
)`); err != nil {
				return err
			}
			if err := addMissingColumns(tx, "stock_posts", postColumns); err != nil {
				return err
			}
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS post_analysis (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER UNIQUE NOT NULL REFERENCES stock_posts(id),
    sentiment_score REAL NOT NULL DEFAULT 0,
    sentiment_label TEXT NOT NULL CHECK(sentiment_label IN ('positive', 'negative', 'neutral')),
    confidence_score REAL NOT NULL DEFAULT 0,
    keywords TEXT,
    bullish_bearish TEXT NOT NULL CHECK(bullish_bearish IN ('bullish', 'bearish', 'neutral')),
    risk_level TEXT NOT NULL CHECK(risk_level IN ('low', 'medium', 'high')),
    analysis_model TEXT,
    analysis_version TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_stock_posts_code_date ON stock_posts(stock_code, date);
CREATE INDEX IF NOT EXISTS idx_stock_posts_analyzed ON stock_posts(stock_code, is_analyzed);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "report runs",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS report_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    stock_code TEXT NOT NULL,
    report_type TEXT NOT NULL,
    target_date TEXT NOT NULL,
    file_name TEXT NOT NULL,
    window_start TEXT NOT NULL,
    window_end TEXT NOT NULL,
    total_posts INTEGER DEFAULT 0,
    generated_at TEXT DEFAULT (datetime('now')),
    UNIQUE(stock_code, report_type, target_date)
);

CREATE INDEX IF NOT EXISTS idx_report_runs_type ON report_runs(report_type);
`)
			return err
		},
	},
}

// postColumns are the stock_posts columns a pre-existing table may lack.
// created_at has no default here since ALTER TABLE only takes constants.
var postColumns = []column{
	{"date", "TEXT"},
	{"title", "TEXT NOT NULL DEFAULT ''"},
	{"author", "TEXT NOT NULL DEFAULT ''"},
	{"views", "TEXT DEFAULT ''"},
	{"likes", "TEXT DEFAULT ''"},
	{"dislikes", "TEXT DEFAULT ''"},
	{"link", "TEXT DEFAULT ''"},
	{"content", "TEXT DEFAULT ''"},
	{"is_analyzed", "INTEGER DEFAULT 0"},
	{"created_at", "TEXT"},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
