package analyze

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
)

const testStock = "139480"

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

// mockSource returns canned bodies by link and records calls.
type mockSource struct {
	bodies map[string]string
	calls  []string
}

func (m *mockSource) Extract(_ context.Context, link string) string {
	m.calls = append(m.calls, link)
	return m.bodies[link]
}

func testAnalyzer(db *database.DB, src ContentSource, sleeps *int) *Analyzer {
	cfg := &config.Config{Stock: config.Stock{Code: testStock}}
	a := NewAnalyzer(cfg, db, src)
	a.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps++
		return nil
	}
	return a
}

func seed(t *testing.T, db *database.DB, posts ...database.NewPost) {
	t.Helper()
	if _, err := db.SavePosts(testStock, posts); err != nil {
		t.Fatalf("SavePosts: %v", err)
	}
}

func TestAnalyzerRun(t *testing.T) {
	db := openTestDB(t)
	seed(t, db,
		database.NewPost{Date: ptr("2024-01-02 10:00:00"), Author: "a", Title: "호재 기사", Link: "https://x/1"},
		database.NewPost{Date: ptr("2024-01-02 11:00:00"), Author: "b", Title: "잡담", Link: "https://x/2"},
		database.NewPost{Date: ptr("2024-01-02 12:00:00"), Author: "c", Title: "", Link: ""},
	)
	src := &mockSource{bodies: map[string]string{"https://x/2": "악재 경고 나왔네요"}}

	sleeps := 0
	r := testAnalyzer(db, src, &sleeps).Run(context.Background())

	if r.MarkedEmpty != 1 {
		t.Errorf("expected 1 empty post marked, got %d", r.MarkedEmpty)
	}
	if r.Candidates != 2 || r.Analyzed != 2 {
		t.Errorf("expected 2 analyzed, got %+v", r)
	}
	if r.ContentFetched != 1 || r.ContentFailed != 1 {
		t.Errorf("expected 1 fetched and 1 failed body, got %+v", r)
	}
	if r.Labels["positive"] != 1 || r.Labels["negative"] != 1 {
		t.Errorf("unexpected labels %v", r.Labels)
	}
	if sleeps != 2 {
		t.Errorf("expected a delay after each post, got %d", sleeps)
	}
	if len(src.calls) != 2 || src.calls[0] != "https://x/2" {
		t.Errorf("expected newest post fetched first, got %v", src.calls)
	}

	stats, _ := db.GetStats(testStock)
	if stats.PendingPosts != 0 || stats.AnalysisRecords != 2 {
		t.Errorf("unexpected stats after run: %+v", stats)
	}

	posts, _ := db.GetRecentPosts(testStock, 10)
	for _, p := range posts {
		if p.Author == "b" {
			if p.Content != "악재 경고 나왔네요" {
				t.Errorf("expected fetched content stored, got %q", p.Content)
			}
			if p.Analysis == nil || p.Analysis.SentimentLabel != "negative" {
				t.Errorf("expected negative analysis, got %+v", p.Analysis)
			}
		}
	}
}

func TestAnalyzerUsesStoredContent(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, database.NewPost{Date: ptr("2024-01-02 10:00:00"), Author: "a", Title: "제목", Link: "https://x/1"})
	posts, _ := db.GetUnanalyzedPosts(testStock, 1)
	db.UpdatePostContent(posts[0].ID, "급등 기대")

	src := &mockSource{}
	sleeps := 0
	r := testAnalyzer(db, src, &sleeps).Run(context.Background())

	if len(src.calls) != 0 {
		t.Errorf("expected no fetch for stored content, got %v", src.calls)
	}
	if r.Labels["positive"] != 1 {
		t.Errorf("expected positive from stored content, got %v", r.Labels)
	}
}

func TestAnalyzerNothingPending(t *testing.T) {
	db := openTestDB(t)
	sleeps := 0
	r := testAnalyzer(db, &mockSource{}, &sleeps).Run(context.Background())
	if r.Analyzed != 0 || r.Errors != 0 {
		t.Errorf("expected empty result, got %+v", r)
	}
}

func TestAnalyzerLexiconOverride(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, database.NewPost{Date: ptr("2024-01-02 10:00:00"), Author: "a", Title: "가즈아", Link: "https://x/1"})

	cfg := &config.Config{
		Stock:   config.Stock{Code: testStock},
		Lexicon: config.Lexicon{Positive: []string{"가즈아"}},
	}
	a := NewAnalyzer(cfg, db, &mockSource{})
	a.sleep = func(context.Context, time.Duration) error { return nil }

	r := a.Run(context.Background())
	if r.Labels["positive"] != 1 {
		t.Errorf("expected override keyword to count, got %v", r.Labels)
	}
}
