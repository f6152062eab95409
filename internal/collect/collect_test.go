package collect

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/fetch"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Stock:  config.Stock{Code: "139480"},
		Crawl:  config.Crawl{BaseURL: baseURL},
		Report: config.Report{Timezone: "Asia/Seoul"},
	}
}

func TestCollectorSavesThenStops(t *testing.T) {
	board := newFakeBoard()
	board.pages[1] = boardPage([]boardRow{
		{"2024.01.02", "userA", "첫 글"},
		{"2024.01.01", "userB", "둘째 글"},
	}, 1)
	srv := httptest.NewServer(board)
	defer srv.Close()

	db := openTestDB(t)
	c, err := NewCollector(testConfig(srv.URL), db, fetch.NewClient(0, "test", ""))
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	r, err := c.Collect(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.Found != 2 || r.Saved != 2 || r.TotalStored != 2 {
		t.Errorf("unexpected first result: %+v", r)
	}

	// The board gains one post on top; the second run stops at the old ones.
	board.mu.Lock()
	board.pages[1] = boardPage([]boardRow{
		{"2024.01.03", "userC", "새 글"},
		{"2024.01.02", "userA", "첫 글"},
		{"2024.01.01", "userB", "둘째 글"},
	}, 1)
	board.mu.Unlock()

	r, err = c.Collect(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.StoredBefore != 2 || r.Found != 1 || r.Saved != 1 || r.TotalStored != 3 {
		t.Errorf("unexpected second result: %+v", r)
	}
}

func TestCollectorNoRows(t *testing.T) {
	board := newFakeBoard()
	srv := httptest.NewServer(board)
	defer srv.Close()

	db := openTestDB(t)
	c, err := NewCollector(testConfig(srv.URL), db, fetch.NewClient(0, "", ""))
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	r, err := c.Collect(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.Found != 0 || r.Saved != 0 {
		t.Errorf("expected nothing collected, got %+v", r)
	}
}

func TestToNewPosts(t *testing.T) {
	rows := ToNewPosts([]Listing{{Author: "a", Title: "t"}})
	if len(rows) != 1 || rows[0].Date != nil || rows[0].Author != "a" {
		t.Errorf("unexpected conversion: %+v", rows)
	}
}
