package readme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var kst = time.FixedZone("KST", 9*3600)

func TestRenderFresh(t *testing.T) {
	now := time.Date(2024, 1, 8, 9, 5, 0, 0, kst)
	out, err := Render("20240108", nil, "", now)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"*Last Updated: 2024-01-08 09:05*",
		"| 🌅 장시작 전 리포트 | 2024-01-08 | ✅ 최신 |",
		"![Pre-Market Report](./generate/20240108/pre_market_report_20240108.png)",
		"![Monthly Report](./generate/20240108/monthly_report_20240108.png)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected README to contain %q", want)
		}
	}
}

func TestRenderPreservesOtherSections(t *testing.T) {
	old, _ := Render("20240101", nil, "", time.Date(2024, 1, 1, 0, 0, 0, 0, kst))

	out, err := Render("20240108", []string{"post_market_report_20240108.png"}, old, time.Date(2024, 1, 8, 18, 0, 0, 0, kst))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(out, "![Post-Market Report](./generate/20240108/post_market_report_20240108.png)") {
		t.Error("expected post-market image to move to the new folder")
	}
	if !strings.Contains(out, "| 🌆 장마감 후 리포트 | 2024-01-08 |") {
		t.Error("expected post-market date to be refreshed")
	}
	if !strings.Contains(out, "![Weekly Report](./generate/20240101/weekly_report_20240101.png)") {
		t.Error("expected weekly image to be preserved")
	}
	if !strings.Contains(out, "| 📅 주간 리포트 | 2024-01-01 |") {
		t.Error("expected weekly date to be preserved")
	}
	if !strings.Contains(out, "*Last Updated: 2024-01-08 18:00*") {
		t.Error("expected updated timestamp")
	}
}

func TestUpdateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "README.md")
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, kst)

	if err := Update(path, "20240108", []string{"pre_market_report_20240108.png"}, now); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := Update(path, "20240109", []string{"weekly_report_20240109.png"}, now); err != nil {
		t.Fatalf("second Update: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading README: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "./generate/20240108/pre_market_report_20240108.png") {
		t.Error("expected first report to survive the second update")
	}
	if !strings.Contains(content, "./generate/20240109/weekly_report_20240109.png") {
		t.Error("expected second report to be linked")
	}
}

func TestLatestFolder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20240101", "20240215", "notes", "2024"} {
		os.Mkdir(filepath.Join(dir, name), 0o755)
	}
	os.WriteFile(filepath.Join(dir, "20991231"), []byte("file"), 0o644)

	got, ok := LatestFolder(dir)
	if !ok || got != "20240215" {
		t.Errorf("LatestFolder = %q, %v; want 20240215", got, ok)
	}

	if _, ok := LatestFolder(filepath.Join(dir, "missing")); ok {
		t.Error("expected no folder for missing directory")
	}
}
