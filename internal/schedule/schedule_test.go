package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/pipeline"
	"github.com/TobiSchelling/StockBoard/internal/report"
)

type mockRunner struct {
	mu   sync.Mutex
	runs []pipeline.Options
}

func (m *mockRunner) Run(_ context.Context, opts pipeline.Options) *pipeline.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, opts)
	return &pipeline.Result{Steps: []pipeline.StepResult{{Name: "Crawl", Summary: "ok"}}}
}

func TestJobsSkipsEmptySpecs(t *testing.T) {
	jobs := Jobs(config.Schedule{PreMarket: "0 8 * * 1-5", Weekly: " ", Monthly: "0 9 1 * *"})
	if len(jobs) != 2 || jobs[0].Type != report.PreMarket || jobs[1].Type != report.Monthly {
		t.Errorf("unexpected jobs %+v", jobs)
	}
}

func TestNewSchedulesJobs(t *testing.T) {
	s, err := New(&mockRunner{}, "Asia/Seoul", Jobs(config.Schedule{
		PreMarket:  "0 8 * * 1-5",
		PostMarket: "0 18 * * 1-5",
		Weekly:     "0 22 * * 0",
		Monthly:    "CRON_TZ=UTC 0 0 1 * *",
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n := len(s.cron.Entries()); n != 4 {
		t.Errorf("expected 4 entries, got %d", n)
	}
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New(&mockRunner{}, "Asia/Seoul", []Job{{Type: report.Weekly, Spec: "every sunday"}}); err == nil {
		t.Error("expected error for invalid spec")
	}
	if _, err := New(&mockRunner{}, "Mars/Olympus", nil); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestRunJobReference(t *testing.T) {
	runner := &mockRunner{}
	s, err := New(runner, "Asia/Seoul", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// 2024-03-01 00:30 UTC is 09:30 KST on the same day.
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC) }

	s.RunJob(report.PreMarket)
	s.RunJob(report.Monthly)

	if len(runner.runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runner.runs))
	}
	pre := runner.runs[0]
	if len(pre.Reports) != 1 || pre.Reports[0] != report.PreMarket {
		t.Errorf("unexpected reports %v", pre.Reports)
	}
	if got := pre.Reference.Date.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("pre market reference = %s", got)
	}
	if got := runner.runs[1].Reference.Date.Format("2006-01-02"); got != "2024-02-29" {
		t.Errorf("monthly reference = %s, want previous month", got)
	}
}

func TestStartWithoutJobs(t *testing.T) {
	s, _ := New(&mockRunner{}, "Asia/Seoul", nil)
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error without jobs")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s, err := New(&mockRunner{}, "Asia/Seoul", []Job{{Type: report.Weekly, Spec: "0 22 * * 0"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
