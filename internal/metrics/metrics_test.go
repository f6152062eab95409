package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStep(t *testing.T) {
	before := testutil.ToFloat64(StepRuns.WithLabelValues("crawl", "error"))
	RecordStep("crawl", time.Second, errors.New("boom"))
	after := testutil.ToFloat64(StepRuns.WithLabelValues("crawl", "error"))
	if after != before+1 {
		t.Errorf("expected error counter to grow by 1, got %v -> %v", before, after)
	}
	if testutil.ToFloat64(LastRun.WithLabelValues("crawl")) == 0 {
		t.Error("expected last run timestamp to be set")
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	PostsSaved.Add(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stockboard_posts_saved_total") {
		t.Error("expected posts saved counter in output")
	}
}
