package schedule

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/pipeline"
	"github.com/TobiSchelling/StockBoard/internal/report"
)

// Runner executes one crawl, analyze and report cycle.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) *pipeline.Result
}

// Job triggers one report type on a cron spec.
type Job struct {
	Type report.Type
	Spec string
}

// Jobs returns the configured jobs, skipping empty specs.
func Jobs(s config.Schedule) []Job {
	all := []Job{
		{Type: report.PreMarket, Spec: s.PreMarket},
		{Type: report.PostMarket, Spec: s.PostMarket},
		{Type: report.Weekly, Spec: s.Weekly},
		{Type: report.Monthly, Spec: s.Monthly},
	}
	var jobs []Job
	for _, j := range all {
		if strings.TrimSpace(j.Spec) != "" {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// Scheduler runs the pipeline for each job on its schedule. Runs never
// overlap: a trigger that fires while another run is active waits for it.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	loc    *time.Location
	jobs   []Job
	ids    map[cron.EntryID]report.Type
	ctx    context.Context
	mu     sync.Mutex
	now    func() time.Time
}

// New creates a scheduler whose specs are evaluated in the timezone named
// tz (via CRON_TZ).
func New(runner Runner, tz string, jobs []Job) (*Scheduler, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading schedule timezone: %w", err)
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	s := &Scheduler{
		cron:   c,
		runner: runner,
		loc:    loc,
		jobs:   jobs,
		ids:    map[cron.EntryID]report.Type{},
		ctx:    context.Background(),
		now:    time.Now,
	}

	for _, j := range jobs {
		spec := strings.TrimSpace(j.Spec)
		if !strings.HasPrefix(spec, "CRON_TZ=") && !strings.HasPrefix(spec, "TZ=") {
			spec = "CRON_TZ=" + tz + " " + spec
		}
		t := j.Type
		id, err := s.cron.AddFunc(spec, func() { s.RunJob(t) })
		if err != nil {
			return nil, fmt.Errorf("scheduling %s (%q): %w", t, j.Spec, err)
		}
		s.ids[id] = t
	}
	return s, nil
}

// Start runs the scheduler until ctx is canceled, then waits for an active
// run to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return fmt.Errorf("no report schedules configured")
	}
	s.ctx = ctx
	s.cron.Start()
	log.Printf("Scheduler started with %d jobs", len(s.jobs))
	for _, e := range s.cron.Entries() {
		log.Printf("  %s: next run %s", s.ids[e.ID], e.Next.In(s.loc).Format("2006-01-02 15:04 MST"))
	}

	<-ctx.Done()
	log.Println("Scheduler stopping...")
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped.")
	return nil
}

// RunJob runs the pipeline for one report type anchored at the current time.
func (s *Scheduler) RunJob(t report.Type) *pipeline.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("Scheduled %s run starting", t)
	ref := s.reference(t)
	result := s.runner.Run(s.ctx, pipeline.Options{
		Reports:   []report.Type{t},
		Reference: ref,
	})
	for _, step := range result.Steps {
		if step.Err != nil {
			log.Printf("  %s: error: %v", step.Name, step.Err)
		} else {
			log.Printf("  %s: %s", step.Name, step.Summary)
		}
	}
	return result
}

// reference anchors a scheduled report: today for the daily and weekly
// reports, the previous calendar month for the monthly one.
func (s *Scheduler) reference(t report.Type) report.Reference {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if t == report.Monthly {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		return report.Reference{Date: first.AddDate(0, 0, -1)}
	}
	return report.Reference{Date: today}
}
