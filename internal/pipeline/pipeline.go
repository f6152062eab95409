package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/analyze"
	"github.com/TobiSchelling/StockBoard/internal/collect"
	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/fetch"
	"github.com/TobiSchelling/StockBoard/internal/metrics"
	"github.com/TobiSchelling/StockBoard/internal/report"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	StockCode string
	Steps     []StepResult
	Reports   []*report.Report
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Options selects the pages to crawl and the reports to generate.
type Options struct {
	StartPage int
	// EndPage 0 uses crawl.max_pages; a negative value, like max_pages 0,
	// crawls up to the last page of the board pager.
	EndPage   int
	Reports   []report.Type
	Reference report.Reference
}

// Pipeline orchestrates crawl, analysis and report generation.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	collector *collect.Collector
	analyzer  *analyze.Analyzer
	reports   *report.Generator
}

// New creates a new pipeline sharing one HTTP client between the crawler
// and the content extractor.
func New(cfg *config.Config, db *database.DB) (*Pipeline, error) {
	client := fetch.NewClient(cfg.Crawl.Timeout, cfg.Crawl.UserAgent, cfg.Crawl.Referer)
	collector, err := collect.NewCollector(cfg, db, client)
	if err != nil {
		return nil, err
	}
	gen, err := report.NewGenerator(cfg, db)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		db:        db,
		collector: collector,
		analyzer:  analyze.NewAnalyzer(cfg, db, fetch.NewExtractor(client)),
		reports:   gen,
	}, nil
}

// Reports returns the report generator.
func (p *Pipeline) Reports() *report.Generator { return p.reports }

// Run executes crawl, analysis and the requested reports.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	r := &Result{StockCode: p.cfg.Stock.Code}
	total := 2 + len(opts.Reports)

	log.Printf("Step 1/%d: Crawling board for %s...", total, p.cfg.Stock.Code)
	step := p.Crawl(ctx, opts.StartPage, opts.EndPage)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	log.Printf("Step 2/%d: Analyzing posts...", total)
	r.Steps = append(r.Steps, p.Analyze(ctx))

	for i, t := range opts.Reports {
		if ctx.Err() != nil {
			break
		}
		log.Printf("Step %d/%d: Generating %s report...", i+3, total, t)
		step, rep := p.Report(t, opts.Reference)
		r.Steps = append(r.Steps, step)
		if rep != nil {
			r.Reports = append(r.Reports, rep)
		}
	}
	return r
}

// pages resolves the requested page range against configuration. An end of
// 0 in the result asks the collector to probe the pager.
func (p *Pipeline) pages(start, end int) (int, int) {
	if start <= 0 {
		start = p.cfg.Crawl.StartPage
	}
	switch {
	case end < 0:
		end = 0
	case end == 0:
		end = p.cfg.Crawl.MaxPages
	}
	return start, end
}

// Crawl runs the collection step.
func (p *Pipeline) Crawl(ctx context.Context, start, end int) StepResult {
	start, end = p.pages(start, end)

	began := time.Now()
	result, err := p.collector.Collect(ctx, start, end)
	metrics.RecordStep("crawl", time.Since(began), err)
	if err != nil {
		return StepResult{Name: "Crawl", Err: err}
	}
	summary := fmt.Sprintf("Found %d new posts on pages %d-%d (%d saved, %d duplicates, %d stored)",
		result.Found, result.StartPage, result.EndPage, result.Saved, result.Duplicates, result.TotalStored)
	return StepResult{Name: "Crawl", Summary: summary}
}

// Analyze runs the analysis step.
func (p *Pipeline) Analyze(ctx context.Context) StepResult {
	began := time.Now()
	result := p.analyzer.Run(ctx)

	var err error
	if result.Errors > 0 && result.Analyzed == 0 && result.Candidates == 0 {
		err = fmt.Errorf("analysis failed with %d errors", result.Errors)
	}
	metrics.RecordStep("analyze", time.Since(began), err)
	if err != nil {
		return StepResult{Name: "Analyze", Err: err}
	}
	summary := fmt.Sprintf("Analyzed %d posts (%s), %d bodies fetched, %d fetch failures, %d skipped as empty",
		result.Analyzed, formatLabels(result.Labels), result.ContentFetched, result.ContentFailed, result.MarkedEmpty)
	return StepResult{Name: "Analyze", Summary: summary}
}

// Report generates one report. A window without analyzed posts is reported
// as skipped rather than failed.
func (p *Pipeline) Report(t report.Type, ref report.Reference) (StepResult, *report.Report) {
	name := "Report " + string(t)
	began := time.Now()
	rep, err := p.reports.Generate(t, ref)
	if errors.Is(err, report.ErrNoData) {
		metrics.RecordStep("report_"+string(t), time.Since(began), nil)
		return StepResult{Name: name, Summary: "[skipped] " + err.Error()}, nil
	}
	metrics.RecordStep("report_"+string(t), time.Since(began), err)
	if err != nil {
		return StepResult{Name: name, Err: err}, nil
	}
	return StepResult{
		Name:    name,
		Summary: fmt.Sprintf("%d posts in %s, chart %s", rep.Summary.Total, rep.Window.Label, rep.Path),
	}, rep
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(opts Options) *Result {
	r := &Result{StockCode: p.cfg.Stock.Code}

	start, end := p.pages(opts.StartPage, opts.EndPage)
	last := "last"
	if end > 0 {
		last = strconv.Itoa(end)
	}
	if stored, err := p.db.CountPosts(p.cfg.Stock.Code); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Crawl", Err: fmt.Errorf("counting posts: %w", err)})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Crawl",
			Summary: fmt.Sprintf("[dry-run] Would crawl pages %d-%s for %s (%d posts already stored)", start, last, p.cfg.Stock.Code, stored),
		})
	}

	if pending, err := p.db.GetUnanalyzedPosts(p.cfg.Stock.Code, p.cfg.Analysis.BatchLimit); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Analyze", Err: fmt.Errorf("loading pending posts: %w", err)})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Analyze",
			Summary: fmt.Sprintf("[dry-run] %d posts pending analysis (batch limit %d)", len(pending), p.cfg.Analysis.BatchLimit),
		})
	}

	for _, t := range opts.Reports {
		name := "Report " + string(t)
		w, err := p.reports.Window(t, opts.Reference)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: name, Err: err})
			continue
		}
		posts, err := p.db.GetWindowPosts(p.cfg.Stock.Code, w.Start, w.End)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: name, Err: fmt.Errorf("loading window posts: %w", err)})
			continue
		}
		r.Steps = append(r.Steps, StepResult{
			Name:    name,
			Summary: fmt.Sprintf("[dry-run] %d analyzed posts in %s", len(posts), w),
		})
	}
	return r
}

func formatLabels(labels map[string]int) string {
	var parts []string
	for _, l := range []string{"positive", "negative", "neutral"} {
		if n := labels[l]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, l))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
