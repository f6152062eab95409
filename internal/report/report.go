package report

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/metrics"
	"github.com/TobiSchelling/StockBoard/internal/readme"
)

// Report is one generated report.
type Report struct {
	Window     Window
	Summary    *Summary
	TargetDate time.Time
	FileName   string
	Path       string
}

// Generator builds report windows from stored analyses and renders charts.
type Generator struct {
	db          *database.DB
	stockCode   string
	loc         *time.Location
	generateDir string
	readmePath  string
	width       int
	height      int
	now         func() time.Time
}

// NewGenerator creates a report generator from configuration. An empty
// readme path disables README refreshes.
func NewGenerator(cfg *config.Config, db *database.DB) (*Generator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Generator{
		db:          db,
		stockCode:   cfg.Stock.Code,
		loc:         loc,
		generateDir: cfg.Report.GenerateDir,
		readmePath:  cfg.Report.ReadmePath,
		width:       cfg.Report.ChartWidth,
		height:      cfg.Report.ChartHeight,
		now:         time.Now,
	}, nil
}

// Location returns the timezone report windows are computed in.
func (g *Generator) Location() *time.Location { return g.loc }

// Now returns the current time in the report timezone.
func (g *Generator) Now() time.Time { return g.now().In(g.loc) }

// Window computes the window of a report type without generating it.
func (g *Generator) Window(t Type, ref Reference) (Window, error) {
	return ComputeWindow(t, ref, g.Now(), g.loc)
}

// Generate renders one report, records its run and refreshes the README.
func (g *Generator) Generate(t Type, ref Reference) (*Report, error) {
	w, err := g.Window(t, ref)
	if err != nil {
		return nil, err
	}
	log.Printf("Generating %s report for %s", t, w)

	posts, err := g.db.GetWindowPosts(g.stockCode, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("loading %s posts: %w", t, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%s (%s): %w", t, w.Label, ErrNoData)
	}
	summary := Aggregate(w, posts)
	if summary.Total == 0 {
		return nil, fmt.Errorf("%s (%s): %w", t, w.Label, ErrNoData)
	}

	target := w.TargetDate(ref)
	folder := target.Format("20060102")
	r := &Report{
		Window:     w,
		Summary:    summary,
		TargetDate: target,
		FileName:   fmt.Sprintf("%s_report_%s.png", t, folder),
	}
	r.Path = filepath.Join(g.generateDir, folder, r.FileName)

	title := fmt.Sprintf("%s %s (%s)", g.stockCode, t.Title(), w.Label)
	if err := renderChart(r.Path, title, summary.Chart(t), g.width, g.height); err != nil {
		return nil, err
	}
	metrics.ReportsGenerated.WithLabelValues(string(t)).Inc()
	log.Printf("Saved %s chart to %s", t, r.Path)

	if _, err := g.db.InsertReportRun(database.ReportRun{
		StockCode:   g.stockCode,
		ReportType:  string(t),
		TargetDate:  target.Format("2006-01-02"),
		FileName:    r.FileName,
		WindowStart: w.Start.Format(database.DateLayout),
		WindowEnd:   w.End.Format(database.DateLayout),
		TotalPosts:  summary.Total,
	}); err != nil {
		return nil, err
	}

	if g.readmePath != "" {
		if err := readme.Update(g.readmePath, folder, []string{r.FileName}, g.Now()); err != nil {
			log.Printf("Warning: failed to update README after %s report: %v", t, err)
		}
	}
	return r, nil
}
