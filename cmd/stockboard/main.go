package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/pipeline"
	"github.com/TobiSchelling/StockBoard/internal/readme"
	"github.com/TobiSchelling/StockBoard/internal/report"
	"github.com/TobiSchelling/StockBoard/internal/schedule"
	"github.com/TobiSchelling/StockBoard/internal/server"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "stockboard",
	Short:   "Stock discussion board sentiment reports",
	Long:    "StockBoard crawls a stock discussion board, scores each post with a keyword lexicon and renders periodic sentiment reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			config.EnableDebug()
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init, version and report-type
		switch cmd.Name() {
		case "init", "version", "report-type":
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			// Load applies logging.level; --verbose wins.
			config.EnableDebug()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reportTypeCmd)
	rootCmd.AddCommand(readmeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("stockboard", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/stockboard/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the stock code, crawl limits and report schedule.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and report status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cfg.Stock.Code)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Stock: %s %s\n", cfg.Stock.Code, cfg.Stock.Name)
		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Posts:")
		fmt.Printf("  Total collected: %d\n", stats.TotalPosts)
		fmt.Printf("  Analyzed: %d\n", stats.AnalyzedPosts)
		fmt.Printf("  Pending: %d\n", stats.PendingPosts)
		fmt.Printf("  Excluded: %d\n", stats.ExcludedPosts)
		if stats.FirstPostDate != nil && stats.LastPostDate != nil {
			fmt.Printf("  Range: %s ~ %s\n", *stats.FirstPostDate, *stats.LastPostDate)
		}
		fmt.Println("\nReports:")
		fmt.Printf("  Runs: %d\n", stats.ReportRuns)

		latest, err := db.GetLatestReportRuns(cfg.Stock.Code)
		if err != nil {
			return fmt.Errorf("getting report runs: %w", err)
		}
		for _, t := range report.Types {
			if run, ok := latest[string(t)]; ok {
				fmt.Printf("  %s: %s (%d posts)\n", t, run.TargetDate, run.TotalPosts)
			}
		}
		return nil
	},
}

// --- crawl command ---

var (
	crawlStart int
	crawlEnd   int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl board listing pages and store new posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		fmt.Printf("Crawling board for %s...\n", cfg.Stock.Code)
		return printStep(pipe.Crawl(ctx, crawlStart, crawlEnd))
	},
}

func init() {
	crawlCmd.Flags().IntVar(&crawlStart, "start", 0, "First listing page (default crawl.start_page)")
	crawlCmd.Flags().IntVar(&crawlEnd, "end", 0, "Last listing page (default crawl.max_pages, -1 for the last page of the pager)")
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch post bodies and score pending posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		fmt.Println("Analyzing pending posts...")
		return printStep(pipe.Analyze(ctx))
	},
}

// --- report command ---

var (
	summaryDays int
	summaryTop  int
)

var reportCmd = &cobra.Command{
	Use:   "report <pre_market|post_market|weekly|monthly|all|summary> [date]",
	Short: "Generate reports for a date (YYYYMMDD, YYYY-MM-DD or YYYY-MM)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		gen, err := report.NewGenerator(cfg, db)
		if err != nil {
			return err
		}

		if args[0] == "summary" {
			text, err := gen.DailySummary(summaryDays, summaryTop)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		}

		types, err := report.Expand(args[0])
		if err != nil {
			return err
		}
		var ref report.Reference
		if len(args) > 1 {
			if ref, err = report.ParseReference(args[1], gen.Location()); err != nil {
				return err
			}
		}

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		failed := false
		for _, t := range types {
			step, rep := pipe.Report(t, ref)
			if step.Err != nil {
				fmt.Printf("%s\n  Error: %v\n", step.Name, step.Err)
				failed = true
				continue
			}
			if rep == nil {
				fmt.Printf("%s\n  %s\n", step.Name, step.Summary)
				continue
			}
			fmt.Println(rep.Format())
		}
		if failed {
			return fmt.Errorf("report generation failed")
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&summaryDays, "days", 7, "Days covered by the summary report")
	reportCmd.Flags().IntVar(&summaryTop, "top", 20, "Keywords listed by the summary report")
}

// --- report-type command ---

var (
	triggerEvent    string
	requestedType   string
	triggerDate     string
	triggerTime     string
	triggerTimezone string
)

var reportTypeCmd = &cobra.Command{
	Use:   "report-type",
	Short: "Print the report type a CI trigger should generate",
	Long: "Maps a CI trigger to a report type. The event and requested type default to\n" +
		"GITHUB_EVENT_NAME and GITHUB_EVENT_INPUTS_REPORT_TYPE; when GITHUB_OUTPUT is\n" +
		"set the result is also appended there as report_type=<type>.",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := time.LoadLocation(triggerTimezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", triggerTimezone, err)
		}
		now := time.Now().In(loc)
		if triggerDate != "" {
			ref, err := report.ParseReference(triggerDate, loc)
			if err != nil {
				return err
			}
			now = time.Date(ref.Date.Year(), ref.Date.Month(), ref.Date.Day(), now.Hour(), now.Minute(), 0, 0, loc)
		}
		if triggerTime != "" {
			t, err := time.ParseInLocation("15:04", triggerTime, loc)
			if err != nil {
				return fmt.Errorf("invalid --time %q (use HH:MM): %w", triggerTime, err)
			}
			now = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		}

		event := triggerEvent
		if event == "" {
			event = os.Getenv("GITHUB_EVENT_NAME")
		}
		requested := requestedType
		if requested == "" {
			requested = os.Getenv("GITHUB_EVENT_INPUTS_REPORT_TYPE")
		}
		config.Debugf("report-type: event=%q requested=%q at %s", event, requested, now.Format("2006-01-02 15:04 MST"))

		result := report.DetermineType(event, requested, now)
		fmt.Println(result)
		return writeGitHubOutput("report_type", result)
	},
}

func init() {
	reportTypeCmd.Flags().StringVar(&triggerEvent, "event", "", "Trigger event: schedule, workflow_dispatch or push")
	reportTypeCmd.Flags().StringVar(&requestedType, "type", "", "Report type requested by a manual run")
	reportTypeCmd.Flags().StringVarP(&triggerDate, "date", "d", "", "Override date (YYYYMMDD, YYYY-MM-DD or YYYY/MM/DD)")
	reportTypeCmd.Flags().StringVarP(&triggerTime, "time", "t", "", "Override time as HH:MM (default now)")
	reportTypeCmd.Flags().StringVar(&triggerTimezone, "timezone", "Asia/Seoul", "Timezone the trigger time is read in")
}

// writeGitHubOutput appends key=value to the file named by GITHUB_OUTPUT.
func writeGitHubOutput(key, value string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
		return fmt.Errorf("writing GITHUB_OUTPUT: %w", err)
	}
	return nil
}

// --- readme command ---

var readmeCmd = &cobra.Command{
	Use:   "readme",
	Short: "Regenerate the README from the newest report folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, ok := readme.LatestFolder(cfg.Report.GenerateDir)
		if !ok {
			return fmt.Errorf("no report folders found in %s", cfg.Report.GenerateDir)
		}
		files, err := filepath.Glob(filepath.Join(cfg.Report.GenerateDir, folder, "*_report_*.png"))
		if err != nil {
			return err
		}
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, filepath.Base(f))
		}
		sort.Strings(names)

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		if err := readme.Update(cfg.Report.ReadmePath, folder, names, time.Now().In(loc)); err != nil {
			return err
		}
		fmt.Printf("README updated: %s (%s)\n", cfg.Report.ReadmePath, folder)
		return nil
	},
}

// --- run command ---

var (
	dryRun     bool
	runReports string
	runDate    string
	runStart   int
	runEnd     int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: crawl -> analyze -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}

		opts := pipeline.Options{StartPage: runStart, EndPage: runEnd}
		if runReports != "" {
			if opts.Reports, err = report.Expand(runReports); err != nil {
				return err
			}
		}
		if runDate != "" {
			opts.Reference, err = report.ParseReference(runDate, pipe.Reports().Location())
		} else if len(opts.Reports) > 0 {
			now := pipe.Reports().Now()
			opts.Reference = report.Reference{Date: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())}
		}
		if err != nil {
			return err
		}

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(opts)
		} else {
			ctx, stop := signalContext()
			defer stop()
			result = pipe.Run(ctx, opts)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("pipeline finished with errors")
		}
		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'stockboard serve' to browse the results.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().StringVar(&runReports, "report", "", "Report type to generate after analysis, or \"all\"")
	runCmd.Flags().StringVar(&runDate, "date", "", "Report reference date (default today)")
	runCmd.Flags().IntVar(&runStart, "start", 0, "First listing page (default crawl.start_page)")
	runCmd.Flags().IntVar(&runEnd, "end", 0, "Last listing page (default crawl.max_pages, -1 for the last page of the pager)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, server.Options{
			StockCode:   cfg.Stock.Code,
			ReadmePath:  cfg.Report.ReadmePath,
			GenerateDir: cfg.Report.GenerateDir,
		}, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured report schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		sched, err := schedule.New(pipe, cfg.Report.Timezone, schedule.Jobs(cfg.Schedule))
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		fmt.Println("Scheduler running. Press Ctrl+C to stop")
		return sched.Start(ctx)
	},
}

func openDB() (*database.DB, error) {
	return database.OpenDir(cfg.GetDataDir())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printStep(step pipeline.StepResult) error {
	if step.Err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(step.Name), step.Err)
	}
	fmt.Printf("  %s\n", step.Summary)
	return nil
}
