package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/metrics"
	"github.com/TobiSchelling/StockBoard/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

const (
	defaultPostLimit = 50
	maxPostLimit     = 500
)

// Options locates the files the server publishes.
type Options struct {
	StockCode   string
	ReadmePath  string
	GenerateDir string
}

// Server is the HTTP server for browsing posts and reports.
type Server struct {
	db    *database.DB
	opts  Options
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"comma":    func(n int) string { return humanize.Comma(int64(n)) },
		"percent":  func(f float64) string { return humanize.FtoaWithDigits(f*100, 1) + "%" },
		"since":    since,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"reportTitle": func(t string) string { return report.Type(t).Title() },
		"folder":      func(date string) string { return strings.ReplaceAll(date, "-", "") },
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so that "title" and "content"
	// can be defined per page.
	pageNames := []string{"index.html", "posts.html", "reports.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, opts: opts, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Generated charts, linked from the README as ./generate/...
	if s.opts.GenerateDir != "" {
		s.mux.Handle("/generate/", http.StripPrefix("/generate/", http.FileServer(http.Dir(s.opts.GenerateDir))))
	}
	s.mux.Handle("/metrics", metrics.Handler())

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/posts", s.handlePosts)
	s.mux.HandleFunc("/reports", s.handleReports)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.db.GetStats(s.opts.StockCode)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	latest, err := s.db.GetLatestReportRuns(s.opts.StockCode)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	runs := make([]database.ReportRun, 0, len(latest))
	for _, t := range report.Types {
		if run, ok := latest[string(t)]; ok {
			runs = append(runs, run)
		}
	}

	var readme string
	if s.opts.ReadmePath != "" {
		if data, err := os.ReadFile(s.opts.ReadmePath); err == nil {
			readme = string(data)
		}
	}

	s.render(w, "index.html", map[string]any{
		"StockCode": s.opts.StockCode,
		"Stats":     stats,
		"Runs":      runs,
		"Readme":    readme,
	})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	limit := defaultPostLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxPostLimit)
		}
	}

	posts, err := s.db.GetRecentPosts(s.opts.StockCode, limit)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "posts.html", map[string]any{
		"StockCode": s.opts.StockCode,
		"Posts":     posts,
		"Limit":     limit,
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.GetReportRuns(s.opts.StockCode, 100)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "reports.html", map[string]any{
		"StockCode": s.opts.StockCode,
		"Runs":      runs,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// since renders a SQLite UTC timestamp relative to now.
func since(ts *string) string {
	if ts == nil {
		return ""
	}
	t, err := time.Parse(database.DateLayout, *ts)
	if err != nil {
		return *ts
	}
	return humanize.Time(t)
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, opts Options, port int) error {
	srv, err := New(db, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
