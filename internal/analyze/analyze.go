package analyze

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/metrics"
	"github.com/TobiSchelling/StockBoard/internal/sentiment"
)

// ContentSource recovers a post body from its permalink. An empty string
// means extraction failed.
type ContentSource interface {
	Extract(ctx context.Context, link string) string
}

// Result holds the results of an analysis pass.
type Result struct {
	MarkedEmpty    int64
	Candidates     int
	Analyzed       int
	ContentFetched int
	ContentFailed  int
	Errors         int
	Labels         map[string]int
}

// Analyzer fetches missing post bodies and classifies unanalyzed posts.
type Analyzer struct {
	db         *database.DB
	source     ContentSource
	classifier *sentiment.Classifier
	stockCode  string
	limit      int
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewAnalyzer creates an analyzer from configuration. Non-empty lexicon
// lists in cfg replace the built-in ones.
func NewAnalyzer(cfg *config.Config, db *database.DB, source ContentSource) *Analyzer {
	lex := sentiment.DefaultLexicon().Override(sentiment.Lexicon{
		Positive: cfg.Lexicon.Positive,
		Negative: cfg.Lexicon.Negative,
		Bullish:  cfg.Lexicon.Bullish,
		Bearish:  cfg.Lexicon.Bearish,
		Risk:     cfg.Lexicon.Risk,
	})
	limit := cfg.Analysis.BatchLimit
	if limit <= 0 {
		limit = 100
	}
	return &Analyzer{
		db:         db,
		source:     source,
		classifier: sentiment.New(lex),
		stockCode:  cfg.Stock.Code,
		limit:      limit,
		delay:      cfg.Crawl.ContentDelay,
		sleep:      sleepContext,
	}
}

// Run analyzes up to the batch limit of pending posts, newest first.
func (a *Analyzer) Run(ctx context.Context) *Result {
	r := &Result{Labels: map[string]int{}}

	marked, err := a.db.MarkEmptyPostsAnalyzed(a.stockCode)
	if err != nil {
		log.Printf("Error marking empty posts: %v", err)
		r.Errors++
	} else if marked > 0 {
		log.Printf("Marked %d posts without title or link as analyzed", marked)
		r.MarkedEmpty = marked
	}

	posts, err := a.db.GetUnanalyzedPosts(a.stockCode, a.limit)
	if err != nil {
		log.Printf("Error getting unanalyzed posts: %v", err)
		r.Errors++
		return r
	}
	if len(posts) == 0 {
		log.Println("No posts pending analysis")
		return r
	}
	r.Candidates = len(posts)
	log.Printf("Analyzing %d posts", len(posts))

	for i, post := range posts {
		if ctx.Err() != nil {
			log.Printf("Analysis canceled after %d posts", i)
			break
		}
		config.Debugf("analyzing post %d (%d/%d)", post.ID, i+1, len(posts))

		content := post.Content
		if content == "" && post.Link != "" {
			content = a.fetchContent(ctx, post, r)
		}

		res := sentiment.NeutralResult()
		if text := strings.TrimSpace(post.Title + " " + content); text != "" {
			res = a.classifier.Classify(text)
		} else {
			log.Printf("Warning: post %d has neither title nor content", post.ID)
		}

		if err := a.db.SaveAnalysis(database.Analysis{
			PostID:          post.ID,
			SentimentScore:  res.Score,
			SentimentLabel:  res.Label,
			ConfidenceScore: res.Confidence,
			Keywords:        res.Keywords,
			Stance:          res.Stance,
			RiskLevel:       res.Risk,
		}); err != nil {
			log.Printf("Error saving analysis for post %d: %v", post.ID, err)
			r.Errors++
		} else {
			r.Analyzed++
			r.Labels[res.Label]++
			metrics.PostsAnalyzed.WithLabelValues(res.Label).Inc()
			log.Printf("Analyzed post %d: sentiment=%s stance=%s", post.ID, res.Label, res.Stance)
		}

		if err := a.sleep(ctx, a.delay); err != nil {
			break
		}
	}

	log.Printf("Analysis complete: %d analyzed, %d bodies fetched, %d fetch failures, %d errors",
		r.Analyzed, r.ContentFetched, r.ContentFailed, r.Errors)
	return r
}

func (a *Analyzer) fetchContent(ctx context.Context, post database.Post, r *Result) string {
	if a.source == nil {
		return ""
	}
	content := a.source.Extract(ctx, post.Link)
	if content == "" {
		log.Printf("Warning: no content extracted from %s", post.Link)
		r.ContentFailed++
		metrics.ContentFetches.WithLabelValues("empty").Inc()
		return ""
	}

	if err := a.db.UpdatePostContent(post.ID, content); err != nil {
		log.Printf("Error storing content for post %d: %v", post.ID, err)
		r.Errors++
	}
	r.ContentFetched++
	metrics.ContentFetches.WithLabelValues("success").Inc()
	return content
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
