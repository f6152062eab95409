package collect

import (
	"context"
	"fmt"
	"log"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/database"
	"github.com/TobiSchelling/StockBoard/internal/fetch"
	"github.com/TobiSchelling/StockBoard/internal/metrics"
)

// Result holds the results of a collection run.
type Result struct {
	StartPage    int
	EndPage      int
	StoredBefore int
	Found        int
	Saved        int
	Duplicates   int
	TotalStored  int
}

// Collector crawls the board for new posts and stores them.
type Collector struct {
	db           *database.DB
	crawler      *Crawler
	stockCode    string
	includeTitle bool
}

// NewCollector creates a collector from configuration.
func NewCollector(cfg *config.Config, db *database.DB, client *fetch.Client) (*Collector, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Collector{
		db:           db,
		crawler:      NewCrawler(client, cfg.Crawl.BaseURL, NewDateParser(loc), cfg.Crawl.PageDelay),
		stockCode:    cfg.Stock.Code,
		includeTitle: cfg.Crawl.IncludeTitleInKey,
	}, nil
}

// Crawler exposes the underlying board crawler.
func (c *Collector) Crawler() *Crawler {
	return c.crawler
}

// Collect walks pages start..end (end 0 probes the pager) and saves every
// row the storage layer does not already hold.
func (c *Collector) Collect(ctx context.Context, start, end int) (*Result, error) {
	stored, err := c.db.ExistingKeys(c.stockCode, c.includeTitle)
	if err != nil {
		return nil, fmt.Errorf("loading stored keys: %w", err)
	}
	if start < 1 {
		start = 1
	}
	if end <= 0 {
		end = c.crawler.LastPage(ctx, c.stockCode)
		log.Printf("Board pager reports %d pages", end)
	}
	r := &Result{StartPage: start, EndPage: end, StoredBefore: len(stored)}

	rows := c.crawler.Crawl(ctx, c.stockCode, Options{
		StartPage:    start,
		EndPage:      end,
		Existing:     NewKeySet(stored, c.includeTitle),
		IncludeTitle: c.includeTitle,
	})
	r.Found = len(rows)
	metrics.PostsCrawled.Add(float64(r.Found))

	if len(rows) == 0 {
		log.Println("No new posts found")
	} else {
		saved, err := c.db.SavePosts(c.stockCode, ToNewPosts(rows))
		if err != nil {
			return r, fmt.Errorf("saving posts: %w", err)
		}
		r.Saved = saved
		metrics.PostsSaved.Add(float64(saved))
		r.Duplicates = len(rows) - saved
	}

	total, err := c.db.CountPosts(c.stockCode)
	if err != nil {
		return r, fmt.Errorf("counting posts: %w", err)
	}
	r.TotalStored = total

	log.Printf("Collection complete: %d found, %d new, %d duplicates, %d stored", r.Found, r.Saved, r.Duplicates, r.TotalStored)
	return r, nil
}

// ToNewPosts converts listing rows to storage rows.
func ToNewPosts(rows []Listing) []database.NewPost {
	out := make([]database.NewPost, len(rows))
	for i, l := range rows {
		var date *string
		if l.Date != nil {
			s := l.Date.Format(database.DateLayout)
			date = &s
		}
		out[i] = database.NewPost{
			Date:     date,
			Title:    l.Title,
			Author:   l.Author,
			Views:    l.Views,
			Likes:    l.Likes,
			Dislikes: l.Dislikes,
			Link:     l.Link,
		}
	}
	return out
}
