package collect

import (
	"context"
	"log"
	"time"

	"github.com/TobiSchelling/StockBoard/internal/config"
	"github.com/TobiSchelling/StockBoard/internal/fetch"
)

// Options controls a board walk.
type Options struct {
	StartPage int
	EndPage   int // 0 probes the pager for the last page
	Existing  *KeySet
	// IncludeTitle forces title-inclusive keys. A title-inclusive Existing
	// set has the same effect.
	IncludeTitle bool
}

// Crawler walks the board listing of one stock page by page.
type Crawler struct {
	client    *fetch.Client
	baseURL   string
	dates     *DateParser
	pageDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewCrawler creates a crawler. pageDelay is waited after every page that
// did not end the walk.
func NewCrawler(client *fetch.Client, baseURL string, dates *DateParser, pageDelay time.Duration) *Crawler {
	return &Crawler{
		client:    client,
		baseURL:   baseURL,
		dates:     dates,
		pageDelay: pageDelay,
		sleep:     sleepContext,
	}
}

// Page fetches and parses one listing page. Failures are logged and yield
// no rows.
func (c *Crawler) Page(ctx context.Context, stockCode string, page int) []Listing {
	doc, err := c.client.Document(ctx, BoardURL(c.baseURL, stockCode, page))
	if err != nil {
		log.Printf("Error fetching page %d: %v", page, err)
		return nil
	}
	return ParseListing(doc, c.baseURL, c.dates)
}

// LastPage probes page 1 for the board's last page number, defaulting to 1.
func (c *Crawler) LastPage(ctx context.Context, stockCode string) int {
	doc, err := c.client.Document(ctx, BoardURL(c.baseURL, stockCode, 1))
	if err != nil {
		log.Printf("Error probing last page: %v", err)
		return 1
	}
	return ParseLastPage(doc)
}

// Crawl walks pages StartPage..EndPage in order and returns the rows not yet
// stored, in site order. The walk ends at the first row whose key is in
// opts.Existing; that row and everything after it are discarded.
func (c *Crawler) Crawl(ctx context.Context, stockCode string, opts Options) []Listing {
	start := opts.StartPage
	if start < 1 {
		start = 1
	}
	end := opts.EndPage
	if end <= 0 {
		end = c.LastPage(ctx, stockCode)
	}
	withTitle := opts.IncludeTitle || opts.Existing.WithTitle()
	if opts.Existing.WithTitle() {
		log.Println("Stored keys include titles, comparing titles too")
	}

	var all []Listing
	for page := start; page <= end; page++ {
		if ctx.Err() != nil {
			log.Printf("Crawl canceled before page %d", page)
			break
		}
		log.Printf("Collecting page %d/%d...", page, end)

		rows := c.Page(ctx, stockCode, page)
		stop := false
		if len(rows) == 0 {
			log.Printf("Warning: no rows collected from page %d", page)
		} else {
			config.Debugf("page %d: %d rows", page, len(rows))
			added := 0
			for _, row := range rows {
				key := KeyFor(row, withTitle)
				if opts.Existing.Contains(key) {
					log.Printf("Found stored post %v (%d stored keys)", key, opts.Existing.Len())
					stop = true
					break
				}
				all = append(all, row)
				added++
			}
			if added > 0 {
				log.Printf("Page %d: %d new posts", page, added)
			}
		}

		if stop {
			log.Printf("Stopping crawl at page %d: reached stored posts", page)
			break
		}
		if page < end {
			if err := c.sleep(ctx, c.pageDelay); err != nil {
				break
			}
		}
	}
	return all
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
