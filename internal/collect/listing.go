package collect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/TobiSchelling/StockBoard/internal/fetch"
)

// Listing is one row of the discussion board listing.
type Listing struct {
	Date     *time.Time // nil when the date cell could not be parsed
	Title    string     // empty when hidden by the clean-bot filter
	Author   string
	Views    string
	Likes    string
	Dislikes string
	Link     string // absolute permalink, empty when hidden
}

// BoardURL returns the listing page URL for a stock.
func BoardURL(baseURL, stockCode string, page int) string {
	return fmt.Sprintf("%s/item/board.naver?code=%s&page=%d", strings.TrimRight(baseURL, "/"), stockCode, page)
}

// ParseListing extracts rows from a listing page. Rows without exactly six
// cells are header, notice or spacer rows and are skipped.
func ParseListing(doc *goquery.Document, baseURL string, dates *DateParser) []Listing {
	table := doc.Find("table.type2").First()
	if table.Length() == 0 {
		return nil
	}
	base := strings.TrimRight(baseURL, "/")

	var rows []Listing
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cols := tr.Find("td")
		if cols.Length() != 6 {
			return
		}

		var l Listing
		if t, ok := dates.Parse(fetch.FlatText(cols.Eq(0))); ok {
			l.Date = &t
		}

		titleCell := cols.Eq(1)
		anchor := titleCell.Find("a").First()
		switch {
		case titleCell.Find("span.cleanbot_list_blind").Length() > 0:
			// hidden post: no title, no link
		case anchor.Length() > 0:
			if text, ok := fetch.DirectText(anchor); ok {
				l.Title = text
			} else {
				l.Title = fetch.FlatText(anchor)
			}
			if href, ok := anchor.Attr("href"); ok {
				l.Link = base + href
			}
		default:
			l.Title = fetch.FlatText(titleCell)
		}

		l.Author = fetch.FlatText(cols.Eq(2))
		l.Views = fetch.FlatText(cols.Eq(3))
		l.Likes = fetch.FlatText(cols.Eq(4))
		l.Dislikes = fetch.FlatText(cols.Eq(5))
		rows = append(rows, l)
	})
	return rows
}

// ParseLastPage reads the last page number from the "last page" pager link.
// Returns 1 when the pager is missing or unreadable.
func ParseLastPage(doc *goquery.Document) int {
	links := doc.Find(".pgRR a")
	if links.Length() == 0 {
		return 1
	}
	href := links.Last().AttrOr("href", "")
	i := strings.LastIndex(href, "=")
	if i < 0 {
		return 1
	}
	n, err := strconv.Atoi(href[i+1:])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
