package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Client fetches board pages with static browser headers and returns them as
// UTF-8 goquery documents.
type Client struct {
	http      *http.Client
	userAgent string
	referer   string
}

// NewClient creates a client. A zero timeout means DefaultTimeout.
func NewClient(timeout time.Duration, userAgent, referer string) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: userAgent,
		referer:   referer,
	}
}

// Document fetches pageURL and parses it. Non-2xx responses are errors.
func (c *Client) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: pageURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(decode(body, resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// decode converts body to UTF-8. The Content-Type charset wins; without one
// the encoding is sniffed from BOM and meta tags. Board pages are EUC-KR.
func decode(body []byte, contentType string) io.Reader {
	name := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		name = strings.ToLower(strings.TrimSpace(params["charset"]))
	}
	if name == "" {
		_, name, _ = charset.DetermineEncoding(body, contentType)
	}
	if name == "" || name == "utf-8" || name == "utf8" {
		return bytes.NewReader(body)
	}

	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		log.Printf("Unknown charset %q, treating page as UTF-8", name)
		return bytes.NewReader(body)
	}
	return transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	URL  string
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
