package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/logging"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/models"
)

// publishedLayouts are tried in order against the raw publish date so the
// date keeps the offset written in the feed.
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

// TransportError reports a failed HTTP exchange: either the request could not
// be completed or the server answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Parsed is the result of parsing a feed: the full parsed document and the
// typed entries derived from it, in feed order.
type Parsed struct {
	Feed    *gofeed.Feed
	Entries []models.FeedEntry
}

// Fetcher performs plain GET requests and parses feed documents.
type Fetcher struct {
	client      *http.Client
	parser      *gofeed.Parser
	feedTimeout time.Duration
	logger      *slog.Logger
}

// New returns a Fetcher. Feed requests are bounded by feedTimeout; media
// downloads only by the caller's context, since episodes can be large.
func New(client *http.Client, feedTimeout time.Duration, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	parser := gofeed.NewParser()
	parser.Client = client
	return &Fetcher{
		client:      client,
		parser:      parser,
		feedTimeout: feedTimeout,
		logger:      logger.With("component", "fetcher"),
	}
}

// Open issues a GET for url and returns the response body. The caller must
// close it. Non-2xx responses are returned as *TransportError. Requests carry
// the same User-Agent as the feed parser.
func (f *Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.parser.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	f.logger.Debug("GET", "url", url, "status", resp.StatusCode, "content_length", resp.ContentLength)
	return resp.Body, nil
}

// FetchRaw downloads the feed document at url as-is.
func (f *Fetcher) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := f.withFeedTimeout(ctx)
	defer cancel()

	body, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return data, nil
}

// Parse fetches url and parses it as an RSS, Atom or JSON feed.
func (f *Fetcher) Parse(ctx context.Context, url string) (*Parsed, error) {
	ctx, cancel := f.withFeedTimeout(ctx)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &TransportError{URL: url, StatusCode: httpErr.StatusCode}
		}
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &TransportError{URL: url, Err: err}
		}
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	f.logger.Debug("feed parsed", "url", url, "title", feed.Title, "items", len(feed.Items))
	return &Parsed{Feed: feed, Entries: Entries(feed)}, nil
}

func (f *Fetcher) withFeedTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.feedTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.feedTimeout)
}

// Entries converts parsed items into typed entries, one per item and in feed
// order.
// The item link becomes an "alternate" link and every enclosure an
// "enclosure" link.
func Entries(feed *gofeed.Feed) []models.FeedEntry {
	if feed == nil {
		return nil
	}
	entries := make([]models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			entries = append(entries, models.FeedEntry{})
			continue
		}
		entries = append(entries, toEntry(item))
	}
	return entries
}

func toEntry(item *gofeed.Item) models.FeedEntry {
	entry := models.FeedEntry{
		Title:     strings.TrimSpace(item.Title),
		Published: item.Published,
	}
	entry.PublishedAt = parsePublished(item.Published, item.PublishedParsed)

	if item.Link != "" {
		entry.Links = append(entry.Links, models.Link{Href: item.Link, Rel: models.RelAlternate})
	}
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		entry.Links = append(entry.Links, models.Link{
			Href:   enc.URL,
			Rel:    models.RelEnclosure,
			Type:   enc.Type,
			Length: enc.Length,
		})
	}
	return entry
}

// parsePublished reads raw in its own offset. gofeed's parsed value, which is
// normalized to UTC, is only used when raw matches none of the layouts.
func parsePublished(raw string, parsed *time.Time) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	if parsed == nil {
		return nil
	}
	pub := *parsed
	return &pub
}
