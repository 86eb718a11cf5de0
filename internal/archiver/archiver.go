// Package archiver runs one archival pass over a feed: it snapshots the raw
// document, downloads each entry's enclosure into the media cache, and writes
// a record of the parsed feed with the digest manifest attached.
//
// A run is strictly sequential and stops at the first error. Media already
// downloaded stays in the cache and is reused by the next run.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/fetcher"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/logging"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/models"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/naming"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/store"
)

const (
	dateLayout  = "20060102"
	mediaPrefix = "media/"
	// ManifestKey is the record field holding the digest manifest.
	ManifestKey = "HASHES"
)

// DateParseError reports an entry whose publish timestamp could not be read.
type DateParseError struct {
	Index int
	Title string
	Raw   string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("entry %d %q: cannot parse publish date %q", e.Index, e.Title, e.Raw)
}

// FeedSource provides the raw feed document and its parsed form.
type FeedSource interface {
	FetchRaw(ctx context.Context, url string) ([]byte, error)
	Parse(ctx context.Context, url string) (*fetcher.Parsed, error)
}

// MediaFetcher stores one enclosure under a logical name and returns its digest.
type MediaFetcher interface {
	Fetch(ctx context.Context, url, savedName string, overwrite bool) (models.ArchivedFile, error)
}

// Record is the parsed feed with the manifest attached. It encodes as the
// feed's own fields plus ManifestKey.
type Record struct {
	*gofeed.Feed
	Hashes models.Manifest `json:"HASHES"`
}

// Options tunes an Archiver.
type Options struct {
	// MediaExtension is appended to every media name. Defaults to "mp3".
	MediaExtension string
	// Now supplies the archival date. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Archiver composes the feed source, media cache and archive store.
type Archiver struct {
	store    *store.Store
	source   FeedSource
	media    MediaFetcher
	mediaExt string
	now      func() time.Time
	logger   *slog.Logger
}

// New returns an Archiver writing into st.
func New(st *store.Store, source FeedSource, media MediaFetcher, opts Options) *Archiver {
	if opts.MediaExtension == "" {
		opts.MediaExtension = "mp3"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Archiver{
		store:    st,
		source:   source,
		media:    media,
		mediaExt: opts.MediaExtension,
		now:      opts.Now,
		logger:   opts.Logger.With("component", "archiver"),
	}
}

// Run archives feedURL once and reports what was done.
func (a *Archiver) Run(ctx context.Context, feedURL string) (models.Report, error) {
	report := models.Report{FeedURL: feedURL}

	if err := a.store.Init(); err != nil {
		return report, err
	}
	if err := a.store.Lock(); err != nil {
		return report, err
	}
	defer func() {
		if err := a.store.Unlock(); err != nil {
			a.logger.Warn("failed to release archive lock", "error", err)
		}
	}()

	a.logger.Info("archive run starting", "feed", feedURL, "root", a.store.Root())

	raw, err := a.source.FetchRaw(ctx, feedURL)
	if err != nil {
		return report, err
	}
	parsed, err := a.source.Parse(ctx, feedURL)
	if err != nil {
		return report, err
	}

	manifest, err := a.archiveEntries(ctx, parsed.Entries, &report)
	if err != nil {
		return report, err
	}

	report.ArchivedAt = a.now()
	today := report.ArchivedAt.Format(dateLayout)
	record := Record{Feed: parsed.Feed, Hashes: manifest}

	if report.RawPath, err = a.store.Write(store.Raw(raw),
		naming.Sanitize(feedURL, naming.Options{Prefix: today, Extension: "xml"})); err != nil {
		return report, err
	}
	if report.RecordPath, err = a.store.Write(store.Structured(record),
		naming.Sanitize(feedURL, naming.Options{Prefix: today, Extension: "json"})); err != nil {
		return report, err
	}
	if report.HashesPath, err = a.store.Write(store.Structured(manifest),
		naming.Sanitize("hashes", naming.Options{Extension: "json"})); err != nil {
		return report, err
	}

	report.Entries = len(parsed.Entries)
	if report.Entries > 0 {
		report.FirstTitle = parsed.Entries[0].Title
	}

	a.logger.Info("archive run complete",
		"entries", report.Entries,
		"downloaded", report.Downloaded,
		"cached", report.Cached,
		"no_enclosure", report.NoEnclosure,
		"last_entry", report.FirstTitle,
	)
	return report, nil
}

// archiveEntries walks entries in feed order and returns one manifest element
// per entry.
func (a *Archiver) archiveEntries(ctx context.Context, entries []models.FeedEntry, report *models.Report) (models.Manifest, error) {
	manifest := make(models.Manifest, 0, len(entries))

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		published, err := publishDate(i, entry)
		if err != nil {
			return nil, err
		}

		name := naming.Sanitize(entry.Title, naming.Options{
			Prefix:    mediaPrefix + published,
			Extension: a.mediaExt,
		})

		url := entry.Enclosure()
		if url == "" {
			a.logger.Debug("entry has no enclosure", "title", entry.Title)
			manifest = append(manifest, nil)
			report.NoEnclosure++
			continue
		}

		file, err := a.media.Fetch(ctx, url, name, false)
		if err != nil {
			return nil, fmt.Errorf("archive %q: %w", entry.Title, err)
		}
		if file.Cached {
			report.Cached++
		} else {
			report.Downloaded++
		}
		manifest = append(manifest, models.Digest(file.ContentHash))
	}
	return manifest, nil
}

func publishDate(index int, entry models.FeedEntry) (string, error) {
	if entry.PublishedAt == nil {
		return "", &DateParseError{Index: index, Title: entry.Title, Raw: entry.Published}
	}
	return entry.PublishedAt.Format(dateLayout), nil
}
