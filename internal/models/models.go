package models

import "time"

// Link relations recognised on feed entries.
const (
	RelAlternate = "alternate"
	RelEnclosure = "enclosure"
)

// Link is one link attached to a feed entry.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Type   string `json:"type,omitempty"`
	Length string `json:"length,omitempty"`
}

// FeedEntry represents a single item parsed from a feed. Entries are produced
// by the feed parser and never modified afterwards.
type FeedEntry struct {
	Title       string     `json:"title"`
	Published   string     `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Links       []Link     `json:"links"`
}

// Enclosure returns the href of the first enclosure link, or "" when the
// entry carries no media.
func (e FeedEntry) Enclosure() string {
	for _, l := range e.Links {
		if l.Rel == RelEnclosure && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// ArchivedFile is a media file stored under the archive root.
type ArchivedFile struct {
	LogicalName string `json:"logical_name"`
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"`
	Cached      bool   `json:"cached"`
}

// Manifest is the ordered list of digests for one run, index-aligned with the
// feed entries. A nil element marks an entry without an enclosure.
type Manifest []*string

// Digest returns a manifest element for the given hex digest.
func Digest(hex string) *string {
	return &hex
}

// Report summarises one archival run.
type Report struct {
	FeedURL     string    `json:"feed_url"`
	ArchivedAt  time.Time `json:"archived_at"`
	Entries     int       `json:"entries"`
	FirstTitle  string    `json:"first_title"`
	Downloaded  int       `json:"downloaded"`
	Cached      int       `json:"cached"`
	NoEnclosure int       `json:"no_enclosure"`
	RawPath     string    `json:"raw_path"`
	RecordPath  string    `json:"record_path"`
	HashesPath  string    `json:"hashes_path"`
}
