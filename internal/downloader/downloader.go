// Package downloader fetches enclosure media into the archive at most once.
//
// A media file is identified by its logical name. When a file with that name
// is already present under the media directory it is reused as-is and only
// re-hashed; otherwise the URL is fetched and the body stored under that name.
// Writes go through a temp file, so an existing file is always complete.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/hasher"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/logging"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/models"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/store"
)

// ErrNoURL is returned when Fetch is called without a URL.
var ErrNoURL = errors.New("no url to download")

// Transport opens the body of a GET request.
type Transport interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Downloader stores media under the archive's media directory.
type Downloader struct {
	store     *store.Store
	transport Transport
	hasher    *hasher.Hasher
	logger    *slog.Logger
}

// New returns a Downloader writing into st.
func New(st *store.Store, transport Transport, h *hasher.Hasher, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Downloader{
		store:     st,
		transport: transport,
		hasher:    h,
		logger:    logger.With("component", "downloader"),
	}
}

// Fetch makes sure savedName exists in the media directory and returns its
// digest. An existing file is reused unless overwrite is set. Transport
// failures are returned without leaving a file behind.
func (d *Downloader) Fetch(ctx context.Context, url, savedName string, overwrite bool) (models.ArchivedFile, error) {
	if url == "" {
		return models.ArchivedFile{}, ErrNoURL
	}

	path := d.store.MediaPath(savedName)
	file := models.ArchivedFile{LogicalName: savedName, Path: path}

	exists, err := store.Exists(path)
	if err != nil {
		return file, fmt.Errorf("check cache %s: %w", path, err)
	}

	if exists && !overwrite {
		file.Cached = true
		d.logger.Debug("skipping, cached", "url", url, "path", path)
	} else {
		d.logger.Debug("downloading", "url", url, "path", path, "overwrite", overwrite)
		written, err := d.download(ctx, url, path)
		if err != nil {
			return file, err
		}
		d.logger.Info("media downloaded", "name", savedName, "bytes", written)
	}

	sum, err := d.hasher.Hash(path)
	if err != nil {
		return file, err
	}
	file.ContentHash = sum
	d.logger.Debug("media hashed", "name", savedName, "algorithm", d.hasher.Algorithm(), "digest", sum)
	return file, nil
}

func (d *Downloader) download(ctx context.Context, url, path string) (int64, error) {
	body, err := d.transport.Open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	written, err := d.store.WriteStream(path, body)
	if err != nil {
		return written, fmt.Errorf("download %s: %w", url, err)
	}
	return written, nil
}
