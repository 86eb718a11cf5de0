package downloader_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/downloader"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/fetcher"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/hasher"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/store"
)

type fixture struct {
	srv      *httptest.Server
	store    *store.Store
	dl       *downloader.Downloader
	requests *atomic.Int32
	body     *atomic.Value
}

func setup(t *testing.T) *fixture {
	t.Helper()

	requests := &atomic.Int32{}
	body := &atomic.Value{}
	body.Store("first version of the audio")

	mux := http.NewServeMux()
	mux.HandleFunc("/ep.mp3", func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		io.WriteString(w, body.Load().(string))
	})
	mux.HandleFunc("/gone.mp3", func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	st, err := store.New(filepath.Join(t.TempDir(), "out"), "mp3", nil)
	require.NoError(t, err)
	require.NoError(t, st.Init())

	h, err := hasher.New(hasher.SHA256)
	require.NoError(t, err)

	tr := fetcher.New(srv.Client(), time.Second, nil)
	return &fixture{
		srv:      srv,
		store:    st,
		dl:       downloader.New(st, tr, h, nil),
		requests: requests,
		body:     body,
	}
}

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestFetchDownloadsOnceThenHitsCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.dl.Fetch(ctx, f.srv.URL+"/ep.mp3", "Media_20240105_Ep_1_Intro.mp3", false)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, sha("first version of the audio"), first.ContentHash)
	assert.Equal(t, filepath.Join(f.store.MediaDir(), "Media_20240105_Ep_1_Intro.mp3"), first.Path)
	assert.EqualValues(t, 1, f.requests.Load())

	second, err := f.dl.Fetch(ctx, f.srv.URL+"/ep.mp3", "Media_20240105_Ep_1_Intro.mp3", false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.EqualValues(t, 1, f.requests.Load(), "cache hit must not touch the network")
}

func TestFetchCacheReturnsDigestOfBytesOnDisk(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.dl.Fetch(ctx, f.srv.URL+"/ep.mp3", "Ep.mp3", false)
	require.NoError(t, err)

	f.body.Store("upstream changed")
	got, err := f.dl.Fetch(ctx, f.srv.URL+"/ep.mp3", "Ep.mp3", false)
	require.NoError(t, err)
	assert.Equal(t, sha("first version of the audio"), got.ContentHash)
}

func TestFetchOverwriteRefetches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.dl.Fetch(ctx, f.srv.URL+"/ep.mp3", "Ep.mp3", false)
	require.NoError(t, err)

	f.body.Store("second version")
	got, err := f.dl.Fetch(ctx, f.srv.URL+"/ep.mp3", "Ep.mp3", true)
	require.NoError(t, err)
	assert.False(t, got.Cached)
	assert.Equal(t, sha("second version"), got.ContentHash)
	assert.EqualValues(t, 2, f.requests.Load())

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, "second version", string(data))
}

func TestFetchTransportFailureWritesNothing(t *testing.T) {
	f := setup(t)

	_, err := f.dl.Fetch(context.Background(), f.srv.URL+"/gone.mp3", "Gone.mp3", false)
	var te *fetcher.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, http.StatusGone, te.StatusCode)

	ok, err := store.Exists(f.store.MediaPath("Gone.mp3"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchWithoutURL(t *testing.T) {
	f := setup(t)

	_, err := f.dl.Fetch(context.Background(), "", "Nothing.mp3", false)
	require.ErrorIs(t, err, downloader.ErrNoURL)
	assert.Zero(t, f.requests.Load())
}
