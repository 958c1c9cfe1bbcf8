// Package testutils provides shared test infrastructure: an in-process
// fake of the Dundee image archive and helpers for generating image
// fixtures.
package testutils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// FakeArchive is an httptest server presenting the archive's URL layout
// for a declared set of published images. It counts requests and tracks
// the peak number of concurrently in-flight ones, so tests can assert
// both skip-if-present behavior and the download concurrency cap.
type FakeArchive struct {
	Server *httptest.Server

	mu       sync.Mutex
	images   map[string][]byte
	requests int
	inFlight int
	peak     int
}

// NewFakeArchive starts a fake archive serving the given images, keyed by
// URL path (as produced by AddImage / PathFor). Always serve via AddImage
// rather than touching the map directly.
func NewFakeArchive(t *testing.T) *FakeArchive {
	t.Helper()

	fa := &FakeArchive{images: make(map[string][]byte)}
	fa.Server = httptest.NewServer(http.HandlerFunc(fa.handle))
	t.Cleanup(fa.Server.Close)
	return fa
}

// BaseURL returns the archive base to pass to the fetcher.
func (fa *FakeArchive) BaseURL() string {
	return fa.Server.URL + "/MSG"
}

// PathFor returns the URL path under which an image is served.
func (fa *FakeArchive) PathFor(ts meteosat.Timestamp, v meteosat.Variant) string {
	dayIndexPath, hourSegment, fileName := meteosat.RemoteLocation(ts, v)
	return "/MSG/" + dayIndexPath + hourSegment + "/" + fileName
}

// AddImage publishes an image for the given slot.
func (fa *FakeArchive) AddImage(ts meteosat.Timestamp, v meteosat.Variant, data []byte) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	fa.images[fa.PathFor(ts, v)] = data
}

// Requests returns the number of GET requests served so far.
func (fa *FakeArchive) Requests() int {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.requests
}

// PeakConcurrency returns the maximum number of requests that were in
// flight at the same time.
func (fa *FakeArchive) PeakConcurrency() int {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.peak
}

func (fa *FakeArchive) handle(w http.ResponseWriter, r *http.Request) {
	fa.mu.Lock()
	fa.requests++
	fa.inFlight++
	if fa.inFlight > fa.peak {
		fa.peak = fa.inFlight
	}
	data, ok := fa.images[r.URL.Path]
	fa.mu.Unlock()

	defer func() {
		fa.mu.Lock()
		fa.inFlight--
		fa.mu.Unlock()
	}()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// SampleJPEG encodes a small uniform image for use as fixture data. The
// shade varies with seed so distinct fixtures have distinct bytes.
func SampleJPEG(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	shade := color.RGBA{R: seed, G: seed, B: seed, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, shade)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode sample jpeg: %v", err)
	}
	return buf.Bytes()
}
