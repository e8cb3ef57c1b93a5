package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	// registers the WebP decoder with image.Decode
	_ "golang.org/x/image/webp"
)

// DefaultPhotoMaxBytes caps a single downloaded photo.
const DefaultPhotoMaxBytes = 15 << 20

// PhotoProxy fetches raw image bytes for a URL.
type PhotoProxy interface {
	FetchImageBytes(ctx context.Context, rawURL string) ([]byte, string, error)
}

// HTTPPhotoProxy fetches photos over HTTP. With Endpoint set, requests go
// through the image proxy as Endpoint?url=<rawURL>; otherwise the URL is
// fetched directly.
type HTTPPhotoProxy struct {
	Endpoint string
	Client   *http.Client
	MaxBytes int64
}

// FetchImageBytes returns the body and its content type. Responses with a
// status of 400 or above are errors.
func (p *HTTPPhotoProxy) FetchImageBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	target := rawURL
	if p.Endpoint != "" {
		sep := "?"
		if strings.Contains(p.Endpoint, "?") {
			sep = "&"
		}
		target = p.Endpoint + sep + "url=" + url.QueryEscape(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("photo request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("photo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("photo fetch: status %d", resp.StatusCode)
	}

	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultPhotoMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("photo read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("photo larger than %d bytes", limit)
	}

	return data, DetectContentType(data, resp.Header.Get("Content-Type")), nil
}

// DetectContentType keeps a specific declared type and sniffs the bytes
// when the declared type is missing or generic.
func DetectContentType(data []byte, declared string) string {
	declared = strings.TrimSpace(strings.SplitN(declared, ";", 2)[0])
	switch declared {
	case "", "application/octet-stream", "binary/octet-stream", "text/plain":
		return mimetype.Detect(data).String()
	}
	return declared
}

// Photo is a JPEG ready to be embedded in a document.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// AspectRatio is height over width.
func (p *Photo) AspectRatio() float64 {
	if p == nil || p.Width == 0 {
		return 0
	}
	return float64(p.Height) / float64(p.Width)
}

// EncodePhoto decodes a JPEG, PNG, GIF or WebP image, applies its EXIF
// orientation, shrinks it to fit maxPixels on the longer side and
// re-encodes it as JPEG.
func EncodePhoto(raw []byte, maxPixels int) (*Photo, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty image")
	}
	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("unsupported image type %s", mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("invalid image dimensions")
	}
	if maxPixels > 0 && (b.Dx() > maxPixels || b.Dy() > maxPixels) {
		img = imaging.Fit(img, maxPixels, maxPixels, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	b = img.Bounds()
	return &Photo{Data: out.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// PhotoLoader turns photo URLs into embeddable photos. Failures are logged
// and reported as nil photos.
type PhotoLoader struct {
	Proxy       PhotoProxy
	MaxPixels   int
	Concurrency int
	Logger      *slog.Logger
}

func (l *PhotoLoader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Load fetches and encodes one photo. An empty URL returns nil without a
// network call.
func (l *PhotoLoader) Load(ctx context.Context, rawURL string) *Photo {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || l == nil || l.Proxy == nil {
		return nil
	}

	data, contentType, err := l.Proxy.FetchImageBytes(ctx, rawURL)
	if err != nil {
		l.logger().Warn("photo fetch failed", "url", rawURL, "error", err)
		return nil
	}
	photo, err := EncodePhoto(data, l.MaxPixels)
	if err != nil {
		l.logger().Warn("photo decode failed", "url", rawURL, "content_type", contentType, "error", err)
		return nil
	}
	return photo
}

// LoadAll loads every URL concurrently and returns the photos in input
// order. Entries that could not be loaded are nil.
func (l *PhotoLoader) LoadAll(ctx context.Context, urls []string) []*Photo {
	photos := make([]*Photo, len(urls))
	if len(urls) == 0 {
		return photos
	}

	limit := 6
	if l != nil && l.Concurrency > 0 {
		limit = l.Concurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range urls {
		g.Go(func() error {
			photos[i] = l.Load(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return photos
}
