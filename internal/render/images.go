package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"
)

// svgRasterSize is the square size SVG images are rasterized at before they
// are fitted into their frame.
const svgRasterSize = 256

// maxImagePixels bounds the decoded size of raster images, whatever their encoded size.
const maxImagePixels = 4096 * 4096

// ImageLoader fetches and decodes the image behind an image node's source.
type ImageLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// HTTPImageLoader loads images over HTTP.
type HTTPImageLoader struct {
	client *resty.Client
	logger *logrus.Logger
}

// NewHTTPImageLoader creates a loader whose requests time out after timeout.
// Response bodies over maxBytes are rejected without being buffered in full.
func NewHTTPImageLoader(timeout time.Duration, userAgent string, maxBytes int, logger *logrus.Logger) *HTTPImageLoader {
	if logger == nil {
		logger = logrus.New()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetResponseBodyLimit(maxBytes)

	return &HTTPImageLoader{client: client, logger: logger}
}

// Load fetches src and decodes it as PNG, JPEG, GIF, WebP or SVG.
func (l *HTTPImageLoader) Load(ctx context.Context, src string) (image.Image, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		Get(src)
	if err != nil {
		l.logger.WithError(err).WithField("src", src).Error("render - Image request failed")
		return nil, fmt.Errorf("render: fetch image %s: %w", src, err)
	}
	if !resp.IsSuccess() {
		l.logger.WithFields(logrus.Fields{"src": src, "status": resp.StatusCode()}).Error("render - Image request returned non-success status")
		return nil, fmt.Errorf("render: fetch image %s: %s", src, resp.Status())
	}

	img, err := decodeImage(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("render: decode image %s: %w", src, err)
	}
	return img, nil
}

// decodeImage decodes raster formats through the image registry and hands
// SVG documents to the vector rasterizer.
func decodeImage(body []byte, contentType string) (image.Image, error) {
	if isSVG(body, contentType) {
		return rasterizeSVG(body, svgRasterSize)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return nil, fmt.Errorf("image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, maxImagePixels)
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func isSVG(body []byte, contentType string) bool {
	if strings.Contains(contentType, "svg") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<svg")) || bytes.HasPrefix(trimmed, []byte("<?xml"))
}

// rasterizeSVG draws an SVG document centered on a transparent size x size canvas.
func rasterizeSVG(body []byte, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(size), float64(size)
	}

	scale := float64(size) / max(w, h)
	outW, outH := w*scale, h*scale
	icon.SetTarget((float64(size)-outW)/2, (float64(size)-outH)/2, outW, outH)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}
