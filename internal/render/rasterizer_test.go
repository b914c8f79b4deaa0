package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/gbasileGP/chess-card/internal/card"
	"github.com/gbasileGP/chess-card/internal/model"
	"github.com/sirupsen/logrus"
)

type stubLoader struct {
	img   image.Image
	err   error
	calls []string
}

func (s *stubLoader) Load(ctx context.Context, src string) (image.Image, error) {
	s.calls = append(s.calls, src)
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}

func solid(c color.Color, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newTestRasterizer(t *testing.T, loader ImageLoader) *Rasterizer {
	t.Helper()
	fonts, err := LoadFonts()
	if err != nil {
		t.Fatalf("LoadFonts() error = %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRasterizer(fonts, loader, logger)
}

func testTree() *card.Node {
	rapid := 0
	return card.Layout(card.Profile{
		Username:  "hikaru",
		AvatarURL: model.DefaultAvatarURL,
		Ratings:   model.Ratings{Rapid: &rapid},
	})
}

func TestRender_Dimensions(t *testing.T) {
	loader := &stubLoader{img: solid(color.RGBA{0, 200, 0, 255}, 40, 40)}
	r := newTestRasterizer(t, loader)

	sizes := []card.Size{
		card.NativeSize,
		{Width: 1200, Height: 500},
		{Width: 240, Height: 100},
		{Width: 1, Height: 1},
	}

	for _, size := range sizes {
		out, err := r.Render(context.Background(), testTree(), size)
		if err != nil {
			t.Fatalf("Render(%+v) error = %v", size, err)
		}
		img, err := png.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("Render(%+v) produced an undecodable png: %v", size, err)
		}
		b := img.Bounds()
		if b.Dx() != size.Width || b.Dy() != size.Height {
			t.Errorf("Render(%+v) image is %dx%d", size, b.Dx(), b.Dy())
		}
	}

	if len(loader.calls) != len(sizes) || loader.calls[0] != model.DefaultAvatarURL {
		t.Errorf("loader calls = %q", loader.calls)
	}
}

func TestRender_ScaleIsATransform(t *testing.T) {
	r := newTestRasterizer(t, &stubLoader{img: solid(color.White, 8, 8)})

	native, err := r.Render(context.Background(), testTree(), card.NativeSize)
	if err != nil {
		t.Fatal(err)
	}
	double, err := r.Render(context.Background(), testTree(), card.Size{Width: 1200, Height: 500})
	if err != nil {
		t.Fatal(err)
	}

	nImg, _ := png.Decode(bytes.NewReader(native))
	dImg, _ := png.Decode(bytes.NewReader(double))

	// Inside the padding, left of the content: card background on both.
	want := color.RGBAModel.Convert(color.RGBA{0x2e, 0x2e, 0x2e, 0xff})
	if got := color.RGBAModel.Convert(nImg.At(12, 125)); got != want {
		t.Errorf("native background pixel = %v, want %v", got, want)
	}
	if got := color.RGBAModel.Convert(dImg.At(24, 250)); got != want {
		t.Errorf("scaled background pixel = %v, want %v", got, want)
	}

	// Rounded corners stay transparent.
	if _, _, _, a := nImg.At(0, 0).RGBA(); a != 0 {
		t.Errorf("native corner alpha = %d, want 0", a)
	}
	if _, _, _, a := dImg.At(1, 1).RGBA(); a != 0 {
		t.Errorf("scaled corner alpha = %d, want 0", a)
	}
}

func TestRender_Errors(t *testing.T) {
	loadErr := errors.New("avatar host down")

	tests := []struct {
		name   string
		loader *stubLoader
		root   *card.Node
		size   card.Size
	}{
		{"nil tree", &stubLoader{img: solid(color.White, 1, 1)}, nil, card.NativeSize},
		{"zero size", &stubLoader{img: solid(color.White, 1, 1)}, testTree(), card.Size{}},
		{"image load failure", &stubLoader{err: loadErr}, testTree(), card.NativeSize},
		{"unknown node kind", &stubLoader{}, &card.Node{Kind: card.Kind(42)}, card.NativeSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRasterizer(t, tt.loader)
			out, err := r.Render(context.Background(), tt.root, tt.size)
			if err == nil {
				t.Fatal("expected error")
			}
			if out != nil {
				t.Errorf("expected no image bytes on error, got %d", len(out))
			}
		})
	}
}

func TestRender_CanceledContext(t *testing.T) {
	r := newTestRasterizer(t, &stubLoader{img: solid(color.White, 1, 1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Render(ctx, testTree(), card.NativeSize); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}
