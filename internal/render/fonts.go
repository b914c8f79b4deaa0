package render

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed typefaces cards are set in. It is immutable and safe
// for concurrent use.
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// LoadFonts parses the embedded Go fonts.
func LoadFonts() (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse bold font: %w", err)
	}
	return &Fonts{regular: regular, bold: bold}, nil
}

type faceKey struct {
	size float64
	bold bool
}

// faceCache creates faces on demand for one render and closes them afterwards.
type faceCache struct {
	fonts *Fonts
	faces map[faceKey]font.Face
}

func newFaceCache(fonts *Fonts) *faceCache {
	return &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
}

func (fc *faceCache) face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold}
	if f, ok := fc.faces[key]; ok {
		return f, nil
	}

	otf := fc.fonts.regular
	if bold {
		otf = fc.fonts.bold
	}
	// DPI 72 makes Size a pixel size in canvas units.
	f, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create %.0fpx face: %w", size, err)
	}
	fc.faces[key] = f
	return f, nil
}

func (fc *faceCache) Close() {
	for _, f := range fc.faces {
		f.Close()
	}
}
