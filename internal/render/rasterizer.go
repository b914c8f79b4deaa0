package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/gbasileGP/chess-card/internal/card"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
)

const (
	defaultFontSize = 16
	lineHeight      = 1.2
)

var defaultTextColor color.Color = color.White

// Rasterizer paints card trees into PNG images.
type Rasterizer struct {
	fonts  *Fonts
	images ImageLoader
	logger *logrus.Logger
}

// NewRasterizer creates a rasterizer that sets text in fonts and resolves image nodes through images.
func NewRasterizer(fonts *Fonts, images ImageLoader, logger *logrus.Logger) *Rasterizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Rasterizer{fonts: fonts, images: images, logger: logger}
}

// Render lays out root on the native canvas and paints it at size. The whole
// tree is scaled by size.Scale() as a canvas transform.
func (r *Rasterizer) Render(ctx context.Context, root *card.Node, size card.Size) (png []byte, err error) {
	if root == nil {
		return nil, errors.New("render: nil card tree")
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("render: invalid size %dx%d", size.Width, size.Height)
	}

	defer func() {
		if rec := recover(); rec != nil {
			png, err = nil, fmt.Errorf("render: panic while painting: %v", rec)
		}
	}()

	faces := newFaceCache(r.fonts)
	defer faces.Close()

	images, err := r.loadImages(ctx, root)
	if err != nil {
		return nil, err
	}

	sx, sy := size.Scale()
	p := &painter{
		dc:          gg.NewContext(size.Width, size.Height),
		faces:       faces,
		images:      images,
		sizes:       make(map[*card.Node]dims),
		scaleX:      sx,
		scaleY:      sy,
		strokeScale: (sx + sy) / 2,
	}
	p.dc.Scale(sx, sy)

	if _, err := p.measure(root); err != nil {
		return nil, err
	}
	if err := p.paint(root, 0, 0); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"width":  size.Width,
		"height": size.Height,
		"bytes":  buf.Len(),
	}).Debug("render - Card painted")

	return buf.Bytes(), nil
}

func (r *Rasterizer) loadImages(ctx context.Context, root *card.Node) (map[string]image.Image, error) {
	images := make(map[string]image.Image)
	var err error
	root.Walk(func(n *card.Node) {
		if err != nil || n.Kind != card.KindImage {
			return
		}
		if _, ok := images[n.Src]; ok {
			return
		}
		var img image.Image
		if img, err = r.images.Load(ctx, n.Src); err == nil {
			images[n.Src] = img
		}
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

type dims struct {
	w, h float64
}

type painter struct {
	dc     *gg.Context
	faces  *faceCache
	images map[string]image.Image
	sizes  map[*card.Node]dims

	scaleX, scaleY float64
	// Line widths are not affected by the gg transform, so strokes are scaled by hand.
	strokeScale float64
}

func (p *painter) textFace(s card.Style) (font.Face, float64, error) {
	size := s.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	f, err := p.faces.face(size, s.Bold)
	return f, size, err
}

// measure computes the border-box size of n and its descendants.
func (p *painter) measure(n *card.Node) (dims, error) {
	var d dims
	s := n.Style

	switch n.Kind {
	case card.KindText:
		face, size, err := p.textFace(s)
		if err != nil {
			return dims{}, err
		}
		d.w = float64(font.MeasureString(face, n.Text)) / 64
		d.h = size * lineHeight

	case card.KindImage:
		d.w, d.h = s.Width, s.Height

	case card.KindBox:
		var main, cross float64
		for _, c := range n.Children {
			cd, err := p.measure(c)
			if err != nil {
				return dims{}, err
			}
			m := c.Style.Margin
			cw := cd.w + m.Left + m.Right
			ch := cd.h + m.Top + m.Bottom
			if s.Direction == card.Row {
				main += cw
				cross = max(cross, ch)
			} else {
				main += ch
				cross = max(cross, cw)
			}
		}
		if s.Direction == card.Row {
			d.w, d.h = main, cross
		} else {
			d.w, d.h = cross, main
		}
		d.w += s.Padding.Left + s.Padding.Right + 2*s.BorderWidth
		d.h += s.Padding.Top + s.Padding.Bottom + 2*s.BorderWidth

	default:
		return dims{}, fmt.Errorf("render: unknown node kind %d", n.Kind)
	}

	if s.Width > 0 {
		d.w = s.Width
	}
	if s.Height > 0 {
		d.h = s.Height
	}
	p.sizes[n] = d
	return d, nil
}

// paint draws n with its border box at (x, y) in native canvas units.
func (p *painter) paint(n *card.Node, x, y float64) error {
	d := p.sizes[n]
	switch n.Kind {
	case card.KindText:
		return p.paintText(n, x, y, d)
	case card.KindImage:
		return p.paintImage(n, x, y, d)
	}

	s := n.Style
	p.paintBox(s, x, y, d)

	inset := s.BorderWidth
	cx := x + inset + s.Padding.Left
	cy := y + inset + s.Padding.Top
	cw := d.w - 2*inset - s.Padding.Left - s.Padding.Right
	ch := d.h - 2*inset - s.Padding.Top - s.Padding.Bottom

	row := s.Direction == card.Row
	contentMain, contentCross := ch, cw
	if row {
		contentMain, contentCross = cw, ch
	}

	var used float64
	for _, c := range n.Children {
		cd, m := p.sizes[c], c.Style.Margin
		if row {
			used += cd.w + m.Left + m.Right
		} else {
			used += cd.h + m.Top + m.Bottom
		}
	}

	pos := 0.0
	if s.Center {
		pos = (contentMain - used) / 2
	}

	for _, c := range n.Children {
		cd, m := p.sizes[c], c.Style.Margin
		var childX, childY float64
		if row {
			childX = cx + pos + m.Left
			childY = cy + m.Top
			if s.Center {
				childY = cy + (contentCross-(cd.h+m.Top+m.Bottom))/2 + m.Top
			}
			pos += cd.w + m.Left + m.Right
		} else {
			childY = cy + pos + m.Top
			childX = cx + m.Left
			if s.Center {
				childX = cx + (contentCross-(cd.w+m.Left+m.Right))/2 + m.Left
			}
			pos += cd.h + m.Top + m.Bottom
		}
		if err := p.paint(c, childX, childY); err != nil {
			return err
		}
	}
	return nil
}

func (p *painter) paintBox(s card.Style, x, y float64, d dims) {
	dc := p.dc
	if s.Background != nil {
		dc.SetColor(s.Background)
		dc.DrawRoundedRectangle(x, y, d.w, d.h, s.Radius)
		dc.Fill()
	}
	if s.BorderWidth > 0 && s.BorderColor != nil {
		half := s.BorderWidth / 2
		dc.SetColor(s.BorderColor)
		dc.SetLineWidth(s.BorderWidth * p.strokeScale)
		dc.DrawRoundedRectangle(x+half, y+half, d.w-s.BorderWidth, d.h-s.BorderWidth, math.Max(s.Radius-half, 0))
		dc.Stroke()
	}
}

func (p *painter) paintText(n *card.Node, x, y float64, d dims) error {
	face, size, err := p.textFace(n.Style)
	if err != nil {
		return err
	}
	col := n.Style.Color
	if col == nil {
		col = defaultTextColor
	}

	metrics := face.Metrics()
	ascent := float64(metrics.Ascent) / 64
	descent := float64(metrics.Descent) / 64
	baseline := y + (size*lineHeight-(ascent+descent))/2 + ascent

	p.dc.SetFontFace(face)
	p.dc.SetColor(col)
	p.dc.DrawString(n.Text, x, baseline)
	return nil
}

func (p *painter) paintImage(n *card.Node, x, y float64, d dims) error {
	src, ok := p.images[n.Src]
	if !ok {
		return fmt.Errorf("render: image %s was not loaded", n.Src)
	}
	if d.w <= 0 || d.h <= 0 {
		return nil
	}

	// Resample once at device resolution, then map back into canvas units.
	pw := max(int(math.Ceil(d.w*p.scaleX)), 1)
	ph := max(int(math.Ceil(d.h*p.scaleY)), 1)
	fitted := imaging.Fill(src, pw, ph, imaging.Center, imaging.Lanczos)

	dc := p.dc
	dc.Push()
	if n.Style.Radius > 0 {
		dc.DrawRoundedRectangle(x, y, d.w, d.h, math.Min(n.Style.Radius, math.Min(d.w, d.h)/2))
		dc.Clip()
	}
	dc.Translate(x, y)
	dc.Scale(d.w/float64(pw), d.h/float64(ph))
	dc.DrawImage(fitted, 0, 0)
	dc.Pop()
	dc.ResetClip()
	return nil
}
