package card

import (
	"image/color"

	"github.com/gbasileGP/chess-card/internal/model"
)

// Kind identifies what a Node draws.
type Kind int

const (
	KindBox Kind = iota
	KindText
	KindImage
)

// Direction is the main axis children of a box are stacked along.
type Direction int

const (
	Column Direction = iota
	Row
)

// Edges holds per-side lengths.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns Edges with the same length on every side.
func Uniform(v float64) Edges {
	return Edges{Top: v, Right: v, Bottom: v, Left: v}
}

// Style is the subset of flexbox styling the rasterizer understands.
// Lengths are in native canvas units.
type Style struct {
	Direction Direction
	// Center centers children on both axes.
	Center bool

	Width  float64 // fixed width; 0 sizes to content
	Height float64 // fixed height; 0 sizes to content

	Padding Edges
	Margin  Edges

	Background  color.Color
	BorderColor color.Color
	BorderWidth float64
	Radius      float64 // corner radius; Radius >= min(Width, Height)/2 draws a circle

	Color    color.Color
	FontSize float64
	Bold     bool
}

// Node is one element of a declarative card tree.
type Node struct {
	Kind     Kind
	Style    Style
	Text     string // KindText
	Src      string // KindImage
	Children []*Node
}

// Box returns a container node.
func Box(style Style, children ...*Node) *Node {
	return &Node{Kind: KindBox, Style: style, Children: children}
}

// Text returns a text node.
func Text(text string, style Style) *Node {
	return &Node{Kind: KindText, Style: style, Text: text}
}

// Image returns an image node loaded from src.
func Image(src string, style Style) *Node {
	return &Node{Kind: KindImage, Style: style, Src: src}
}

// Walk calls fn for n and every descendant, depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

var (
	backgroundColor = color.RGBA{0x2e, 0x2e, 0x2e, 0xff}
	borderColor     = color.RGBA{0x4a, 0x4a, 0x4a, 0xff}
	headingColor    = color.White
	statColor       = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
)

// Profile is everything a card shows about a player.
type Profile struct {
	Username  string
	AvatarURL string
	Ratings   model.Ratings
}

// NewProfile extracts card fields from the upstream payloads.
func NewProfile(username string, profile *model.PlayerProfile, stats *model.PlayerStats) Profile {
	return Profile{
		Username:  username,
		AvatarURL: profile.AvatarURL(),
		Ratings:   stats.Ratings(),
	}
}

// Layout builds the card tree at the native 600x250 canvas. Other sizes are
// produced by scaling this tree when it is painted, never by changing it.
func Layout(p Profile) *Node {
	stat := func(label string, rating *int, margin Edges) *Node {
		return Text(label+": "+model.FormatRating(rating), Style{
			FontSize: 24,
			Color:    statColor,
			Margin:   margin,
		})
	}

	return Box(Style{
		Direction:   Column,
		Center:      true,
		Width:       NativeWidth,
		Height:      NativeHeight,
		Padding:     Uniform(32),
		Background:  backgroundColor,
		BorderColor: borderColor,
		BorderWidth: 4,
		Radius:      16,
		Color:       headingColor,
	},
		Box(Style{Direction: Row, Center: true, Margin: Edges{Bottom: 24}},
			Image(p.AvatarURL, Style{
				Width:  96,
				Height: 96,
				Radius: 48,
				Margin: Edges{Right: 24},
			}),
			Box(Style{Direction: Column},
				Text(p.Username, Style{FontSize: 48, Bold: true, Color: headingColor}),
				stat("Rapid", p.Ratings.Rapid, Edges{Top: 8}),
				stat("Blitz", p.Ratings.Blitz, Edges{}),
				stat("Bullet", p.Ratings.Bullet, Edges{}),
			),
		),
	)
}
