package chart

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

// Colormap names a two-tone palette used to shade heatmap cells
type Colormap string

const (
	Blues   Colormap = "Blues"
	Greens  Colormap = "Greens"
	Reds    Colormap = "Reds"
	Purples Colormap = "Purples"
	Oranges Colormap = "Oranges"
	Greys   Colormap = "Greys"

	DefaultColormap = Blues
)

var ErrUnknownColormap = errors.New("unknown colormap")

type palette struct {
	low, high color.RGBA
}

var palettes = map[Colormap]palette{
	Blues:   {low: color.RGBA{247, 251, 255, 255}, high: color.RGBA{8, 48, 107, 255}},
	Greens:  {low: color.RGBA{247, 252, 245, 255}, high: color.RGBA{0, 68, 27, 255}},
	Reds:    {low: color.RGBA{255, 245, 240, 255}, high: color.RGBA{103, 0, 13, 255}},
	Purples: {low: color.RGBA{252, 251, 253, 255}, high: color.RGBA{63, 0, 125, 255}},
	Oranges: {low: color.RGBA{255, 245, 235, 255}, high: color.RGBA{127, 39, 4, 255}},
	Greys:   {low: color.RGBA{255, 255, 255, 255}, high: color.RGBA{0, 0, 0, 255}},
}

// Colormaps lists the supported palettes in display order
func Colormaps() []Colormap {
	return []Colormap{Blues, Greens, Reds, Purples, Oranges, Greys}
}

// ParseColormap resolves a name case-insensitively. An empty name selects
// the default palette.
func ParseColormap(name string) (Colormap, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultColormap, nil
	}
	for _, c := range Colormaps() {
		if strings.EqualFold(string(c), name) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownColormap, name)
}

// Valid reports whether c is one of the enumerated palettes
func (c Colormap) Valid() bool {
	_, ok := palettes[c]
	return ok
}

func (c Colormap) String() string {
	return string(c)
}

// shade maps a presence value to the palette, 0 to low and anything else to high
func (c Colormap) shade(v int) color.RGBA {
	p, ok := palettes[c]
	if !ok {
		p = palettes[DefaultColormap]
	}
	if v == 0 {
		return p.low
	}
	return p.high
}
