// Package chart renders the progress matrix as a heatmap image or a plain
// text table.
package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"tracker/internal/pivot"
)

var ErrNoData = errors.New("no reading progress recorded")

// MaxHeatmapDates caps the columns of a heatmap, older dates are left out
const MaxHeatmapDates = 60

const (
	cellWidth  = 44
	cellHeight = 24
	padding    = 12
	labelSize  = 12

	maxTitleChars = 28
)

var (
	background = color.RGBA{255, 255, 255, 255}
	ink        = color.RGBA{33, 33, 33, 255}
	gridLine   = color.RGBA{224, 224, 224, 255}
)

var (
	labelFontOnce sync.Once
	labelFont     *opentype.Font
	labelFontErr  error
)

// newLabelFace returns a Go Regular face, which covers Latin, Greek and
// Cyrillic. Faces are not safe for concurrent use so each render gets one.
func newLabelFace() (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = opentype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", labelFontErr)
	}
	return opentype.NewFace(labelFont, &opentype.FaceOptions{
		Size:    labelSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// heatmapLayout holds the pixel geometry of one heatmap
type heatmapLayout struct {
	lineHeight int
	ascent     int
	left       int // x of the first column
	top        int // y of the first row
	width      int
	height     int
}

func newLayout(face font.Face, m *pivot.Matrix, titles []string, caption string) heatmapLayout {
	metrics := face.Metrics()
	l := heatmapLayout{
		lineHeight: metrics.Height.Ceil(),
		ascent:     metrics.Ascent.Ceil(),
	}

	longest := 0
	for _, title := range titles {
		if w := textWidth(face, title); w > longest {
			longest = w
		}
	}

	l.left = padding + longest + padding
	l.top = padding + l.lineHeight + padding
	l.width = l.left + m.Rows()*cellWidth + padding
	if minW := padding*2 + textWidth(face, caption); l.width < minW {
		l.width = minW
	}
	l.height = l.top + m.Cols()*cellHeight + padding + l.lineHeight + padding
	return l
}

// RenderHeatmap writes a PNG heatmap of m to w. Titles run down the Y axis
// and dates along the X axis. Only the last MaxHeatmapDates dates are drawn.
func RenderHeatmap(w io.Writer, m *pivot.Matrix, cmap Colormap) error {
	if m.Empty() || m.Cols() == 0 {
		return ErrNoData
	}
	if !cmap.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownColormap, cmap)
	}
	m = m.LastDates(MaxHeatmapDates)

	face, err := newLabelFace()
	if err != nil {
		return err
	}
	defer face.Close()

	titles := make([]string, m.Cols())
	for j, title := range m.Titles {
		titles[j] = truncate(title, maxTitleChars)
	}

	labels := m.DateLabels()
	caption := fmt.Sprintf("Reading progress %s .. %s", labels[0], labels[len(labels)-1])
	l := newLayout(face, m, titles, caption)

	img := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	drawText(img, face, caption, padding, padding+l.ascent, ink)

	for j, title := range titles {
		y := l.top + j*cellHeight
		drawText(img, face, title, padding, y+(cellHeight-l.lineHeight)/2+l.ascent, ink)

		for i := 0; i < m.Rows(); i++ {
			x := l.left + i*cellWidth
			cell := image.Rect(x, y, x+cellWidth, y+cellHeight)
			draw.Draw(img, cell, image.NewUniform(gridLine), image.Point{}, draw.Src)
			inner := cell.Inset(1)
			draw.Draw(img, inner, image.NewUniform(cmap.shade(m.Cells[i][j])), image.Point{}, draw.Src)
		}
	}

	// MM-DD under each column, the year is in the caption
	baseline := l.top + m.Cols()*cellHeight + padding + l.ascent
	for i, label := range labels {
		short := label[5:]
		x := l.left + i*cellWidth + (cellWidth-textWidth(face, short))/2
		drawText(img, face, short, x, baseline, ink)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode heatmap: %w", err)
	}
	return nil
}

// Table renders m as an aligned text table with one row per date
func Table(m *pivot.Matrix) string {
	if m.Empty() {
		return ""
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	header := make([]string, 0, m.Cols()+1)
	header = append(header, "Date")
	for _, title := range m.Titles {
		header = append(header, truncate(title, 16))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, label := range m.DateLabels() {
		cols := make([]string, 0, m.Cols()+1)
		cols = append(cols, label)
		for _, v := range m.Cells[i] {
			cols = append(cols, fmt.Sprint(v))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	tw.Flush()

	return strings.TrimRight(b.String(), "\n")
}

func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
