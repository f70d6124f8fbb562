package chart

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/models"
	"tracker/internal/pivot"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleMatrix() *pivot.Matrix {
	return pivot.Build([]models.ProgressRow{
		{Title: "A", Date: day(1), PagesRead: 10},
		{Title: "A", Date: day(1), PagesRead: 5},
		{Title: "B", Date: day(2), PagesRead: 3},
	})
}

func TestParseColormap(t *testing.T) {
	c, err := ParseColormap("")
	require.NoError(t, err)
	assert.Equal(t, Blues, c)

	c, err = ParseColormap("greens")
	require.NoError(t, err)
	assert.Equal(t, Greens, c)

	_, err = ParseColormap("viridis")
	assert.ErrorIs(t, err, ErrUnknownColormap)
}

func TestColormaps(t *testing.T) {
	all := Colormaps()
	require.Len(t, all, 6)
	assert.Equal(t, DefaultColormap, all[0])
	for _, c := range all {
		assert.True(t, c.Valid(), c.String())
		assert.NotEqual(t, c.shade(0), c.shade(1), c.String())
	}
	assert.False(t, Colormap("Jet").Valid())
}

func TestRenderHeatmap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, sampleMatrix(), Reds))

	img, err := png.Decode(&buf)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Greater(t, bounds.Dx(), 2*cellWidth)
	assert.Greater(t, bounds.Dy(), 2*cellHeight)

	// the first cell (2024-01-01, A) is present and drawn in the high tone
	face, err := newLabelFace()
	require.NoError(t, err)
	defer face.Close()
	m := sampleMatrix()
	l := newLayout(face, m, m.Titles, "Reading progress 2024-01-01 .. 2024-01-02")
	assert.Equal(t, l.width, bounds.Dx())
	assert.Equal(t, l.height, bounds.Dy())
	left, top := l.left, l.top
	r, g, b, _ := img.At(left+cellWidth/2, top+cellHeight/2).RGBA()
	high := palettes[Reds].high
	assert.Equal(t, uint32(high.R)*0x101, r)
	assert.Equal(t, uint32(high.G)*0x101, g)
	assert.Equal(t, uint32(high.B)*0x101, b)

	// (2024-01-02, A) is absent and drawn in the low tone
	r, _, _, _ = img.At(left+cellWidth+cellWidth/2, top+cellHeight/2).RGBA()
	assert.Equal(t, uint32(palettes[Reds].low.R)*0x101, r)
}

func TestRenderHeatmap_NoData(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHeatmap(&buf, pivot.Build(nil), Blues)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestRenderHeatmap_UnknownColormap(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHeatmap(&buf, sampleMatrix(), Colormap("Jet"))
	assert.ErrorIs(t, err, ErrUnknownColormap)
}

func TestTable(t *testing.T) {
	out := Table(sampleMatrix())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, []string{"Date", "A", "B"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2024-01-01", "1", "0"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2024-01-02", "0", "1"}, strings.Fields(lines[2]))

	assert.Empty(t, Table(pivot.Build(nil)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd~", truncate("abcdefgh", 5))
}

func TestRenderHeatmap_CapsDates(t *testing.T) {
	rows := make([]models.ProgressRow, 0, MaxHeatmapDates+20)
	start := day(1)
	for i := 0; i < MaxHeatmapDates+20; i++ {
		rows = append(rows, models.ProgressRow{Title: "Daily", Date: start.AddDate(0, 0, i), PagesRead: 1})
	}
	m := pivot.Build(rows)

	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, m, Blues))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	assert.Less(t, img.Bounds().Dx(), (MaxHeatmapDates+1)*cellWidth+400)
	assert.Len(t, m.Dates, MaxHeatmapDates+20, "the caller's matrix is not trimmed")
}

func TestRenderHeatmap_NonLatinTitle(t *testing.T) {
	face, err := newLabelFace()
	require.NoError(t, err)
	defer face.Close()

	_, ok := face.GlyphAdvance('Ж')
	assert.True(t, ok, "Cyrillic glyphs are available")
	assert.Greater(t, textWidth(face, "Война и мир"), 0)

	m := pivot.Build([]models.ProgressRow{{Title: "Война и мир", Date: day(1), PagesRead: 3}})
	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, m, Greens))
}
