package ingestion_engine

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	t.Run("dimensions track rows and columns", func(t *testing.T) {
		img := RenderTable([][]string{
			{"a", "b", "c"},
			{"1", "2", "3"},
		})
		require.NotNil(t, img)

		b := img.Bounds()
		assert.Equal(t, int(rowHeight*2+1), b.Dy())
		// three columns at the minimum width plus the closing grid line
		assert.Equal(t, int(minColWidth*3+1), b.Dx())
	})

	t.Run("wide cells grow their column up to the cap", func(t *testing.T) {
		narrow := RenderTable([][]string{{"x"}})
		wide := RenderTable([][]string{{strings.Repeat("y", 30)}})
		capped := RenderTable([][]string{{strings.Repeat("z", 500)}})

		assert.Greater(t, wide.Bounds().Dx(), narrow.Bounds().Dx())
		assert.Equal(t, int(maxColWidth+1), capped.Bounds().Dx())
	})

	t.Run("empty grid still renders", func(t *testing.T) {
		img := RenderTable(nil)
		require.NotNil(t, img)
		assert.Positive(t, img.Bounds().Dx())
		assert.Positive(t, img.Bounds().Dy())
	})

	t.Run("background is white", func(t *testing.T) {
		img := RenderTable([][]string{{"", ""}})
		r, g, b, _ := img.At(img.Bounds().Dx()/2, int(rowHeight)/2).RGBA()
		white := color.RGBA{255, 255, 255, 255}
		wr, wg, wb, _ := white.RGBA()
		assert.Equal(t, wr, r)
		assert.Equal(t, wg, g)
		assert.Equal(t, wb, b)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abcd", 2))
	// rune-safe, not byte-safe
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "", truncateRunes("", 3))
}
