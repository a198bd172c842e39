package imageprint

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoPixels is a 2x1 image: a bright white pixel next to a transparent one.
func twoPixels() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	return img
}

func TestPrintMonoGlyphs(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Print(twoPixels(), ModeMono, Options{Out: &out}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "##", "white pixel uses the brightest glyph")
	assert.NotContains(t, lines[0], "\x1b[48;2", "mono mode sets no background")
}

func TestPrintMonoBlanks(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Print(twoPixels(), ModeMono, Options{Out: &out, Blanks: true}))
	assert.NotContains(t, out.String(), "##")
}

func TestPrintTrueColorEscapes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Print(twoPixels(), ModeTrueColor, Options{Out: &out}))

	s := out.String()
	assert.Contains(t, s, "\x1b[48;2;255;255;255m", "opaque pixel sets its RGB background")
	assert.True(t, strings.HasSuffix(s, "\x1b[0m\n"), "row ends with a reset")
}

func TestPrintDarkPixelRamp(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF})

	var out bytes.Buffer
	require.NoError(t, Print(img, ModeMono, Options{Out: &out}))
	assert.Contains(t, out.String(), "..", "near-black pixel uses the darkest glyph")
}
