// Package imageprint puts decoded sprites and composed item images on the
// terminal, for quick inspection without leaving the shell.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/gookit/color"
)

// Mode selects how an image is rendered.
type Mode int

const (
	// ModeMono draws a brightness glyph per pixel, no escape sequences.
	ModeMono Mode = iota
	// Mode256 draws background-colored cells from the 256-color palette.
	Mode256
	// ModeTrueColor draws background-colored cells with 24-bit escapes.
	ModeTrueColor
	// ModeITerm emits the iTerm2 inline-image protocol.
	ModeITerm
	// ModeRaster picks the best raster protocol the terminal speaks
	// (Kitty, iTerm2/WezTerm or sixel), falling back to nothing.
	ModeRaster
)

// Options tunes cell rendering. The zero value writes glyphs to stdout.
type Options struct {
	Blanks bool      // two spaces per pixel instead of a brightness glyph
	Name   string    // file name advertised over the iTerm protocol
	Out    io.Writer // destination; nil means os.Stdout
}

// Print renders img in the given mode. Raster modes silently do nothing
// when the terminal does not speak the protocol.
func Print(img image.Image, mode Mode, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	switch mode {
	case ModeITerm:
		return writeITerm(opts.Out, img, opts.Name)
	case ModeRaster:
		return writeRaster(opts.Out, img)
	default:
		return writeCells(opts.Out, img, mode, opts.Blanks)
	}
}

// glyphs is the brightness ramp used when Blanks is off, darkest first.
var glyphs = [...]string{"..", "--", "==", "##"}

func cell(w io.Writer, px uint32, r, g, b uint8, mode Mode, blanks bool) {
	body := "  "
	if !blanks {
		i := int(px) * len(glyphs) / 256
		if i >= len(glyphs) {
			i = len(glyphs) - 1
		}
		body = glyphs[i]
	}
	switch mode {
	case Mode256:
		fmt.Fprint(w, color.RGB(r, g, b, true).Sprint(body))
	case ModeTrueColor:
		fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", r, g, b, body)
	default:
		fmt.Fprint(w, body)
	}
}

func writeCells(w io.Writer, img image.Image, mode Mode, blanks bool) error {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca == 0 {
				fmt.Fprint(w, "\x1b[0m  ")
				continue
			}
			px := ((cr + cg + cb) / 3) >> 8
			cell(w, px, uint8(cr>>8), uint8(cg>>8), uint8(cb>>8), mode, blanks)
		}
		if _, err := fmt.Fprint(w, "\x1b[0m\n"); err != nil {
			return err
		}
	}
	return nil
}

// writeITerm emits the iTerm2 inline-image sequence.
//
// https://www.iterm2.com/documentation-images.html
func writeITerm(w io.Writer, img image.Image, name string) error {
	if !isTermItermWez() {
		return nil
	}
	var payload bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &payload)
	if err := png.Encode(enc, img); err != nil {
		return err
	}
	enc.Close()
	sz := img.Bounds().Size()
	_, err := fmt.Fprintf(w, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n",
		base64.StdEncoding.EncodeToString([]byte(name)), payload.Len(), sz.X, sz.Y, payload.String())
	return err
}
