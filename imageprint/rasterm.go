//go:build !windows
// +build !windows

package imageprint

import (
	"fmt"
	"image"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
)

func isTermItermWez() bool {
	return rasterm.IsTermItermWez()
}

// sixelColors is the palette size used when a sixel-only terminal forces
// quantization.
const sixelColors = 64

func writeRaster(w io.Writer, img image.Image) error {
	var s rasterm.Settings
	switch {
	case rasterm.IsTermKitty():
		if err := s.KittyWriteImage(w, img); err != nil {
			return err
		}
	case rasterm.IsTermItermWez():
		if err := s.ItermWriteImage(w, img); err != nil {
			return err
		}
	default:
		capable, err := rasterm.IsSixelCapable()
		if err != nil || !capable {
			return err
		}
		paletted := image.NewPaletted(img.Bounds(), nil)
		q := gogif.MedianCutQuantizer{NumColor: sixelColors}
		q.Quantize(paletted, img.Bounds(), img, image.Point{})
		if err := s.SixelWriteImage(w, paletted); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
