package main

import (
	"image"

	"github.com/golang/glog"
	"github.com/nfnt/resize"

	"github.com/karolak6612/itemedit/imageprint"
	"github.com/karolak6612/itemedit/spr"
)

// mode maps the renderer flags onto an imageprint mode. -rasterm wins, then
// -col variants; plain glyphs are the fallback.
func mode() imageprint.Mode {
	switch {
	case *rasterm:
		return imageprint.ModeRaster
	case !*col:
		return imageprint.ModeMono
	case *iterm:
		return imageprint.ModeITerm
	case *col256:
		return imageprint.Mode256
	default:
		return imageprint.ModeTrueColor
	}
}

// fit shrinks img to the terminal when -downsize is set. Raster protocols
// get the terminal's pixel area; cell renderers spend two columns and one
// row per pixel, so the ceiling is cols/2 by rows-1. Images already at or
// under a single sprite tile are left alone, since a tile fits anywhere a
// prompt does.
func fit(img image.Image) image.Image {
	if !*downsize {
		return img
	}
	sz := img.Bounds().Size()
	if sz.X <= spr.Width && sz.Y <= spr.Height {
		return img
	}
	ts, err := GetTermSize()
	if err != nil {
		glog.V(1).Infof("terminal size unavailable, printing full size: %v", err)
		return img
	}
	m := mode()
	if (m == imageprint.ModeRaster || m == imageprint.ModeITerm) && ts.WSXPixel != 0 && ts.WSYPixel != 0 {
		return resize.Thumbnail(ts.WSXPixel/2, ts.WSYPixel/2, img, resize.Lanczos3)
	}
	maxW, maxH := ts.WSCol/2, ts.WSRow
	if maxH > 1 {
		maxH--
	}
	return resize.Thumbnail(maxW, maxH, img, resize.Lanczos3)
}

func out(img image.Image) {
	err := imageprint.Print(fit(img), mode(), imageprint.Options{
		Blanks: *blanks,
		Name:   "item.png",
	})
	if err != nil {
		glog.Errorf("rendering image: %v", err)
	}
}
