//go:build windows
// +build windows

package imageprint

import (
	"flag"
	"fmt"
	"image"
	"io"
)

var forceITerm = flag.Bool("force_iterm", false, "assume the terminal speaks the iTerm2 inline-image protocol")

func isTermItermWez() bool {
	return *forceITerm
}

func writeRaster(w io.Writer, img image.Image) error {
	_, err := fmt.Fprintln(w, "raster protocols not supported on windows")
	return err
}
