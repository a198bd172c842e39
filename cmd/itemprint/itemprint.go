// Binary itemprint renders a sprite or an item from the loaded client files
// onto the terminal.
//
// It loads the item workspace from the file path flags registered by
// things/full, then prints the requested sprite (-spr), server item (-item)
// or client item (-citem) using one of the terminal renderers from
// imageprint.
package main

import (
	"flag"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"

	"github.com/karolak6612/itemedit/things"
	"github.com/karolak6612/itemedit/things/full"
)

var (
	sprID   = flag.Int("spr", 0, "sprite to print")
	itemID  = flag.Int("item", 0, "server ID of item to print")
	citemID = flag.Int("citem", 0, "client ID of item to print")

	col      = flag.Bool("col", true, "whether to print in color at all")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	rasterm  = flag.Bool("rasterm", false, "whether to print with kitty, iterm or sixel escape codes instead of 24 bit")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	downsize = flag.Bool("downsize", false, "whether to fit the image into the terminal size")

	hash = flag.Bool("hash", false, "whether to also print the item's sprite hash")
)

var th *things.Things

func main() {
	full.SetupFilePathFlags()
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	var err error
	th, err = full.FromFilePathFlags()
	if err != nil {
		glog.Exitf("loading item workspace: %v", err)
	}

	if *sprID != 0 {
		sprHandler(*sprID)
	}
	if *itemID != 0 {
		itemHandler(*itemID)
	}
	if *citemID != 0 {
		citemHandler(*citemID)
	}
}
