package main

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/karolak6612/itemedit/things"
)

func itemHandler(idx int) {
	itm, err := th.Item(uint16(idx))
	if err != nil {
		glog.Errorf("looking up server item %d: %v", idx, err)
		return
	}

	printItem(itm)
}

func citemHandler(idx int) {
	itm, err := th.ItemWithClientID(uint16(idx))
	if err != nil {
		glog.Errorf("looking up client item %d: %v", idx, err)
		return
	}

	printItem(itm)
}

func printItem(itm *things.Item) {
	img, err := itm.Image()
	if err != nil {
		glog.Errorf("composing item image: %v", err)
		return
	}

	out(img)

	if *hash {
		h, err := itm.SpriteHash()
		if err != nil {
			glog.Errorf("computing sprite hash: %v", err)
			return
		}
		fmt.Printf("sprite hash: %x\n", h)
	}
}
