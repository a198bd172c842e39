package main

import (
	"github.com/golang/glog"
)

func sprHandler(idx int) {
	atlas := th.Atlas()
	if atlas == nil {
		glog.Errorf("no sprite archive loaded")
		return
	}

	img, err := atlas.Image(uint32(idx))
	if err != nil {
		glog.Errorf("decoding sprite %d: %v", idx, err)
		return
	}

	out(img)
}
