package things

import (
	"image"

	"github.com/karolak6612/itemedit/compositor"
	"github.com/karolak6612/itemedit/spr"
)

// Image renders the item's first frame through the workspace atlas. Items
// without a client appearance render as a single transparent tile so list
// views never have to special-case them.
func (i *Item) Image() (image.Image, error) {
	if i.Client == nil || i.parent.atlas == nil {
		return image.NewRGBA(image.Rect(0, 0, spr.Width, spr.Height)), nil
	}
	return compositor.Compose(i.Client, i.parent.atlas)
}

// SpriteHash computes the canonical digest for the item's current client
// appearance. The stored server-side hash is left untouched; compare the two
// to detect stale items, or use Things.RehashItem to persist it.
func (i *Item) SpriteHash() ([16]byte, error) {
	var zero [16]byte
	if i.Client == nil || i.parent.atlas == nil {
		return zero, nil
	}
	return compositor.SpriteHash(i.Client, i.parent.atlas)
}
