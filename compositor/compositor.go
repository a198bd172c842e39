// Package compositor paints client items into an image.Image using the
// appearance dataset's geometry and a sprite atlas, and computes the
// canonical per-item sprite hash the item database cross-checks sprites
// with.
package compositor

import (
	"crypto/md5"
	"image"
	"image/draw"

	"github.com/golang/glog"

	"github.com/karolak6612/itemedit/dat"
	"github.com/karolak6612/itemedit/spr"
)

// Compose renders the first frame, first pattern of a client item onto a
// 32·width by 32·height canvas. The tile at (w, h) is the stack of layer
// sprites composited back to front with draw.Over, so transparent pixels
// keep what lies beneath them.
//
// Out-of-range sprite indices and absent sprites render as transparent;
// they are data problems to report elsewhere, not composition errors.
func Compose(it *dat.ClientItem, atlas *spr.Atlas) (*image.RGBA, error) {
	return ComposeFrame(it, atlas, 0)
}

// ComposeFrame is Compose for an arbitrary animation frame. The frame index
// wraps around the item's frame count, so callers can iterate freely.
func ComposeFrame(it *dat.ClientItem, atlas *spr.Atlas, frame int) (*image.RGBA, error) {
	w, h, layers := int(it.Width), int(it.Height), int(it.Layers)
	img := image.NewRGBA(image.Rect(0, 0, spr.Width*w, spr.Height*h))

	stride := w * h * layers * int(it.PatternX) * int(it.PatternY) * int(it.PatternZ)
	base := 0
	if it.Frames > 1 && frame > 0 {
		base = (frame % int(it.Frames)) * stride
	}

	for l := 0; l < layers; l++ {
		for ty := 0; ty < h; ty++ {
			for tx := 0; tx < w; tx++ {
				i := base + tx + ty*w + l*w*h
				if i >= len(it.SpriteIDs) {
					glog.V(1).Infof("item %d: sprite index %d out of range (have %d)", it.ID, i, len(it.SpriteIDs))
					continue
				}
				sprite, err := atlas.Image(it.SpriteIDs[i])
				if err != nil {
					return nil, err
				}
				dst := image.Rect(spr.Width*tx, spr.Height*ty, spr.Width*(tx+1), spr.Height*(ty+1))
				draw.Draw(img, dst, sprite, image.Point{}, draw.Over)
			}
		}
	}
	return img, nil
}

// SpriteHash computes the item's 16-byte MD5 sprite digest.
//
// The hash input is, per sprite in (layer, tile row, tile column) order, a
// 4096-byte rendering of the sprite with rows bottom to top and each pixel
// written as B, G, R, 0x00. Transparent pixels contribute the 0x11 channel
// sentinel. Alpha never participates, so retouching only the alpha channel
// of a sprite leaves the hash unchanged.
func SpriteHash(it *dat.ClientItem, atlas *spr.Atlas) ([16]byte, error) {
	var digest [16]byte
	sum := md5.New()
	buf := make([]byte, spr.Pixels*4)

	w, h, layers := int(it.Width), int(it.Height), int(it.Layers)
	for l := 0; l < layers; l++ {
		for ty := 0; ty < h; ty++ {
			for tx := 0; tx < w; tx++ {
				i := tx + ty*w + l*w*h
				var id uint32
				if i < len(it.SpriteIDs) {
					id = it.SpriteIDs[i]
				}
				rgb, err := atlas.RGB(id)
				if err != nil {
					return digest, err
				}
				for row := 0; row < spr.Height; row++ {
					src := (spr.Height - 1 - row) * spr.Width * 3
					dst := row * spr.Width * 4
					for col := 0; col < spr.Width; col++ {
						buf[dst] = rgb[src+2]
						buf[dst+1] = rgb[src+1]
						buf[dst+2] = rgb[src]
						buf[dst+3] = 0x00
						src += 3
						dst += 4
					}
				}
				sum.Write(buf)
			}
		}
	}
	copy(digest[:], sum.Sum(nil))
	return digest, nil
}
