package spr

// This file contains spr package's functions related to implementing
// the image package's registration interface, so that a sprite archive
// dropped into image.Decode produces its first sprite. Modeled after
// the public interface of the image/gif package.

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// Signatures the stdlib image registry can sniff on. Other versions still
// decode fine through NewAtlas with the right Options; registration only
// covers the archives we ship test fixtures for.
const (
	signature820  = 0x4868ECC9
	signature860  = 0x4C220594
	signature1098 = 0x57BBD603
)

func init() {
	for _, sig := range []uint32{signature820, signature860, signature1098} {
		magic := string([]byte{byte(sig), byte(sig >> 8), byte(sig >> 16), byte(sig >> 24)})
		image.RegisterFormat("spr", magic, Decode, DecodeConfig)
	}
}

// DecodeConfig returns the image.Config for the first sprite in the archive.
// Every sprite in every client version is 32x32 RGBA.
func DecodeConfig(r io.Reader) (image.Config, error) {
	return image.Config{Width: Width, Height: Height, ColorModel: color.RGBAModel}, nil
}

// Decode returns the first sprite of the archive as an image. It sniffs the
// signature from the stream, so it only handles the registered versions; use
// NewAtlas for anything else.
func Decode(r io.Reader) (image.Image, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, fmt.Errorf("spr: reader must be a ReadSeeker")
	}
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	var sig [4]byte
	if _, err := io.ReadFull(rs, sig[:]); err != nil {
		return nil, fmt.Errorf("%w: reading signature: %v", ErrTruncated, err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}

	signature := uint32(sig[0]) | uint32(sig[1])<<8 | uint32(sig[2])<<16 | uint32(sig[3])<<24
	opts := Options{Signature: signature}
	switch signature {
	case signature820, signature860:
	case signature1098:
		opts.Extended = true
		opts.Alpha = true
	default:
		return nil, fmt.Errorf("spr: no registered options for signature %08x", signature)
	}

	a, err := NewAtlas(rs, opts)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Image(1)
}
