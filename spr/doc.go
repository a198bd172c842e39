// Package spr implements a reader for the client's sprite archive.
//
// The archive is an offset table over RLE-compressed 32x32 sprites. A
// higher level implementation needs to be used together with the appearance
// dataset's graphics layout in order to construct a full recognizable
// image; see the compositor package.
package spr
