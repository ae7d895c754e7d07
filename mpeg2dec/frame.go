/*
DESCRIPTION
  frame.go provides the frame and plane types used as prediction sources
  and reconstruction targets, and the frame store that manages their
  roles across picture boundaries.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2dec

import "github.com/pkg/errors"

// Frame is a triple of raster ordered 8-bit sample planes. The luma
// plane has the coded picture dimensions; the chroma planes are sized
// according to the chroma format. A Frame is a view: its planes may be
// shared with, or offset into, another Frame's planes.
type Frame struct {
	Y, Cb, Cr []uint8
}

// ChromaDimensions returns the chroma plane dimensions for the given
// coded luma dimensions under chroma format cf. 4:2:0 halves both
// dimensions, 4:2:2 halves the width only, and 4:4:4 preserves both.
func ChromaDimensions(width, height int, cf ChromaFormat) (cw, ch int) {
	cw, ch = width, height
	if cf != Chroma444 {
		cw >>= 1
	}
	if cf == Chroma420 {
		ch >>= 1
	}
	return
}

// NewFrame allocates a frame of the given coded luma dimensions and
// chroma format.
func NewFrame(width, height int, cf ChromaFormat) Frame {
	cw, ch := ChromaDimensions(width, height, cf)
	return Frame{
		Y:  make([]uint8, width*height),
		Cb: make([]uint8, cw*ch),
		Cr: make([]uint8, cw*ch),
	}
}

// bottomField returns a view of f whose planes start one raster line
// down, addressing the bottom field of the interleaved frame buffer.
func (f Frame) bottomField(width, chromaWidth int) Frame {
	return Frame{Y: f.Y[width:], Cb: f.Cb[chromaWidth:], Cr: f.Cr[chromaWidth:]}
}

// FrameStore owns the reconstruction buffers of a decoder: two anchor
// frames and an auxiliary frame for intermediate (B) pictures. The
// Current, Forward and Backward roles are views into these buffers and
// are reassigned at picture boundaries by StartPicture; prediction reads
// Forward and Backward and writes Current.
type FrameStore struct {
	width       int
	chromaWidth int

	anchor [2]Frame
	aux    Frame

	Current, Forward, Backward Frame
}

// NewFrameStore allocates the reconstruction buffers for the given coded
// luma dimensions and chroma format. The dimensions must be macroblock
// aligned.
func NewFrameStore(width, height int, cf ChromaFormat) (*FrameStore, error) {
	if width <= 0 || height <= 0 || width%16 != 0 || height%16 != 0 {
		return nil, errors.Errorf("coded dimensions %dx%d are not macroblock aligned", width, height)
	}
	cw, _ := ChromaDimensions(width, height, cf)
	s := &FrameStore{
		width:       width,
		chromaWidth: cw,
		anchor:      [2]Frame{NewFrame(width, height, cf), NewFrame(width, height, cf)},
		aux:         NewFrame(width, height, cf),
	}
	s.Forward, s.Backward = s.anchor[0], s.anchor[1]
	s.Current = s.Backward
	return s, nil
}

// StartPicture reassigns the frame roles for the picture about to be
// decoded. Anchor (I, P and D) pictures swap the anchors and decode into
// the vacated backward buffer, so during the second field of an anchor
// field pair the backward reference is the already decoded first field
// of the same frame. Intermediate (B) pictures decode into the auxiliary
// buffer and leave the anchors untouched. Bottom field pictures write
// through a view offset by one raster line.
func (s *FrameStore) StartPicture(ct PictureCodingType, ps PictureStructure, secondField bool) {
	if ct == BPicture {
		s.Current = s.aux
	} else {
		if !secondField {
			s.Forward, s.Backward = s.Backward, s.Forward
		}
		s.Current = s.Backward
	}
	if ps == BottomField {
		s.Current = s.Current.bottomField(s.width, s.chromaWidth)
	}
}
