/*
DESCRIPTION
  mpeg2dec.go provides the constants and picture-level state shared by
  the MPEG-2 video decoder core.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mpeg2dec provides the reconstruction core of an MPEG-2 video
// (ISO/IEC 13818-2) decoder; currently motion-compensated prediction for
// P and B pictures, together with the reference frame management it
// requires. Bitstream parsing and inverse transform stages are expected
// to be provided by the enclosing decoder.
package mpeg2dec

import "github.com/ausocean/utils/logging"

// PictureStructure is the picture_structure of the picture coding
// extension, as defined by table 6-14 of the specifications.
type PictureStructure int

const (
	TopField PictureStructure = iota + 1
	BottomField
	FramePicture
)

// PictureCodingType is the picture_coding_type of the picture header, as
// defined by table 6-12 of the specifications.
type PictureCodingType int

const (
	IPicture PictureCodingType = iota + 1
	PPicture
	BPicture
	DPicture
)

// ChromaFormat is the chroma_format of the sequence extension, as
// defined by table 6-5 of the specifications.
type ChromaFormat int

const (
	Chroma420 ChromaFormat = iota + 1
	Chroma422
	Chroma444
)

// MotionType describes the prediction mode of a macroblock. The values
// are the frame_motion_type and field_motion_type codes of tables 6-17
// and 6-18; MCFrame and MC16x8 share a code because frame motion only
// occurs in frame pictures and 16x8 motion only in field pictures.
type MotionType int

const (
	MCField MotionType = 1
	MCFrame MotionType = 2
	MC16x8  MotionType = 2
	MCDMV   MotionType = 3
)

// Macroblock type flags as derived from the macroblock_type VLC
// (tables 6-20 to 6-24).
const (
	MBIntra = 1 << iota
	MBPattern
	MBMotionBackward
	MBMotionForward
	MBQuant
)

// Picture holds the picture-level state consumed by reconstruction. One
// value describes the picture currently being decoded; the enclosing
// decoder updates it at each picture header and hands it to the
// macroblock loop.
type Picture struct {
	Structure     PictureStructure
	CodingType    PictureCodingType
	SecondField   bool // True iff decoding the second field of a field pair.
	TopFieldFirst bool
	ChromaFormat  ChromaFormat

	// Coded luma dimensions, in samples. Both are macroblock aligned.
	Width, Height int

	// Frame roles for the picture being decoded. Current is the write
	// target; Forward and Backward are the reference anchors. For field
	// pictures Current addresses a single field, so its planes are the
	// frame planes, offset by one raster line for a bottom field.
	Current, Forward, Backward Frame

	// Log, if non-nil, receives a debug line for each sub-prediction
	// formed. Leave nil in release use.
	Log logging.Logger
}

// StartPicture assigns the frame roles for this picture from s and must
// be called once per picture, after CodingType, Structure and
// SecondField have been set, before any macroblock is reconstructed.
func (p *Picture) StartPicture(s *FrameStore) {
	s.StartPicture(p.CodingType, p.Structure, p.SecondField)
	p.Current, p.Forward, p.Backward = s.Current, s.Forward, s.Backward
}
