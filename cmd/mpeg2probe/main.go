/*
DESCRIPTION
  mpeg2probe unwraps MPEG-2 video from an MPEG-TS file or reads a raw
  elementary stream, lexes it into coded pictures, and reports the
  sequence parameters and picture mix of the stream.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bytes"
	"flag"
	"io"
	"os"

	"github.com/Comcast/gots/packet"
	"github.com/Comcast/gots/pes"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/mpeg2"
	"github.com/ausocean/mpeg2/mpeg2dec"
	"github.com/ausocean/utils/logging"
)

// Logging configuration.
const (
	logPath      = "mpeg2probe.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 14 // days
	logSuppress  = true
)

const tsPacketSize = 188

func main() {
	var (
		inPath  = flag.String("in", "media.ts", "file path of input MPEG-TS or MPEG-2 elementary stream")
		pid     = flag.Int("pid", 256, "PID of the MPEG-2 video stream when the input is MPEG-TS")
		verbose = flag.Bool("v", false, "log every picture")
	)
	flag.Parse()

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	verbosity := logging.Info
	if *verbose {
		verbosity = logging.Debug
	}
	log := logging.New(verbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	in, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatal("could not read input", "error", err.Error())
	}

	es := in
	if isTS(in) {
		es, err = unwrap(in, *pid)
		if err != nil {
			log.Fatal("could not unwrap MPEG-TS", "error", err.Error())
		}
		log.Info("unwrapped MPEG-TS", "pid", *pid, "bytes", len(es))
	}

	sum := &summary{log: log}
	err = mpeg2.Lex(sum, bytes.NewReader(es), 0)
	if err != nil && err != io.EOF {
		log.Fatal("could not lex elementary stream", "error", err.Error())
	}
	sum.report()
}

// isTS reports whether the input looks like MPEG-TS: a whole number of
// sync-byte led packets.
func isTS(b []byte) bool {
	return len(b) >= tsPacketSize && len(b)%tsPacketSize == 0 && b[0] == 0x47
}

// unwrap collects the PES payloads of the given PID from an MPEG-TS clip
// and concatenates their elementary stream data.
func unwrap(clip []byte, pid int) ([]byte, error) {
	var (
		pkt       packet.Packet
		es        []byte
		pesPacket []byte
		started   bool
	)

	flush := func() error {
		h, err := pes.NewPESHeader(pesPacket)
		if err != nil {
			return errors.Wrap(err, "could not parse PES packet")
		}
		es = append(es, h.Data()...)
		return nil
	}

	for i := 0; i+tsPacketSize <= len(clip); i += tsPacketSize {
		copy(pkt[:], clip[i:i+tsPacketSize])
		if int(pkt.PID()) != pid {
			continue
		}
		payload, err := pkt.Payload()
		if err != nil {
			return nil, errors.Wrap(err, "could not get packet payload")
		}
		if pkt.PayloadUnitStartIndicator() {
			if started {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			pesPacket = pesPacket[:0]
			started = true
		}
		if started {
			pesPacket = append(pesPacket, payload...)
		}
	}
	if started && len(pesPacket) != 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return es, nil
}

// summary accumulates stream information from lexed pictures. It is the
// destination writer for mpeg2.Lex; each write holds one coded picture
// and any headers preceding it.
type summary struct {
	log           logging.Logger
	width, height int
	pictures      int
	byType        [5]int
	unknownTypes  int
}

func (s *summary) Write(b []byte) (int, error) {
	for i := 0; i+4 <= len(b); i++ {
		if b[i] != 0x00 || b[i+1] != 0x00 || b[i+2] != 0x01 {
			continue
		}
		switch code := b[i+3]; code {
		case 0xb3: // Sequence header.
			w, h, ok := parseSequenceHeader(b[i+4:])
			if !ok {
				continue
			}
			if w != s.width || h != s.height {
				s.log.Info("sequence header", "width", w, "height", h)
			}
			s.width, s.height = w, h
		case 0x00: // Picture header.
			ref, ct, ok := parsePictureHeader(b[i+4:])
			if !ok {
				continue
			}
			s.pictures++
			if ct >= mpeg2dec.IPicture && ct <= mpeg2dec.DPicture {
				s.byType[ct]++
			} else {
				s.unknownTypes++
			}
			s.log.Debug("picture", "n", s.pictures, "temporalRef", ref, "type", typeName(ct))
		}
	}
	return len(b), nil
}

func (s *summary) report() {
	s.log.Info("stream summary",
		"width", s.width,
		"height", s.height,
		"pictures", s.pictures,
		"i", s.byType[mpeg2dec.IPicture],
		"p", s.byType[mpeg2dec.PPicture],
		"b", s.byType[mpeg2dec.BPicture],
		"d", s.byType[mpeg2dec.DPicture],
		"unknown", s.unknownTypes,
	)
}

// parseSequenceHeader extracts the coded dimensions from the bytes
// following a sequence header code: 12 bits of horizontal size then 12
// bits of vertical size.
func parseSequenceHeader(b []byte) (w, h int, ok bool) {
	if len(b) < 3 {
		return 0, 0, false
	}
	w = int(b[0])<<4 | int(b[1])>>4
	h = int(b[1]&0xf)<<8 | int(b[2])
	return w, h, true
}

// parsePictureHeader extracts the temporal reference and coding type
// from the bytes following a picture start code: 10 bits of temporal
// reference then 3 bits of picture_coding_type.
func parsePictureHeader(b []byte) (ref int, ct mpeg2dec.PictureCodingType, ok bool) {
	if len(b) < 2 {
		return 0, 0, false
	}
	ref = int(b[0])<<2 | int(b[1])>>6
	ct = mpeg2dec.PictureCodingType(b[1] >> 3 & 0x7)
	return ref, ct, true
}

func typeName(ct mpeg2dec.PictureCodingType) string {
	switch ct {
	case mpeg2dec.IPicture:
		return "I"
	case mpeg2dec.PPicture:
		return "P"
	case mpeg2dec.BPicture:
		return "B"
	case mpeg2dec.DPicture:
		return "D"
	}
	return "unknown"
}
