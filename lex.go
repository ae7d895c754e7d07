/*
NAME
  lex.go

DESCRIPTION
  lex.go provides a lexer to lex an MPEG-2 video elementary stream into
  discrete coded pictures.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mpeg2 provides an MPEG-2 video elementary stream lexer and,
// in the mpeg2dec package, the reconstruction core of an MPEG-2 video
// decoder.
package mpeg2

import (
	"bufio"
	"io"
	"time"
)

var noDelay = make(chan time.Time)

func init() {
	close(noDelay)
}

// Start codes relevant to picture boundaries (ISO/IEC 13818-2 table 6-1).
const (
	pictureCode     = 0x00
	sequenceHdrCode = 0xb3
	sequenceEndCode = 0xb7
	groupCode       = 0xb8
)

const bufSize = 16 << 10

// Lex lexes MPEG-2 video elementary stream data read from src into
// discrete coded pictures written to dst, with successive writes being
// performed not earlier than the specified delay. Sequence and group of
// pictures headers are carried with the picture that follows them; a
// sequence end code terminates the write holding the final picture.
func Lex(dst io.Writer, src io.Reader, delay time.Duration) error {
	var tick <-chan time.Time
	if delay == 0 {
		tick = noDelay
	} else {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	r := bufio.NewReader(src)
	buf := make([]byte, 0, bufSize)
	sawPicture := false

	for {
		b, err := r.ReadByte()
		if err != nil {
			if err != io.EOF {
				return err
			}
			if len(buf) == 0 {
				return io.EOF
			}
			<-tick
			if _, err := dst.Write(buf); err != nil {
				return err
			}
			return io.EOF
		}
		buf = append(buf, b)

		// A start code 00 00 01 xx at the tail of the buffer?
		n := len(buf)
		if n < 4 || buf[n-4] != 0x00 || buf[n-3] != 0x00 || buf[n-2] != 0x01 {
			continue
		}

		switch code := buf[n-1]; code {
		case sequenceEndCode:
			<-tick
			if _, err := dst.Write(buf); err != nil {
				return err
			}
			buf = make([]byte, 0, bufSize)
			sawPicture = false

		case pictureCode, sequenceHdrCode, groupCode:
			if sawPicture && n > 4 {
				<-tick
				if _, err := dst.Write(buf[:n-4]); err != nil {
					return err
				}
				next := make([]byte, 4, bufSize)
				copy(next, buf[n-4:])
				buf = next
				sawPicture = false
			}
			if code == pictureCode {
				sawPicture = true
			}
		}
	}
}
