/*
NAME
  lex_test.go

DESCRIPTION
  lex_test.go provides testing for the lexer in lex.go.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"
)

var mpeg2Tests = []struct {
	name  string
	input []byte
	delay time.Duration
	want  [][]byte
	err   error
}{
	{
		name: "empty",
		err:  io.EOF,
	},
	{
		name:  "single picture",
		input: []byte{0x00, 0x00, 0x01, 0x00, 'p', 'i', 'c', 0x00, 0x00, 0x01, 0x01, 's', 'l'},
		want: [][]byte{
			{0x00, 0x00, 0x01, 0x00, 'p', 'i', 'c', 0x00, 0x00, 0x01, 0x01, 's', 'l'},
		},
		err: io.EOF,
	},
	{
		name: "two pictures",
		input: []byte{
			0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e',
			0x00, 0x00, 0x01, 0x00, 't', 'w', 'o',
		},
		want: [][]byte{
			{0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e'},
			{0x00, 0x00, 0x01, 0x00, 't', 'w', 'o'},
		},
		err: io.EOF,
	},
	{
		name: "headers stay with following picture",
		input: []byte{
			0x00, 0x00, 0x01, 0xb3, 's', 'q',
			0x00, 0x00, 0x01, 0xb8, 'g', 'p',
			0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e',
			0x00, 0x00, 0x01, 0xb8, 'g', 'p',
			0x00, 0x00, 0x01, 0x00, 't', 'w', 'o',
		},
		want: [][]byte{
			{0x00, 0x00, 0x01, 0xb3, 's', 'q', 0x00, 0x00, 0x01, 0xb8, 'g', 'p', 0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e'},
			{0x00, 0x00, 0x01, 0xb8, 'g', 'p', 0x00, 0x00, 0x01, 0x00, 't', 'w', 'o'},
		},
		err: io.EOF,
	},
	{
		name: "sequence end terminates final picture",
		input: []byte{
			0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e',
			0x00, 0x00, 0x01, 0x00, 't', 'w', 'o',
			0x00, 0x00, 0x01, 0xb7,
		},
		want: [][]byte{
			{0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e'},
			{0x00, 0x00, 0x01, 0x00, 't', 'w', 'o', 0x00, 0x00, 0x01, 0xb7},
		},
		err: io.EOF,
	},
	{
		name: "slices are not boundaries",
		input: []byte{
			0x00, 0x00, 0x01, 0x00, 'h',
			0x00, 0x00, 0x01, 0x01, 's', '1',
			0x00, 0x00, 0x01, 0x02, 's', '2',
			0x00, 0x00, 0x01, 0x00, 'h',
		},
		want: [][]byte{
			{0x00, 0x00, 0x01, 0x00, 'h', 0x00, 0x00, 0x01, 0x01, 's', '1', 0x00, 0x00, 0x01, 0x02, 's', '2'},
			{0x00, 0x00, 0x01, 0x00, 'h'},
		},
		err: io.EOF,
	},
	{
		name: "delayed",
		input: []byte{
			0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e',
			0x00, 0x00, 0x01, 0x00, 't', 'w', 'o',
		},
		delay: time.Millisecond,
		want: [][]byte{
			{0x00, 0x00, 0x01, 0x00, 'o', 'n', 'e'},
			{0x00, 0x00, 0x01, 0x00, 't', 'w', 'o'},
		},
		err: io.EOF,
	},
}

func TestLex(t *testing.T) {
	for _, test := range mpeg2Tests {
		var buf chunkEncoder
		err := Lex(&buf, bytes.NewReader(test.input), test.delay)
		if fmt.Sprint(err) != fmt.Sprint(test.err) {
			t.Errorf("unexpected error for %q: got:%v want:%v", test.name, err, test.err)
		}
		got := [][]byte(buf)
		if len(got) == 0 && len(test.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("unexpected result for %q:\ngot :%#v\nwant:%#v", test.name, got, test.want)
		}
	}
}

type chunkEncoder [][]byte

func (e *chunkEncoder) Write(b []byte) (int, error) {
	*e = append(*e, append([]byte(nil), b...))
	return len(b), nil
}
