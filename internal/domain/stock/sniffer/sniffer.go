// Package sniffer provides automatic detection of the text encoding and field
// delimiter of stock export files.
package sniffer

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

const byteOrderMark = "\ufeff"

var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrInvalidUTF8   = errors.New("invalid UTF-8 byte sequence")
	ErrUndecodable   = errors.New("bytes not representable in encoding")
	ErrNoEncodingFit = errors.New("no candidate encoding produced rows")
)

// Encoding is one decoding strategy tried against a whole file.
type Encoding struct {
	Name   string
	Decode func(data []byte) (string, error)
}

// UTF8BOM decodes UTF-8 and drops a leading byte order mark.
var UTF8BOM = Encoding{
	Name: "utf-8-sig",
	Decode: func(data []byte) (string, error) {
		if !utf8.Valid(data) {
			return "", ErrInvalidUTF8
		}
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	},
}

// UTF8 decodes plain UTF-8, keeping any byte order mark in the text.
var UTF8 = Encoding{
	Name: "utf-8",
	Decode: func(data []byte) (string, error) {
		if !utf8.Valid(data) {
			return "", ErrInvalidUTF8
		}
		return string(data), nil
	},
}

// ShiftJIS decodes the Windows code page 932 family used by Japanese
// back-office exports. Bytes with no mapping fail the strategy instead of
// being replaced.
var ShiftJIS = Encoding{
	Name: "cp932",
	Decode: func(data []byte) (string, error) {
		out, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) && !bytes.Contains(data, []byte("\xef\xbf\xbd")) {
			return "", ErrUndecodable
		}
		return string(out), nil
	},
}

// DefaultEncodings is the order in which encodings are tried per file.
var DefaultEncodings = []Encoding{UTF8BOM, UTF8, ShiftJIS}

// DetectDelimiter chooses tab when the line holds at least one tab and no
// more commas than tabs, otherwise comma.
func DetectDelimiter(firstLine string) rune {
	tabs := strings.Count(firstLine, "\t")
	if tabs > 0 && tabs >= strings.Count(firstLine, ",") {
		return '\t'
	}
	return ','
}

// FirstLine returns the first line of decoded text without its line ending.
func FirstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimRight(text, "\r")
}

// StripBOM removes a byte order mark that leaked into a cell or line.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, byteOrderMark)
}

// WithBOM returns s prefixed with a byte order mark.
func WithBOM(s string) string {
	return byteOrderMark + s
}
