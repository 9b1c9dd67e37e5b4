package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// TextParser handles plain text (.txt) files. Book files in the wild come in
// UTF-8 with or without BOM, windows-1251, cp866, KOI8-R, or ISO-8859-5; the
// parser sniffs the encoding and decodes to UTF-8.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt"} }

func (p *TextParser) Parse(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return DecodeText(data)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings are tried in order when detection is inconclusive,
// most common first for Russian-language books.
var legacyEncodings = []encoding.Encoding{
	charmap.Windows1251,
	charmap.CodePage866,
	charmap.KOI8R,
	charmap.ISO8859_5,
}

// DecodeText converts raw file bytes to a UTF-8 string, sniffing the
// encoding when the bytes are not already valid UTF-8.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	if enc := detectEncoding(data); enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			return string(decoded), nil
		}
	}

	for _, enc := range legacyEncodings {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		return string(decoded), nil
	}
	return "", fmt.Errorf("undecodable text: no known encoding matched")
}

// detectEncoding maps a chardet guess to a decoder, or nil when the guess
// is missing or unsupported.
func detectEncoding(data []byte) encoding.Encoding {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return nil
	}
	switch strings.ToLower(result.Charset) {
	case "windows-1251":
		return charmap.Windows1251
	case "ibm866", "cp866":
		return charmap.CodePage866
	case "koi8-r":
		return charmap.KOI8R
	case "iso-8859-5":
		return charmap.ISO8859_5
	default:
		return nil
	}
}
