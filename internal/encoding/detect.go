// Package encoding turns uploaded text of unknown charset into UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	textenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

const (
	CharsetUTF8    = "UTF-8"
	CharsetUTF16LE = "UTF-16LE"
	CharsetUTF16BE = "UTF-16BE"
	// CharsetFallback is assumed when nothing better can be detected. Most
	// spreadsheet exports that are not UTF-8 use it.
	CharsetFallback = "windows-1252"
)

var boms = []struct {
	prefix  []byte
	charset string
	enc     textenc.Encoding
}{
	{[]byte{0xEF, 0xBB, 0xBF}, CharsetUTF8, nil},
	{[]byte{0xFF, 0xFE}, CharsetUTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{[]byte{0xFE, 0xFF}, CharsetUTF16BE, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// decoders maps chardet charset names onto decoders. Names missing here fall
// back to CharsetFallback.
var decoders = map[string]textenc.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
}

// Reader yields UTF-8 text and records which charset the source was read as.
type Reader struct {
	io.Reader
	Charset string
}

// NewUTF8Reader sniffs the start of r and returns a reader decoding it to
// UTF-8. A byte order mark wins, then UTF-8 validity, then chardet's best
// guess. A UTF-8 BOM is stripped.
func NewUTF8Reader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, bom := range boms {
		if !bytes.HasPrefix(head, bom.prefix) {
			continue
		}

		if bom.enc == nil {
			_, _ = br.Discard(len(bom.prefix))
			return &Reader{Reader: br, Charset: bom.charset}, nil
		}

		return &Reader{Reader: transform.NewReader(br, bom.enc.NewDecoder()), Charset: bom.charset}, nil
	}

	if validUTF8Prefix(head) {
		return &Reader{Reader: br, Charset: CharsetUTF8}, nil
	}

	charset := CharsetFallback

	if result, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if result.Charset == CharsetUTF8 {
			return &Reader{Reader: br, Charset: CharsetUTF8}, nil
		}

		if _, ok := decoders[result.Charset]; ok {
			charset = result.Charset
		}
	}

	dec := charmap.Windows1252.NewDecoder()
	if enc, ok := decoders[charset]; ok {
		dec = enc.NewDecoder()
	}

	return &Reader{Reader: transform.NewReader(br, dec), Charset: charset}, nil
}

// validUTF8Prefix is utf8.Valid that tolerates a multi-byte sequence cut off
// by the sniff window.
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		tail := b[len(b)-cut:]
		if utf8.Valid(b[:len(b)-cut]) && !utf8.FullRune(tail) {
			return true
		}
	}

	return false
}
