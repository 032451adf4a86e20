// FILE: lixenwraith/logpipe/formatter/serializer.go
package formatter

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
)

// dumper renders values the formatter has no direct conversion for
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// serializer implements format-specific string handling
type serializer struct {
	format string
}

func newSerializer(format string) *serializer {
	return &serializer{format: format}
}

// writeBare writes s without quoting, hex-encoding non-printable runes in txt
func (se *serializer) writeBare(buf *[]byte, s string) {
	switch se.format {
	case "json":
		se.writeString(buf, s)
	case "raw":
		*buf = append(*buf, s...)
	default:
		appendHexEncoded(buf, s)
	}
}

// writeString writes a value string with format-specific quoting and escaping
func (se *serializer) writeString(buf *[]byte, s string) {
	switch se.format {
	case "raw":
		*buf = append(*buf, s...)

	case "json":
		*buf = append(*buf, '"')
		for i := 0; i < len(s); {
			c := s[i]
			if c >= ' ' && c != '"' && c != '\\' && c < 0x7f {
				start := i
				for i < len(s) && s[i] >= ' ' && s[i] != '"' && s[i] != '\\' && s[i] < 0x7f {
					i++
				}
				*buf = append(*buf, s[start:i]...)
				continue
			}
			if c >= utf8.RuneSelf {
				r, size := utf8.DecodeRuneInString(s[i:])
				if r == utf8.RuneError && size == 1 {
					*buf = append(*buf, `�`...)
				} else {
					*buf = append(*buf, s[i:i+size]...)
				}
				i += size
				continue
			}
			switch c {
			case '\\', '"':
				*buf = append(*buf, '\\', c)
			case '\n':
				*buf = append(*buf, '\\', 'n')
			case '\r':
				*buf = append(*buf, '\\', 'r')
			case '\t':
				*buf = append(*buf, '\\', 't')
			case '\b':
				*buf = append(*buf, '\\', 'b')
			case '\f':
				*buf = append(*buf, '\\', 'f')
			default:
				*buf = append(*buf, fmt.Sprintf("\\u%04x", c)...)
			}
			i++
		}
		*buf = append(*buf, '"')

	default:
		var tmp []byte
		appendHexEncoded(&tmp, s)
		if !needsQuotes(string(tmp)) {
			*buf = append(*buf, tmp...)
			return
		}
		*buf = append(*buf, '"')
		for _, b := range tmp {
			if b == '"' || b == '\\' {
				*buf = append(*buf, '\\')
			}
			*buf = append(*buf, b)
		}
		*buf = append(*buf, '"')
	}
}

// writeNil writes a nil value
func (se *serializer) writeNil(buf *[]byte) {
	if se.format == "raw" {
		*buf = append(*buf, "nil"...)
		return
	}
	*buf = append(*buf, "null"...)
}

// writeComplex writes maps, structs and slices
func (se *serializer) writeComplex(buf *[]byte, v any) {
	switch se.format {
	case "raw":
		var b bytes.Buffer
		dumper.Fdump(&b, v)
		*buf = append(*buf, bytes.TrimSpace(b.Bytes())...)

	case "json":
		data, err := json.Marshal(v)
		if err != nil {
			se.writeString(buf, dumper.Sprintf("%+v", v))
			return
		}
		*buf = append(*buf, data...)

	default:
		se.writeString(buf, dumper.Sprintf("%+v", v))
	}
}

// appendHexEncoded copies s, replacing non-printable runes with <hex> of their UTF-8 bytes
func appendHexEncoded(buf *[]byte, s string) {
	for _, r := range s {
		if strconv.IsPrint(r) {
			*buf = utf8.AppendRune(*buf, r)
			continue
		}
		var runeBytes [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeBytes[:], r)
		*buf = append(*buf, '<')
		*buf = append(*buf, hex.EncodeToString(runeBytes[:n])...)
		*buf = append(*buf, '>')
	}
}

// needsQuotes determines if a txt value must be quoted
func needsQuotes(s string) bool {
	if len(s) == 0 {
		return true
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case '"', '\'', '\\', '$', '`', '!', '&', '|', ';',
			'(', ')', '<', '>', '*', '?', '[', ']', '{', '}',
			'~', '#', '%', '=':
			return true
		}
	}
	return false
}
