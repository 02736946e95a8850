package extract

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// decoders is the ordered chain of fallback encodings tried on raw member
// bytes. Help archives mix UTF-8 and windows-1251 members.
var decoders = []struct {
	name string
	dec  *encoding.Decoder
}{
	{"windows-1251", charmap.Windows1251.NewDecoder()},
	{"iso-8859-1", charmap.ISO8859_1.NewDecoder()},
}

// DecodeContent converts raw member bytes to a string, trying UTF-8 first
// and then each fallback encoding in order. It returns false when nothing
// in the chain produced a usable decoding.
func DecodeContent(content []byte) (string, bool) {
	if len(content) == 0 {
		return "", false
	}
	if utf8.Valid(content) {
		return string(content), true
	}
	for _, d := range decoders {
		out, err := d.dec.Bytes(content)
		if err != nil {
			continue
		}
		return string(out), true
	}
	return "", false
}
