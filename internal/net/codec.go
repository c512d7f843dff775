package net

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Codec converts console text between UTF-8 and the session charset.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// NewCodec looks up charset by IANA name ("UTF-8", "Big5", "ISO-8859-1", ...).
func NewCodec(charset string) (*Codec, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return &Codec{name: "UTF-8", enc: unicode.UTF8}, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q: not supported", charset)
	}
	name, _ := ianaindex.IANA.Name(enc)
	if name == "" {
		name = charset
	}
	return &Codec{name: name, enc: enc}, nil
}

func (c *Codec) Name() string { return c.name }

// Encode converts UTF-8 text to the session charset. Characters the charset
// cannot represent are replaced rather than failing the whole line.
func (c *Codec) Encode(s string) []byte {
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		// Fallback: raw bytes (fine for pure ASCII)
		return []byte(s)
	}
	return out
}

// Decode converts session charset bytes to UTF-8.
func (c *Codec) Decode(b []byte) string {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
