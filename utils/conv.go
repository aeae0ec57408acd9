package utils

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeString converts raw file bytes into a Go string.
// Invalid UTF-8 sequences are replaced rather than rejected.
func DecodeString(bs []byte, enc encoding.Encoding) (string, error) {
	if enc == nil || enc == unicode.UTF8 {
		if utf8.Valid(bs) {
			return string(bs), nil
		}
		enc = unicode.UTF8
	}
	s, _, err := transform.Bytes(enc.NewDecoder(), bs)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode string %q", DumpToOneLineString(bs))
	}
	return string(s), nil
}

func EncodeString(s string, enc encoding.Encoding) ([]byte, error) {
	if enc == nil || enc == unicode.UTF8 {
		return []byte(s), nil
	}
	bs, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode string %q", s)
	}
	return bs, nil
}
