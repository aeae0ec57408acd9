package config

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const DefaultEncoding = "UTF-8"

// FindEncoding resolves "UTF-8" or the name of any single byte charmap,
// e.g. "Windows 1252".
func FindEncoding(name string) (encoding.Encoding, error) {
	if name == "" || name == DefaultEncoding {
		return unicode.UTF8, nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				return cm, nil
			}
		}
	}
	return nil, errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := []string{DefaultEncoding}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}
