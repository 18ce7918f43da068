package plaintext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor decodes text files. Input that is not valid UTF-8 is decoded as CP949,
// the legacy Korean Windows code page.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode cp949: %w", err)
	}
	// The decoder substitutes U+FFFD for byte sequences CP949 cannot map.
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", errors.New("decode cp949: input is neither UTF-8 nor CP949 text")
	}
	return string(decoded), nil
}
