package charcard

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

var errNotObject = errors.New("charcard: JSON value is not an object")

// decodeUTF8 never fails: each maximal invalid subsequence becomes one
// U+FFFD, the way browser text decoders replace them.
func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data) + 16)
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			size = invalidPrefix(data)
		} else {
			b.Write(data[:size])
		}
		data = data[size:]
	}
	return b.String()
}

// invalidPrefix returns the length of the truncated sequence at the start
// of p: the lead byte plus whatever continuation bytes could still have
// completed it. data[0] is known not to start a valid rune.
func invalidPrefix(p []byte) int {
	lo, hi, need := byte(0x80), byte(0xBF), 0
	switch b := p[0]; {
	case b >= 0xC2 && b <= 0xDF:
		need = 1
	case b == 0xE0:
		lo, need = 0xA0, 2
	case b == 0xED:
		hi, need = 0x9F, 2
	case b >= 0xE1 && b <= 0xEF:
		need = 2
	case b == 0xF0:
		lo, need = 0x90, 3
	case b == 0xF4:
		hi, need = 0x8F, 3
	case b >= 0xF1 && b <= 0xF3:
		need = 3
	}
	n := 1
	for ; n <= need && n < len(p); n++ {
		if p[n] < lo || p[n] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return n
}

// decodeBase64 accepts padded or unpadded standard base64 and ignores
// ASCII whitespace. Padding is only stripped from input whose length is a
// multiple of four, and never more than two characters of it.
func decodeBase64(text string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, text)
	if len(cleaned)%4 == 0 {
		cleaned = strings.TrimSuffix(cleaned, "=")
		cleaned = strings.TrimSuffix(cleaned, "=")
	}
	return base64.RawStdEncoding.DecodeString(cleaned)
}

func parseObject(text string) (Payload, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return Payload(obj), nil
}

// parseTextPayload tries base64-wrapped JSON first, then the text itself.
func parseTextPayload(text string) (Payload, error) {
	if raw, err := decodeBase64(text); err == nil {
		if payload, err := parseObject(decodeUTF8(raw)); err == nil {
			return payload, nil
		}
	}
	return parseObject(text)
}
