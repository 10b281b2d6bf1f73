package charcard

import (
	"errors"
	"regexp"
	"strings"
)

var (
	base64Run = regexp.MustCompile(`[A-Za-z0-9+/]{100,}={0,2}`)

	errNoCardMarker = errors.New("charcard: decoded blob has no card marker")
)

func hasCardMarker(text string) bool {
	return strings.Contains(text, `"name"`) ||
		strings.Contains(text, `"char_name"`) ||
		strings.Contains(text, "chara_card")
}

func (e *Extractor) searchBase64Blobs(data []byte, a *Attempt) (Payload, bool) {
	text := decodeUTF8(data)
	for _, loc := range base64Run.FindAllStringIndex(text, -1) {
		a.Candidates++
		raw, err := decodeBase64(text[loc[0]:loc[1]])
		if err != nil {
			e.skip(a, loc[0], err)
			continue
		}
		decoded := decodeUTF8(raw)
		if !hasCardMarker(decoded) {
			e.skip(a, loc[0], errNoCardMarker)
			continue
		}
		payload, err := parseObject(decoded)
		if err != nil {
			e.skip(a, loc[0], err)
			continue
		}
		return payload, true
	}
	return nil, false
}
