package charcard

import (
	"encoding/binary"
	"fmt"
)

var cardKeywords = map[string]bool{
	"chara":   true,
	"ccv3":    true,
	"ccv2":    true,
	"Comment": true,
}

type textCandidate struct {
	offset  int
	keyword string
	payload []byte
}

// nextTextChunk searches byte by byte from start for a position whose
// bytes 4..8 read "tEXt". Producers that emit broken framing still get
// their text chunks found. next is the position to resume from.
func nextTextChunk(data []byte, start int) (textCandidate, int, bool) {
	for pos := start; pos+8 <= len(data); pos++ {
		if data[pos+4] != 't' || data[pos+5] != 'E' || data[pos+6] != 'X' || data[pos+7] != 't' {
			continue
		}
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		dataStart := pos + 8
		dataEnd := dataStart + length
		if dataEnd > len(data) || dataEnd < dataStart {
			dataEnd = len(data)
		}
		next := dataEnd + 4
		if next <= pos {
			next = pos + 1
		}
		c := textCandidate{offset: pos}
		keyword, payload, ok := splitKeyword(data[dataStart:dataEnd])
		if ok {
			c.keyword = keyword
			c.payload = payload
		}
		return c, next, true
	}
	return textCandidate{}, len(data), false
}

func (e *Extractor) scanTextChunks(data []byte, a *Attempt) (Payload, bool) {
	pos := len(pngSignature)
	for {
		c, next, ok := nextTextChunk(data, pos)
		if !ok {
			return nil, false
		}
		pos = next
		if !cardKeywords[c.keyword] {
			continue
		}
		a.Candidates++
		payload, err := parseTextPayload(decodeUTF8(c.payload))
		if err != nil {
			e.skip(a, c.offset, fmt.Errorf("keyword %q: %w", c.keyword, err))
			continue
		}
		return payload, true
	}
}
