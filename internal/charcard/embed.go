package charcard

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
)

const DefaultKeyword = "chara"

var ErrNoIEND = errors.New("charcard: PNG has no IEND chunk")

// Embed returns a copy of img with payload stored as base64 JSON in one
// tEXt chunk per keyword, placed before IEND. A tEXt chunk under a
// recognized card keyword is dropped only when its text parses as card
// data; other text, such as an ordinary Comment, is kept.
func Embed(img []byte, payload Payload, keywords ...string) ([]byte, error) {
	if len(keywords) == 0 {
		keywords = []string{DefaultKeyword}
	}
	for _, k := range keywords {
		if k == "" || len(k) > 79 {
			return nil, fmt.Errorf("charcard: invalid tEXt keyword %q", k)
		}
	}
	chunks, err := ReadChunks(img)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[len(chunks)-1].Type != "IEND" {
		return nil, ErrNoIEND
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("charcard: encode payload: %w", err)
	}
	text := base64.StdEncoding.EncodeToString(encoded)

	var out bytes.Buffer
	out.Grow(len(img) + len(keywords)*(len(text)+24))
	out.WriteString(pngSignature)
	for _, c := range chunks {
		if c.Type == "IEND" {
			for _, k := range keywords {
				out.Write(TextChunk(k, text).Bytes())
			}
		}
		if isCardText(c) {
			continue
		}
		out.Write(img[c.Offset : c.Offset+c.Size()])
	}
	return out.Bytes(), nil
}

func isCardText(c Chunk) bool {
	if c.Type != "tEXt" {
		return false
	}
	k, rest, ok := c.TextKeyword()
	if !ok || !cardKeywords[k] {
		return false
	}
	_, err := parseTextPayload(decodeUTF8(rest))
	return err == nil
}

// BlankPNG encodes a fully transparent RGBA image, used when a card is
// exported without an avatar.
func BlankPNG(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("charcard: invalid image size %dx%d", width, height)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, width, height))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
