package charcard

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

var (
	ErrNotPNG    = errors.New("charcard: missing PNG signature")
	ErrTruncated = errors.New("charcard: truncated PNG chunk")
)

// Chunk is one length/type/data/CRC region of a PNG stream.
type Chunk struct {
	Offset int
	Length uint32
	Type   string
	Data   []byte
	CRC    uint32
}

func (c Chunk) Size() int {
	return 12 + int(c.Length)
}

func (c Chunk) computeCRC() uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(c.Type))
	h.Write(c.Data)
	return h.Sum32()
}

func (c Chunk) CRCValid() bool {
	return c.CRC == c.computeCRC()
}

// Bytes serializes the chunk, recomputing the CRC over type and data.
func (c Chunk) Bytes() []byte {
	out := make([]byte, 0, 12+len(c.Data))
	out = binary.BigEndian.AppendUint32(out, uint32(len(c.Data)))
	out = append(out, c.Type...)
	out = append(out, c.Data...)
	return binary.BigEndian.AppendUint32(out, c.computeCRC())
}

// TextChunk builds a tEXt chunk holding keyword, a NUL separator and text.
func TextChunk(keyword, text string) Chunk {
	data := make([]byte, 0, len(keyword)+1+len(text))
	data = append(data, keyword...)
	data = append(data, 0)
	data = append(data, text...)
	c := Chunk{Length: uint32(len(data)), Type: "tEXt", Data: data}
	c.CRC = c.computeCRC()
	return c
}

// TextKeyword returns the keyword of a tEXt/zTXt/iTXt chunk and the bytes
// following its NUL separator.
func (c Chunk) TextKeyword() (string, []byte, bool) {
	return splitKeyword(c.Data)
}

func splitKeyword(data []byte) (string, []byte, bool) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", nil, false
	}
	return string(data[:idx]), data[idx+1:], true
}

func hasSignature(data []byte) bool {
	return len(data) >= len(pngSignature) && string(data[:len(pngSignature)]) == pngSignature
}

// ReadChunks walks strict chunk framing from the signature up to and
// including IEND. A truncated stream returns the chunks read so far along
// with ErrTruncated.
func ReadChunks(data []byte) ([]Chunk, error) {
	if !hasSignature(data) {
		return nil, ErrNotPNG
	}
	var chunks []Chunk
	pos := len(pngSignature)
	for pos < len(data) {
		if pos+8 > len(data) {
			return chunks, ErrTruncated
		}
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		end := pos + 12 + int(length)
		if end > len(data) || end < pos {
			return chunks, ErrTruncated
		}
		c := Chunk{
			Offset: pos,
			Length: length,
			Type:   string(data[pos+4 : pos+8]),
			Data:   data[pos+8 : pos+8+int(length)],
			CRC:    binary.BigEndian.Uint32(data[end-4 : end]),
		}
		chunks = append(chunks, c)
		pos = end
		if c.Type == "IEND" {
			break
		}
	}
	return chunks, nil
}

type pngInfo struct {
	Width      int
	Height     int
	BitDepth   int
	ColorType  int
	ColorSpace string
	Alpha      bool
}

func parsePNGInfo(chunks []Chunk) (pngInfo, bool) {
	// IHDR must be the first chunk.
	if len(chunks) == 0 || chunks[0].Type != "IHDR" || len(chunks[0].Data) < 13 {
		return pngInfo{}, false
	}
	ihdr := chunks[0].Data
	info := pngInfo{
		Width:     int(binary.BigEndian.Uint32(ihdr[0:4])),
		Height:    int(binary.BigEndian.Uint32(ihdr[4:8])),
		BitDepth:  int(ihdr[8]),
		ColorType: int(ihdr[9]),
	}
	switch ihdr[9] {
	case 0:
		info.ColorSpace = "Y"
	case 4:
		info.ColorSpace = "Y"
		info.Alpha = true
	case 2, 3:
		info.ColorSpace = "RGB"
	case 6:
		info.ColorSpace = "RGB"
		info.Alpha = true
	}
	return info, true
}
