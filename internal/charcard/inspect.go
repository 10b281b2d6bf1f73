package charcard

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"github.com/zeebo/blake3"
)

type Field struct {
	Name  string
	Value string
}

type Section struct {
	Title  string
	Fields []Field
}

func (s *Section) add(name, value string) {
	if value == "" {
		return
	}
	s.Fields = append(s.Fields, Field{Name: name, Value: value})
}

func (s Section) Get(name string) string {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Report describes a file's PNG chunk layout and whether card data was
// recovered from it.
type Report struct {
	Ref     string
	General Section
	Chunks  []Section
	Card    *Result
}

func (e *Extractor) Inspect(ref string, data []byte) Report {
	general := Section{Title: "General"}
	general.add("Complete name", ref)
	general.add("File size", formatBytes(int64(len(data))))

	chunks, err := ReadChunks(data)
	switch {
	case errors.Is(err, ErrNotPNG):
		general.add("Format", "Unknown")
	case err != nil:
		general.add("Format", "PNG")
		general.add("Framing", "Truncated after "+strconv.Itoa(len(chunks))+" chunks")
	default:
		general.add("Format", "PNG")
	}

	if info, ok := parsePNGInfo(chunks); ok {
		general.add("Width", fmt.Sprintf("%d pixels", info.Width))
		general.add("Height", fmt.Sprintf("%d pixels", info.Height))
		general.add("Bit depth", fmt.Sprintf("%d bits", info.BitDepth))
		general.add("Color space", info.ColorSpace)
		if info.Alpha {
			general.add("Alpha", "Yes")
		} else {
			general.add("Alpha", "No")
		}
	}

	sections := make([]Section, 0, len(chunks))
	textCount, badCRC := 0, 0
	for i, c := range chunks {
		s := Section{Title: fmt.Sprintf("Chunk #%d", i+1)}
		s.add("Type", c.Type)
		s.add("Offset", strconv.Itoa(c.Offset))
		s.add("Length", formatBytes(int64(c.Length)))
		if c.CRCValid() {
			s.add("CRC", "OK")
		} else {
			s.add("CRC", "Mismatch")
			badCRC++
		}
		switch c.Type {
		case "tEXt", "zTXt", "iTXt":
			textCount++
			describeTextChunk(&s, c)
		}
		sections = append(sections, s)
	}
	if len(chunks) > 0 {
		general.add("Chunk count", strconv.Itoa(len(chunks)))
		general.add("Text chunks", strconv.Itoa(textCount))
		general.add("CRC errors", strconv.Itoa(badCRC))
	}

	report := Report{Ref: ref, General: general, Chunks: sections}
	res, err := e.ExtractDetailed(data)
	if err != nil {
		report.General.add("Character data", "Not found")
		return report
	}
	report.Card = &res
	report.General.add("Character data", "Found ("+string(res.Strategy)+")")
	if digest, err := PayloadDigest(res.Payload); err == nil {
		report.General.add("Character digest", digest)
	}
	return report
}

func Inspect(ref string, data []byte) Report {
	return defaultExtractor.Inspect(ref, data)
}

func describeTextChunk(s *Section, c Chunk) {
	keyword, rest, ok := c.TextKeyword()
	if !ok {
		s.add("Keyword", "(missing separator)")
		return
	}
	s.add("Keyword", keyword)
	if cardKeywords[keyword] {
		s.add("Card keyword", "Yes")
	}
	switch c.Type {
	case "tEXt":
		s.add("Text length", formatBytes(int64(len(rest))))
	case "zTXt":
		// [method 1][zlib stream]
		if len(rest) < 1 || rest[0] != 0 {
			s.add("Compression", "Unknown")
			return
		}
		s.add("Compression", "Deflate")
		describeInflated(s, rest[1:])
	case "iTXt":
		// [flag 1][method 1][language NUL][translated keyword NUL][text]
		if len(rest) < 2 {
			return
		}
		flag, method := rest[0], rest[1]
		rest = rest[2:]
		for range 2 {
			idx := bytes.IndexByte(rest, 0)
			if idx < 0 {
				return
			}
			rest = rest[idx+1:]
		}
		if flag == 0 {
			s.add("Text length", formatBytes(int64(len(rest))))
			return
		}
		if method != 0 {
			s.add("Compression", "Unknown")
			return
		}
		s.add("Compression", "Deflate")
		describeInflated(s, rest)
	}
}

// maxInflatedSize caps how much of a compressed text chunk is decoded
// when measuring it.
var maxInflatedSize int64 = 64 << 20

func describeInflated(s *Section, data []byte) {
	n, err := inflatedSize(data, maxInflatedSize)
	switch {
	case err != nil:
		s.add("Text length", "Corrupt stream")
	case n > maxInflatedSize:
		s.add("Text length", "More than "+formatBytes(maxInflatedSize))
	default:
		s.add("Text length", formatBytes(n))
	}
}

// inflatedSize counts the decompressed bytes of a zlib stream, stopping
// once more than limit bytes have been produced. Nothing is retained.
func inflatedSize(data []byte, limit int64) (int64, error) {
	z, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer z.Close()
	return io.Copy(io.Discard, io.LimitReader(z, limit+1))
}

// PayloadDigest is the hex BLAKE3-256 of the payload's compact JSON with
// sorted keys. Equal cards produce equal digests regardless of source.
func PayloadDigest(payload Payload) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
