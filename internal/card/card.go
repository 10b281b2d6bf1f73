// Package card loads character cards from JSON or PNG files and works out
// which schema generation they follow. The recovered payload is never
// rewritten here; callers decide how to map fields per version.
package card

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/autobrr/go-charcard/internal/charcard"
)

var ErrUnsupported = errors.New("card: unsupported file type")

// ReadError reports that the card file itself could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Card is a payload plus where it came from.
type Card struct {
	Source  string
	Payload charcard.Payload
	Version Version
	// Avatar is set for PNG sources: the image doubles as the avatar even
	// when no card data was recovered from it.
	Avatar bool
	// Strategy names the extraction strategy for PNG sources.
	Strategy charcard.Strategy
}

type Loader struct {
	Extractor *charcard.Extractor
}

func Load(path string) (Card, error) {
	return Loader{}.Load(path)
}

func (l Loader) Load(path string) (Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Card{}, &ReadError{Path: path, Err: err}
	}
	return l.Decode(path, data)
}

// Decode parses already-read bytes, routing on the extension of name.
func (l Loader) Decode(name string, data []byte) (Card, error) {
	c := Card{Source: name}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		payload, err := ParseJSON(data)
		if err != nil {
			return c, err
		}
		c.Payload = payload
	case ".json5":
		payload, err := parseJSON5(data)
		if err != nil {
			return c, err
		}
		c.Payload = payload
	case ".png":
		c.Avatar = true
		extract := charcard.ExtractDetailed
		if l.Extractor != nil {
			extract = l.Extractor.ExtractDetailed
		}
		res, err := extract(data)
		if err != nil {
			return c, err
		}
		c.Payload = res.Payload
		c.Strategy = res.Strategy
	default:
		return c, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(name))
	}
	c.Version = DetectVersion(c.Payload)
	return c, nil
}

// ParseJSON accepts plain JSON as well as JSON with comments and trailing
// commas. The top-level value must be an object.
func ParseJSON(data []byte) (charcard.Payload, error) {
	var payload charcard.Payload
	if err := json.Unmarshal(jsonc.ToJSON(data), &payload); err != nil {
		return nil, fmt.Errorf("card: parse json: %w", err)
	}
	if payload == nil {
		return nil, errors.New("card: parse json: not an object")
	}
	return payload, nil
}

func parseJSON5(data []byte) (charcard.Payload, error) {
	var payload charcard.Payload
	if err := json5.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("card: parse json5: %w", err)
	}
	if payload == nil {
		return nil, errors.New("card: parse json5: not an object")
	}
	return payload, nil
}
