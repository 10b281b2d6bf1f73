// Package charcard recovers character-card JSON embedded in PNG files and
// writes it back. Extraction is best effort: three independent strategies
// run in a fixed order and the first JSON object recovered wins.
package charcard

import (
	"errors"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("charcard: no character data found")

// Payload is a character card in whatever shape it was stored (v1 flat,
// v2 data wrapper, v3 spec/spec_version/data). It is not normalized.
type Payload map[string]any

type Strategy string

const (
	StrategyTextChunk   Strategy = "tEXt chunk"
	StrategyTextPattern Strategy = "text pattern"
	StrategyBase64Blob  Strategy = "base64 blob"
)

// Attempt records how one strategy fared during a single extraction.
type Attempt struct {
	Strategy   Strategy
	Candidates int
	OK         bool
	LastErr    error
}

type Result struct {
	Payload  Payload
	Strategy Strategy
	Attempts []Attempt
}

// Extractor holds only a logger and is safe for concurrent calls.
type Extractor struct {
	Log zerolog.Logger
}

func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{Log: log}
}

var defaultExtractor = &Extractor{Log: zerolog.Nop()}

func Extract(data []byte) (Payload, error) {
	return defaultExtractor.Extract(data)
}

func ExtractDetailed(data []byte) (Result, error) {
	return defaultExtractor.ExtractDetailed(data)
}

func (e *Extractor) Extract(data []byte) (Payload, error) {
	res, err := e.ExtractDetailed(data)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

func (e *Extractor) ExtractDetailed(data []byte) (Result, error) {
	strategies := []struct {
		name Strategy
		run  func([]byte, *Attempt) (Payload, bool)
	}{
		{StrategyTextChunk, e.scanTextChunks},
		{StrategyTextPattern, e.searchTextPatterns},
		{StrategyBase64Blob, e.searchBase64Blobs},
	}

	res := Result{Attempts: make([]Attempt, 0, len(strategies))}
	for _, s := range strategies {
		attempt := Attempt{Strategy: s.name}
		payload, ok := s.run(data, &attempt)
		attempt.OK = ok
		res.Attempts = append(res.Attempts, attempt)
		if ok {
			res.Payload = payload
			res.Strategy = s.name
			e.Log.Debug().
				Str("strategy", string(s.name)).
				Int("candidates", attempt.Candidates).
				Msg("Recovered character payload")
			return res, nil
		}
	}
	return res, ErrNotFound
}

func (e *Extractor) skip(a *Attempt, offset int, err error) {
	a.LastErr = err
	e.Log.Debug().
		Err(err).
		Str("strategy", string(a.Strategy)).
		Int("offset", offset).
		Msg("Skipped candidate")
}
