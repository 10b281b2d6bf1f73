package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autobrr/go-charcard/internal/card"
	"github.com/autobrr/go-charcard/internal/charcard"
)

var errSomeFailed = errors.New("one or more files had no readable character data")

func runExtract(e *env, args []string) error {
	var format, outPath string
	var compact bool

	fs := newSubFlags("extract")
	fs.StringVarP(&format, "format", "f", e.cfg.Output.Format, "output format: json, yaml or text")
	fs.BoolVar(&compact, "compact", false, "print JSON on one line")
	fs.StringVarP(&outPath, "output", "o", "", "write to this file instead of stdout")
	if err := parseSubFlags(e, fs, args, "[flags] FILE..."); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return usageErrorf("extract: at least one FILE is required")
	}
	switch format {
	case "json", "yaml", "text":
	default:
		return usageErrorf("extract: unknown format %q", format)
	}

	indent := 0
	if e.cfg.Output.Indent != nil {
		indent = *e.cfg.Output.Indent
	}
	if compact {
		indent = 0
	}

	loader := card.Loader{Extractor: e.extractor}
	cards := make([]card.Card, 0, len(paths))
	failed := false
	for _, path := range paths {
		c, err := loader.Load(path)
		if err != nil {
			failed = true
			if errors.Is(err, charcard.ErrNotFound) {
				fmt.Fprintf(e.stderr, "%s: no character data found in this image\n", path)
			} else {
				fmt.Fprintf(e.stderr, "%s: %v\n", path, err)
			}
			continue
		}
		e.log.Info().Str("file", path).Str("version", c.Version.String()).Msg("Loaded character card")
		cards = append(cards, c)
	}

	if len(cards) > 0 {
		out, err := renderCards(cards, format, indent)
		if err != nil {
			return err
		}
		if err := writeOutput(e, outPath, out); err != nil {
			return err
		}
	}
	if failed {
		return errSomeFailed
	}
	return nil
}

func renderCards(cards []card.Card, format string, indent int) (string, error) {
	switch format {
	case "yaml":
		var buf bytes.Buffer
		for i, c := range cards {
			if i > 0 {
				buf.WriteString("---\n")
			}
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any(c.Payload)); err != nil {
				return "", fmt.Errorf("%s: encode yaml: %w", c.Source, err)
			}
			if err := enc.Close(); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	case "text":
		blocks := make([]string, 0, len(cards))
		for _, c := range cards {
			blocks = append(blocks, charcard.RenderFields(card.Summary(c)))
		}
		return strings.Join(blocks, "\n\n"), nil
	}

	var value any
	if len(cards) == 1 {
		value = cards[0].Payload
	} else {
		list := make([]charcard.Payload, 0, len(cards))
		for _, c := range cards {
			list = append(list, c.Payload)
		}
		value = list
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return buf.String(), nil
}
