package cli

import (
	"os"

	"github.com/autobrr/go-charcard/internal/card"
	"github.com/autobrr/go-charcard/internal/charcard"
)

func runInspect(e *env, args []string) error {
	var format string

	fs := newSubFlags("inspect")
	fs.StringVarP(&format, "format", "f", "text", "output format: text or json")
	if err := parseSubFlags(e, fs, args, "[flags] FILE..."); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageErrorf("inspect: at least one FILE is required")
	}

	var render func([]charcard.Report) string
	switch format {
	case "text":
		render = charcard.RenderText
	case "json":
		render = charcard.RenderJSON
	default:
		return usageErrorf("inspect: unknown format %q", format)
	}

	reports := make([]charcard.Report, 0, fs.NArg())
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return &card.ReadError{Path: path, Err: err}
		}
		report := e.extractor.Inspect(path, data)
		e.log.Debug().Str("file", path).Int("chunks", len(report.Chunks)).Msg("Inspected file")
		reports = append(reports, report)
	}
	return writeOutput(e, "", render(reports))
}
