package cli

import (
	"fmt"
	"os"

	"github.com/autobrr/go-charcard/internal/card"
	"github.com/autobrr/go-charcard/internal/charcard"
)

func runEmbed(e *env, args []string) error {
	var cardPath, imagePath, outPath string
	var keywords []string

	fs := newSubFlags("embed")
	fs.StringVarP(&cardPath, "card", "c", "", "character card to embed (.json, .json5 or .png)")
	fs.StringVarP(&imagePath, "image", "i", "", "PNG to use as the avatar (default: blank placeholder)")
	fs.StringArrayVarP(&keywords, "keyword", "k", nil, "tEXt keyword to store the card under (repeatable)")
	fs.StringVarP(&outPath, "output", "o", "", "PNG file to write")
	if err := parseSubFlags(e, fs, args, "--card FILE [--image FILE] -o FILE"); err != nil {
		return err
	}
	if cardPath == "" {
		return usageErrorf("embed: --card is required")
	}
	if outPath == "" {
		return usageErrorf("embed: --output is required")
	}
	if fs.NArg() > 0 {
		return usageErrorf("embed: unexpected arguments %v", fs.Args())
	}

	c, err := card.Loader{Extractor: e.extractor}.Load(cardPath)
	if err != nil {
		return fmt.Errorf("%s: %w", cardPath, err)
	}

	var img []byte
	if imagePath != "" {
		img, err = os.ReadFile(imagePath)
		if err != nil {
			return &card.ReadError{Path: imagePath, Err: err}
		}
	} else {
		img, err = charcard.BlankPNG(e.cfg.Embed.Width, e.cfg.Embed.Height)
		if err != nil {
			return err
		}
	}

	if len(keywords) == 0 {
		keywords = e.cfg.Embed.Keywords
	}
	if len(keywords) == 0 {
		keywords = card.ExportKeywords(c)
	}

	out, err := charcard.Embed(img, c.Payload, keywords...)
	if err != nil {
		if imagePath != "" {
			return fmt.Errorf("%s: %w", imagePath, err)
		}
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return err
	}
	e.log.Info().
		Str("card", cardPath).
		Str("output", outPath).
		Strs("keywords", keywords).
		Str("version", c.Version.String()).
		Msg("Embedded character card")
	return nil
}
