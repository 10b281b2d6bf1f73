package card

import (
	"strconv"
	"strings"

	"github.com/autobrr/go-charcard/internal/charcard"
)

type Version int

const (
	V1 Version = iota + 1
	V2
	V3
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	}
	return "Unknown"
}

func DetectVersion(p charcard.Payload) Version {
	spec, _ := p["spec"].(string)
	switch spec {
	case "chara_card_v3":
		return V3
	case "chara_card_v2":
		return V2
	}
	switch sv := p["spec_version"].(type) {
	case string:
		if strings.HasPrefix(sv, "3") {
			return V3
		}
	case float64:
		if sv >= 3 {
			return V3
		}
	}
	if _, ok := p["data"].(map[string]any); ok {
		return V2
	}
	return V1
}

// ExportKeywords lists the tEXt keywords a card is written under: chara
// always, ccv3 as well for v3 cards.
func ExportKeywords(c Card) []string {
	if c.Version == V3 {
		return []string{charcard.DefaultKeyword, "ccv3"}
	}
	return []string{charcard.DefaultKeyword}
}

// body returns the object holding the card fields.
func body(p charcard.Payload) map[string]any {
	if data, ok := p["data"].(map[string]any); ok {
		return data
	}
	return p
}

func lookupString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Summary lists display fields for the card, skipping empty ones.
func Summary(c Card) []charcard.Field {
	b := body(c.Payload)
	fields := []charcard.Field{
		{Name: "Source", Value: c.Source},
		{Name: "Version", Value: c.Version.String()},
	}
	if c.Strategy != "" {
		fields = append(fields, charcard.Field{Name: "Found via", Value: string(c.Strategy)})
	}
	add := func(name string, keys ...string) {
		if v := lookupString(b, keys...); v != "" {
			fields = append(fields, charcard.Field{Name: name, Value: oneLine(v)})
		}
	}
	add("Name", "name", "char_name")
	add("Description", "description", "char_persona")
	add("Personality", "personality")
	add("Scenario", "scenario", "world_scenario")
	add("First message", "first_mes", "char_greeting")
	add("Example messages", "mes_example", "example_dialogue")
	add("Creator", "creator")
	add("Character version", "character_version")
	if tags := stringList(b["tags"]); len(tags) > 0 {
		fields = append(fields, charcard.Field{Name: "Tags", Value: strings.Join(tags, " / ")})
	}
	if greetings, ok := b["alternate_greetings"].([]any); ok && len(greetings) > 0 {
		fields = append(fields, charcard.Field{Name: "Alternate greetings", Value: strconv.Itoa(len(greetings))})
	}
	return fields
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

const summaryWidth = 80

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > summaryWidth {
		return string(r[:summaryWidth-3]) + "..."
	}
	return s
}
