package charcard

import (
	"bytes"
	"encoding/json"
)

type jsonKV struct {
	Key string
	Val string
}

type jsonReportOut struct {
	Ref      string
	General  []jsonKV
	Chunks   [][]jsonKV
	Strategy string
	Card     Payload
}

func RenderJSON(reports []Report) string {
	if len(reports) == 1 {
		return renderJSONReport(buildJSONReport(reports[0]))
	}
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, report := range reports {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.WriteString(renderJSONReport(buildJSONReport(report)))
	}
	buf.WriteString("\n]")
	return buf.String()
}

func buildJSONReport(report Report) jsonReportOut {
	out := jsonReportOut{Ref: report.Ref, General: fieldsToKV(report.General.Fields)}
	for _, c := range report.Chunks {
		out.Chunks = append(out.Chunks, fieldsToKV(c.Fields))
	}
	if report.Card != nil {
		out.Strategy = string(report.Card.Strategy)
		out.Card = report.Card.Payload
	}
	return out
}

func fieldsToKV(fields []Field) []jsonKV {
	out := make([]jsonKV, 0, len(fields))
	for _, f := range fields {
		out = append(out, jsonKV{Key: f.Name, Val: f.Value})
	}
	return out
}

// Objects keep field order, so they are written by hand rather than
// through a map.
func renderJSONReport(r jsonReportOut) string {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	writeJSONField(&buf, "ref", jsonString(r.Ref))
	buf.WriteString(",\n")
	writeJSONField(&buf, "general", renderJSONObject(r.General, "    "))
	buf.WriteString(",\n")
	buf.WriteString(`  "chunks": [`)
	for i, c := range r.Chunks {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		buf.WriteString(renderJSONObject(c, "      "))
	}
	if len(r.Chunks) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("]")
	if r.Card != nil {
		buf.WriteString(",\n")
		writeJSONField(&buf, "strategy", jsonString(r.Strategy))
		buf.WriteString(",\n")
		card, err := json.Marshal(r.Card)
		if err != nil {
			card = []byte("null")
		}
		writeJSONField(&buf, "card", string(card))
	}
	buf.WriteString("\n}")
	return buf.String()
}

func writeJSONField(buf *bytes.Buffer, key, value string) {
	buf.WriteString("  ")
	buf.WriteString(jsonString(key))
	buf.WriteString(": ")
	buf.WriteString(value)
}

func renderJSONObject(fields []jsonKV, indent string) string {
	if len(fields) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, kv := range fields {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
		buf.WriteString(indent)
		buf.WriteString(jsonString(kv.Key))
		buf.WriteString(": ")
		buf.WriteString(jsonString(kv.Val))
	}
	buf.WriteString("\n")
	buf.WriteString(indent[:len(indent)-2])
	buf.WriteString("}")
	return buf.String()
}

func jsonString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(encoded)
}
