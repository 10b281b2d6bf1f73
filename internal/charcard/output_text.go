package charcard

import (
	"bytes"
	"strings"
)

func RenderText(reports []Report) string {
	var buf bytes.Buffer
	for i, report := range reports {
		if i > 0 {
			buf.WriteString("\n")
		}
		writeSection(&buf, report.General)
		for _, chunk := range report.Chunks {
			buf.WriteString("\n")
			writeSection(&buf, chunk)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, s Section) {
	buf.WriteString(s.Title)
	buf.WriteString("\n")
	writeFields(buf, s.Fields)
}

func writeFields(buf *bytes.Buffer, fields []Field) {
	for _, field := range fields {
		buf.WriteString(padRight(field.Name, 24))
		buf.WriteString(": ")
		buf.WriteString(field.Value)
		buf.WriteString("\n")
	}
}

// RenderFields renders one aligned "Name : Value" block without a title.
func RenderFields(fields []Field) string {
	var buf bytes.Buffer
	writeFields(&buf, fields)
	return strings.TrimRight(buf.String(), "\n")
}

func padRight(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return value + strings.Repeat(" ", width-len(value))
}
