package extraction

import (
	"strings"

	"creditocr/internal/schema"
)

// BuildInstructions returns the extraction prompt for a business credit
// application under schema s. The prompt embeds the schema's empty JSON
// template so the model answers with exactly that shape.
func BuildInstructions(s *schema.Schema) string {
	var b strings.Builder

	b.WriteString(taskStatement(s))
	b.WriteString("\n\nReturn EXACTLY this JSON:\n\n")
	b.WriteString(s.TemplateJSON())
	b.WriteString(`

Rules:
- Return ONLY the JSON object.
- No markdown, no code fences, no text, no explanation.
- Include every key shown above, even when the value cannot be found.
- If a value cannot be detected or read, use an empty string. Do not omit the key and do not use null.
- Copy values as written on the document. Do not guess or invent values.
- Normalize phone numbers to the form +1 555-555-5555 only when you can read them with confidence; otherwise copy them as written.`)

	for _, f := range s.Fields {
		if f.Kind == schema.KindRecordList {
			b.WriteString("\n- \"" + f.Name + "\" is a list: add one object per entry on the document, or use [] when there are none.")
		}
	}

	return b.String()
}

func taskStatement(s *schema.Schema) string {
	if len(s.Fields) == 1 {
		return "Extract ONLY the " + humanize(s.Fields[0].Name) + " from this credit application."
	}
	return "Extract the business details below from this credit application."
}

// humanize turns "legal_business_name" into "Legal Business Name".
func humanize(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
