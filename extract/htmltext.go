package extract

import (
	"html"
	"regexp"
	"strings"
)

var (
	brPattern       = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEndPattern = regexp.MustCompile(`(?i)</(?:p|div|tr|td|li|table|fieldset|option|select|h[1-6]|legend|label|font)>`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	danglingTag     = regexp.MustCompile(`(?s)<[^>]*$`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern = regexp.MustCompile(`[ \t]+`)

	// labelLikePattern matches lines that are themselves a field label
	// ("Data Evolução:"), as opposed to values that merely contain a colon
	// ("01/02/2024 10:30").
	labelLikePattern = regexp.MustCompile(`^[\p{L}][\p{L}\s./]*:`)
)

// Textify flattens portal markup into plain text. Line breaks and
// block-level closers become newlines so a table row or paragraph lands on
// its own line; everything else is stripped and entities decoded. The portal
// emits malformed, unclosed markup, so this works on the raw byte stream
// instead of a parsed tree.
func Textify(markup string) string {
	text := strings.ReplaceAll(markup, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = brPattern.ReplaceAllString(text, "\n")
	text = blockEndPattern.ReplaceAllString(text, "\n")
	text = tagPattern.ReplaceAllString(text, " ")
	text = danglingTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, " ", " ")
	text = spaceRunPattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// textLines returns the non-empty lines of the flattened markup.
func textLines(markup string) []string {
	var out []string
	for _, line := range strings.Split(Textify(markup), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// labelValue scans lines for a label prefix and returns the rest of that
// line, or the next non-empty line when the label stands alone. exclude
// guards short labels against longer ones sharing the prefix ("Nome:" must
// not take "Nome da mãe:" lines).
func labelValue(lines []string, label string, exclude ...string) string {
	for i, line := range lines {
		if !strings.HasPrefix(line, label) {
			continue
		}
		excluded := false
		for _, ex := range exclude {
			if strings.HasPrefix(line, ex) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		value := strings.TrimSpace(line[len(label):])
		if value != "" {
			return value
		}
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !labelLikePattern.MatchString(next) {
				return next
			}
		}
		return ""
	}
	return ""
}

// hiddenInputValue pulls the value attribute of an input with the given id
// or name.
func hiddenInputValue(markup, id string) string {
	re := regexp.MustCompile(`(?is)<input[^>]*(?:id|name)\s*=\s*["']` + regexp.QuoteMeta(id) + `["'][^>]*>`)
	tag := re.FindString(markup)
	if tag == "" {
		return ""
	}
	valueRe := regexp.MustCompile(`(?i)value\s*=\s*["']([^"']*)["']`)
	m := valueRe.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
