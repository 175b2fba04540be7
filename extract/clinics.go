package extract

import (
	"html"
	"regexp"
	"strings"

	"hicd.com/records/logger"
	"hicd.com/records/types"
)

var extractLog = logger.NewLogger("Extract")

var (
	clinicSelectPattern = regexp.MustCompile(`(?is)<select[^>]*(?:id|name)\s*=\s*["']clinica["'][^>]*>(.*?)</select>`)
	optionPattern       = regexp.MustCompile(`(?is)<option[^>]*value\s*=\s*["']?(\d+)["']?[^>]*>(.*?)(?:</option>|$)`)
)

// Clinics reads the ward selector of the portal's main page. The selector's
// placeholder entry (value "0") is skipped. When the page carries no
// recognizable selector the whole document is scanned for option pairs.
func Clinics(doc types.RawDocument) []types.Clinic {
	scope := doc.Body
	if m := clinicSelectPattern.FindStringSubmatch(doc.Body); m != nil {
		scope = m[1]
	} else {
		extractLog.Warn().Msg("Clinic selector not found, scanning whole page for options")
	}

	var clinics []types.Clinic
	for _, m := range optionPattern.FindAllStringSubmatch(scope, -1) {
		code := m[1]
		name := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(m[2], "")))
		if code == "0" || code == "" || name == "" {
			continue
		}
		clinics = append(clinics, types.Clinic{Code: code, Name: name})
	}

	if len(clinics) == 0 {
		extractLog.Error().Str("kind", string(doc.Kind)).Msg("No clinics extracted from page")
	}
	return clinics
}
