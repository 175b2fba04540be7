package extract

import (
	"fmt"
	"regexp"
	"strings"

	"hicd.com/records/clinical"
	"hicd.com/records/types"
	"hicd.com/records/utils"
)

const evolutionAreaMarker = "areaHistEvol"

var (
	txtViewPattern   = regexp.MustCompile(`(?is)id\s*=\s*["']?txtView["']?[^>]*>(.*)`)
	dateLinePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
	summaryMaxLen    = 200
	subactivityLabel = "Sub-Atividade:"
)

// Evolutions reads a patient's evolution history page. Each areaHistEvol
// block becomes one note; blocks without an evolution date are discarded.
// analyzer may be nil, in which case notes carry no structured reading.
func Evolutions(doc types.RawDocument, analyzer *clinical.Analyzer) []types.Evolution {
	chunks := strings.Split(doc.Body, evolutionAreaMarker)
	if len(chunks) < 2 {
		extractLog.Warn().Str("patient", doc.PatientID).Msg("No evolution blocks found, trying plain text scan")
		return evolutionsFromText(doc, analyzer)
	}

	var evolutions []types.Evolution
	for _, chunk := range chunks[1:] {
		evo, ok := evolutionFromChunk(chunk, doc.PatientID, analyzer)
		if !ok {
			continue
		}
		evolutions = append(evolutions, evo)
	}

	if len(evolutions) == 0 {
		extractLog.Error().Str("patient", doc.PatientID).Msg("Evolution page yielded no valid notes")
	}
	return evolutions
}

func evolutionFromChunk(chunk, patientID string, analyzer *clinical.Analyzer) (types.Evolution, bool) {
	header := chunk
	body := ""
	if m := txtViewPattern.FindStringSubmatchIndex(chunk); m != nil {
		header = chunk[:m[0]]
		body = Textify(chunk[m[2]:])
	}

	lines := textLines(header)
	evo := types.Evolution{
		PatientID:     patientID,
		Professional:  labelValue(lines, "Profissional:"),
		Activity:      labelValue(lines, "Atividade:"),
		EvolutionDate: labelValue(lines, "Data Evolução:"),
		UpdatedDate:   labelValue(lines, "Data de Atualização:"),
		WardBed:       firstNonEmpty(labelValue(lines, "Clinica / Leito:"), labelValue(lines, "Clínica/Leito:")),
		Body:          body,
	}

	if idx := strings.Index(evo.Activity, subactivityLabel); idx >= 0 {
		evo.Subactivity = strings.TrimSpace(evo.Activity[idx+len(subactivityLabel):])
		evo.Activity = strings.TrimSpace(evo.Activity[:idx])
	}

	if evo.Body == "" {
		evo.Body = labelValue(lines, "Descrição:")
	}
	if evo.EvolutionDate == "" {
		return types.Evolution{}, false
	}

	finishEvolution(&evo, analyzer)
	return evo, true
}

// evolutionsFromText handles pages that lost their block markup: any line
// starting with a date opens a new note and the following lines are its body
// until the next date line.
func evolutionsFromText(doc types.RawDocument, analyzer *clinical.Analyzer) []types.Evolution {
	var evolutions []types.Evolution
	var current *types.Evolution
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.Join(body, "\n")
		finishEvolution(current, analyzer)
		evolutions = append(evolutions, *current)
		current = nil
		body = nil
	}

	for _, line := range textLines(doc.Body) {
		if dateLinePattern.MatchString(line) {
			flush()
			date := dateLinePattern.FindString(line)
			current = &types.Evolution{
				PatientID:     doc.PatientID,
				EvolutionDate: date,
				Professional:  strings.TrimSpace(strings.TrimPrefix(line, date)),
			}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return evolutions
}

func finishEvolution(evo *types.Evolution, analyzer *clinical.Analyzer) {
	evo.ID = fmt.Sprintf("%x", utils.HashString(evo.PatientID+"|"+evo.EvolutionDate+"|"+evo.Professional))
	evo.Summary = summarize(evo.Body)
	if analyzer != nil {
		data := analyzer.Analyze(evo.Body)
		if !data.IsEmpty() {
			evo.Clinical = &data
		}
	}
}

// summarize keeps the leading significant lines of a note body up to the
// summary cap, cutting at a line boundary when possible.
func summarize(body string) string {
	var picked []string
	total := 0
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if total+len(line) > summaryMaxLen {
			if total == 0 {
				runes := []rune(line)
				if len(runes) > summaryMaxLen {
					runes = runes[:summaryMaxLen]
				}
				return string(runes)
			}
			break
		}
		picked = append(picked, line)
		total += len(line) + 1
	}
	return strings.Join(picked, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
