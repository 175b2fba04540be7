package clinical

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"hicd.com/records/logger"
	"hicd.com/records/types"
)

// minSignificantChars is the noise floor for a list item: fragments with
// fewer letters and digits than this are discarded.
const minSignificantChars = 4

// dosagePattern recognizes the dose token that usually follows a drug name
// when several medications run together on one line.
var dosagePattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*(?:mg/kg|mcg/kg|ml/h|mg|mcg|g|ml|mL|UI|%|gotas|gts|comp|amp)\b`)

// runOnStartPattern marks candidate item boundaries: a capitalized word
// after whitespace.
var runOnStartPattern = regexp.MustCompile(`\s([A-ZÀ-Ü][A-Za-zÀ-ü]+)`)

type compiledVital struct {
	field    string
	patterns []*regexp.Regexp
}

// Analyzer extracts structured clinical data from the free text of an
// evolution note. Analyze never fails; text that matches nothing yields an
// empty result.
type Analyzer struct {
	scanner *Scanner
	vitals  []compiledVital
	log     zerolog.Logger
}

func NewAnalyzer(defs Definitions) (*Analyzer, error) {
	a := &Analyzer{
		scanner: NewScanner(defs.Sections),
		log:     logger.NewLogger("ClinicalAnalyzer"),
	}

	for _, def := range defs.Vitals {
		cv := compiledVital{field: def.Field}
		for _, p := range def.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("vital %s pattern %q: %w", def.Field, p, err)
			}
			cv.patterns = append(cv.patterns, re)
		}
		a.vitals = append(a.vitals, cv)
	}

	return a, nil
}

func (a *Analyzer) Analyze(text string) types.ClinicalData {
	var data types.ClinicalData
	if strings.TrimSpace(text) == "" {
		return data
	}

	for _, seg := range a.scanner.Scan(text) {
		items := a.splitItems(seg.Body)
		switch seg.Key {
		case SectionDiagnosticHypotheses:
			data.DiagnosticHypotheses = append(data.DiagnosticHypotheses, items...)
		case SectionCurrentMedications:
			data.CurrentMedications = append(data.CurrentMedications, items...)
		case SectionPriorMedications:
			data.PriorMedications = append(data.PriorMedications, items...)
		case SectionExams:
			data.Exams = append(data.Exams, items...)
		case SectionProcedures:
			data.Procedures = append(data.Procedures, items...)
		default:
			a.log.Warn().Str("section", seg.Key).Msg("Segment matched an unmapped section key")
		}
	}

	data.VitalSigns = a.extractVitals(text)

	return data
}

// splitItems turns a segment body into list items. Newlines are the primary
// separator; a single line holding several entries is split again before
// each capitalized word that is shortly followed by a dosage token.
func (a *Analyzer) splitItems(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		for _, piece := range splitRunOn(line) {
			item := strings.Trim(piece, " \t-•;,.")
			if countSignificant(item) < minSignificantChars {
				continue
			}
			if a.scanner.startsWithLabel(item) {
				continue
			}
			items = append(items, item)
		}
	}
	return items
}

// runOnWindow is how far past a capitalized word the dosage token may sit
// for the word to count as the start of a new medication entry.
const runOnWindow = 40

func splitRunOn(line string) []string {
	matches := runOnStartPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return []string{line}
	}

	var cuts []int
	for _, m := range matches {
		wordStart := m[2]
		rest := line[m[3]:]
		if len(rest) > runOnWindow {
			rest = rest[:runOnWindow]
		}
		if dosageFollows(rest) {
			cuts = append(cuts, wordStart)
		}
	}
	if len(cuts) == 0 {
		return []string{line}
	}

	var pieces []string
	prev := 0
	for _, cut := range cuts {
		if cut > prev {
			pieces = append(pieces, line[prev:cut])
		}
		prev = cut
	}
	pieces = append(pieces, line[prev:])
	return pieces
}

func dosageFollows(rest string) bool {
	trimmed := strings.TrimLeft(rest, " \t")
	return dosagePattern.MatchString(trimmed)
}

func countSignificant(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func (a *Analyzer) extractVitals(text string) types.VitalSigns {
	var vitals types.VitalSigns
	for _, cv := range a.vitals {
		for _, re := range cv.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil || len(m) < 2 {
				continue
			}
			value := strings.TrimSpace(m[1])
			switch cv.field {
			case VitalWeight:
				vitals.Weight = value
			case VitalMAP:
				vitals.MAP = value
			case VitalHeartRate:
				vitals.HeartRate = value
			case VitalRespRate:
				vitals.RespRate = value
			case VitalTemperature:
				vitals.Temperature = value
			case VitalO2Saturation:
				vitals.O2Saturation = value
			}
			break
		}
	}
	return vitals
}
