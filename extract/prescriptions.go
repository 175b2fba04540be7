package extract

import (
	"html"
	"regexp"
	"strings"

	"hicd.com/records/types"
)

var (
	prescriptionTablePattern = regexp.MustCompile(`(?is)<table[^>]*class\s*=\s*["'][^"']*linhas_impressao_med[^"']*["'][^>]*>(.*?)</table>`)
	prescriptionIDPattern    = regexp.MustCompile(`id_prescricao=(\d+)`)
	medNamePattern           = regexp.MustCompile(`\[\s*([^\]]+)\]`)
	medRowNumberPattern      = regexp.MustCompile(`^\d+-?$`)
	doubleSpacePattern       = regexp.MustCompile(`\s{2,}`)

	headerPatterns = map[string]*regexp.Regexp{
		"name":      regexp.MustCompile(`NOME\s*:\s*([A-ZÀ-Ü][A-ZÀ-Ü ]*?)\s*(?:REGISTRO/BE:|\n|$)`),
		"register":  regexp.MustCompile(`REGISTRO/BE:\s*(\d+)`),
		"bed":       regexp.MustCompile(`LEITO:\s*(\d+)`),
		"birth":     regexp.MustCompile(`DT\.\s*NASC:\s*(\d{2}/\d{2}/\d{4})`),
		"age":       regexp.MustCompile(`IDADE:\s*([^-\s]+(?:\s+[a-zA-Z]+)?)`),
		"cns":       regexp.MustCompile(`CNS:\s*(\d+)`),
		"weight":    regexp.MustCompile(`PESO:\s*([\d,]+\s*Kg)`),
		"admission": regexp.MustCompile(`INTERNADO\s+EM:\s*(\d{2}/\d{2}/\d{4})`),
		"clinic":    regexp.MustCompile(`CLINICA/SETOR:\s*([^-\n]+?)(?:\s*-|\n|$)`),
		"validFor":  regexp.MustCompile(`válida\s+para\s*(\d{2}/\d{2}/\d{4})`),
	}

	physicianPattern = regexp.MustCompile(`MÉDICO:\s*([^\n]+?)\s*(?:CRM|$)`)
	crmPattern       = regexp.MustCompile(`CRM[:\s]*([A-Z0-9/-]+)`)
	signDatePattern  = regexp.MustCompile(`DATA:\s*(\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2})`)

	noteLinePatterns = []struct {
		kind    string
		pattern *regexp.Regexp
	}{
		{"Diagnóstico", regexp.MustCompile(`DIAGNÓSTICO:\s*(.*?)\s*(?:THT:|\n|$)`)},
		{"THT", regexp.MustCompile(`THT:\s*(.*?)\s*(?:MED:|\n|$)`)},
		{"MED", regexp.MustCompile(`\bMED:\s*(.*?)\s*(?:HV:|\n|$)`)},
		{"HV", regexp.MustCompile(`\bHV:\s*(.*?)\s*(?:DIETA:|\n|$)`)},
		{"DIETA", regexp.MustCompile(`DIETA:\s*(.*?)\s*(?:VM:|\n|$)`)},
		{"VM", regexp.MustCompile(`\bVM:\s*([^\n]*)`)},
		{"Sedação", regexp.MustCompile(`(?i)SEDA[ÇC][ÃA]O:\s*([^\n]+)`)},
		{"Terapia Venosa", regexp.MustCompile(`VENOSA:\s*([^\n]+)`)},
		{"Necessidade", regexp.MustCompile(`NECESSIDADE DE:\s*([^\n]+)`)},
	}

	generalCarePattern = regexp.MustCompile(`(?m)^(\d+\s*-\s*.+)$`)
)

// Prescriptions reads the prescription list page: one summary row per sheet,
// identified by the id_prescricao parameter on the row's print button.
func Prescriptions(doc types.RawDocument) []types.Prescription {
	scope := doc.Body
	if m := prescriptionTablePattern.FindStringSubmatch(doc.Body); m != nil {
		scope = m[1]
	}

	var prescriptions []types.Prescription
	for _, row := range rowPattern.FindAllStringSubmatch(scope, -1) {
		idMatch := prescriptionIDPattern.FindStringSubmatch(row[1])
		if idMatch == nil {
			continue
		}
		cells := cellPattern.FindAllStringSubmatch(row[1], -1)
		if len(cells) < 7 {
			continue
		}
		cell := func(i int) string { return strings.TrimSpace(Textify(cells[i][1])) }
		prescriptions = append(prescriptions, types.Prescription{
			ID:       idMatch[1],
			Code:     cell(0),
			IssuedAt: cell(1),
			Patient: types.PrescriptionPatient{
				Name:     cell(2),
				RecordID: doc.PatientID,
				Register: cell(3),
				Bed:      cell(5),
			},
			Stay: types.PrescriptionStay{
				StayCode: cell(4),
				WardBed:  cell(5),
				Clinic:   cell(6),
			},
		})
	}

	if len(prescriptions) == 0 {
		extractLog.Error().Str("patient", doc.PatientID).Msg("Prescription list page yielded no rows")
	}
	return prescriptions
}

// PrescriptionDetail reads one printed prescription sheet: patient header,
// medication tables (standardized and non-standard), diets, care notes and
// the physician's signature block.
func PrescriptionDetail(doc types.RawDocument, id string) types.Prescription {
	text := Textify(doc.Body)

	p := types.Prescription{
		ID: id,
		Patient: types.PrescriptionPatient{
			Name:      strings.TrimSpace(matchFirst(headerPatterns["name"], text)),
			RecordID:  matchFirst(headerPatterns["register"], text),
			Register:  matchFirst(headerPatterns["register"], text),
			Bed:       matchFirst(headerPatterns["bed"], text),
			BirthDate: matchFirst(headerPatterns["birth"], text),
			Age:       matchFirst(headerPatterns["age"], text),
			CNS:       matchFirst(headerPatterns["cns"], text),
			Weight:    matchFirst(headerPatterns["weight"], text),
		},
		Stay: types.PrescriptionStay{
			Clinic:    strings.TrimSpace(matchFirst(headerPatterns["clinic"], text)),
			Admission: matchFirst(headerPatterns["admission"], text),
		},
		ValidFor: matchFirst(headerPatterns["validFor"], text),
	}
	if p.Patient.RecordID == "" && doc.PatientID != "" {
		p.Patient.RecordID = doc.PatientID
	}
	p.IssuedAt = p.ValidFor

	extractMedications(doc.Body, &p)
	extractDiets(doc.Body, &p)
	extractNotes(text, &p)

	p.Physician = types.Signature{
		Name:     strings.TrimSpace(matchFirst(physicianPattern, text)),
		CRM:      matchFirst(crmPattern, text),
		SignedAt: matchFirst(signDatePattern, text),
	}
	p.PrintedAt = matchFirst(signDatePattern, text)

	if p.Patient.Name == "" && len(p.Medications) == 0 {
		extractLog.Error().Str("prescription", id).Msg("Prescription sheet yielded no header and no medications")
	}
	return p
}

func matchFirst(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractMedications walks every table whose preceding text announces a
// medication block. Standardized tables carry the bracketed catalogue name
// and comma-separated fields; non-standard blocks are split on column gaps.
func extractMedications(markup string, p *types.Prescription) {
	tables := tablePattern.FindAllStringSubmatchIndex(markup, -1)
	prevEnd := 0
	for _, t := range tables {
		// The announcement sits between the previous table and this one.
		leadStart := t[0] - 300
		if leadStart < prevEnd {
			leadStart = prevEnd
		}
		lead := Textify(markup[leadStart:t[0]])
		prevEnd = t[1]
		standardized := strings.Contains(lead, "Medicação") && strings.Contains(lead, "LEGENDA")
		nonStandard := strings.Contains(lead, "não padronizada") || strings.Contains(lead, "sem estoque")
		if !standardized && !nonStandard {
			continue
		}

		body := markup[t[2]:t[3]]
		for _, row := range rowPattern.FindAllStringSubmatch(body, -1) {
			cells := cellPattern.FindAllStringSubmatch(row[1], -1)
			if len(cells) < 2 {
				continue
			}
			number := strings.TrimSpace(Textify(cells[0][1]))
			if !medRowNumberPattern.MatchString(number) {
				continue
			}
			// Column gaps are significant for non-standard rows, so the
			// cell is flattened without collapsing space runs.
			medText := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(cells[1][1], "")))
			var med types.PrescribedMedication
			if standardized {
				med = parseStandardMedication(medText)
			} else {
				med = parseNonStandardMedication(medText)
			}
			if med.Name == "" {
				continue
			}
			med.NonStandard = nonStandard
			p.Medications = append(p.Medications, med)
		}
	}
}

// parseStandardMedication reads "[NAME] (dose), (presentation), route,
// interval, note, days". A lone "." means the field was left blank.
func parseStandardMedication(text string) types.PrescribedMedication {
	med := types.PrescribedMedication{}
	if m := medNamePattern.FindStringSubmatch(text); m != nil {
		med.Name = strings.TrimSpace(m[1])
	}

	rest := strings.TrimSpace(medNamePattern.ReplaceAllString(text, ""))
	fields := strings.Split(rest, ",")
	get := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		v := strings.Trim(strings.TrimSpace(fields[i]), "()")
		if v == "." {
			return ""
		}
		return v
	}
	med.Dose = get(0)
	med.Presentation = get(1)
	med.Route = get(2)
	med.Interval = get(3)
	med.Note = get(4)
	med.Days = get(5)
	return med
}

func parseNonStandardMedication(text string) types.PrescribedMedication {
	parts := doubleSpacePattern.Split(text, -1)
	var fields []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			fields = append(fields, strings.TrimSpace(part))
		}
	}
	get := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return fields[i]
	}
	med := types.PrescribedMedication{
		Name:     get(0),
		Dose:     get(1),
		Posology: get(2),
		Route:    get(3),
		Interval: get(4),
	}
	if len(fields) > 5 {
		med.Note = strings.Join(fields[5:], " ")
	}
	return med
}

func extractDiets(markup string, p *types.Prescription) {
	idx := strings.Index(markup, "Dietas")
	if idx < 0 {
		return
	}
	scope := markup[idx:]
	if m := tablePattern.FindStringSubmatch(scope); m != nil {
		scope = m[1]
	}
	for _, row := range rowPattern.FindAllStringSubmatch(scope, -1) {
		cells := cellPattern.FindAllStringSubmatch(row[1], -1)
		if len(cells) < 2 {
			continue
		}
		number := strings.TrimSpace(Textify(cells[0][1]))
		if !medRowNumberPattern.MatchString(number) {
			continue
		}
		p.Diets = append(p.Diets, types.Diet{
			Number:      strings.TrimSuffix(number, "-"),
			Description: strings.TrimSpace(Textify(cells[1][1])),
		})
	}
}

func extractNotes(text string, p *types.Prescription) {
	if idx := strings.Index(text, "CUIDADOS GERAIS"); idx >= 0 {
		scope := text[idx:]
		if end := strings.Index(scope, "DIAGNÓSTICO:"); end > 0 {
			scope = scope[:end]
		}
		for _, m := range generalCarePattern.FindAllStringSubmatch(scope, -1) {
			p.Notes = append(p.Notes, types.PrescriptionNote{Kind: "Cuidado Geral", Text: strings.TrimSpace(m[1])})
		}
	}

	for _, np := range noteLinePatterns {
		value := matchFirst(np.pattern, text)
		if value != "" {
			p.Notes = append(p.Notes, types.PrescriptionNote{Kind: np.kind, Text: value})
		}
	}
}
