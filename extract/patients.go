package extract

import (
	"regexp"
	"strings"

	"hicd.com/records/types"
)

var (
	rowPattern      = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	cellPattern     = regexp.MustCompile(`(?is)<t[dh][^>]*>(.*?)</t[dh]>`)
	numericPattern  = regexp.MustCompile(`^\d+$`)
	patientFallback = regexp.MustCompile(`([A-ZÀ-Ü][A-Za-zÀ-ü' ]{2,})\s*\((\d{3,})\)[^\n(]*?\b([A-Z]?\d{1,4})\b`)
)

// listHeaderLabels are column captions a patient-list row must never carry
// as a value.
var listHeaderLabels = map[string]bool{
	"nome":       true,
	"paciente":   true,
	"prontuário": true,
	"prontuario": true,
	"registro":   true,
	"leito":      true,
}

// Patients reads a clinic's patient list. A row is accepted only when it
// yields a non-empty name, an all-digits record id and a bed, and none of
// the three equals a column caption. Pages without a usable table fall back
// to a "Name (id) ... bed" text scan.
func Patients(doc types.RawDocument, clinicCode string) []types.PatientRef {
	var patients []types.PatientRef

	for _, row := range rowPattern.FindAllStringSubmatch(doc.Body, -1) {
		ref, ok := patientFromRow(row[1])
		if !ok {
			continue
		}
		ref.WardBedLabel = clinicCode + "-" + ref.Bed
		patients = append(patients, ref)
	}

	if len(patients) == 0 {
		patients = patientsFromText(doc.Body, clinicCode)
	}
	if len(patients) == 0 {
		extractLog.Error().Str("clinic", clinicCode).Msg("No patients extracted from clinic page")
	}
	return patients
}

func patientFromRow(row string) (types.PatientRef, bool) {
	cells := cellPattern.FindAllStringSubmatch(row, -1)
	if len(cells) < 3 {
		return types.PatientRef{}, false
	}

	values := make([]string, 0, len(cells))
	for _, c := range cells {
		values = append(values, strings.TrimSpace(Textify(c[1])))
	}

	var ref types.PatientRef
	for i, v := range values {
		if ref.RecordID == "" && numericPattern.MatchString(v) {
			ref.RecordID = v
			if i > 0 && ref.Name == "" {
				ref.Name = values[i-1]
			}
			if i+1 < len(values) {
				ref.Bed = values[i+1]
			}
			break
		}
	}

	if ref.Name == "" || ref.RecordID == "" || ref.Bed == "" {
		return types.PatientRef{}, false
	}
	for _, v := range []string{ref.Name, ref.RecordID, ref.Bed} {
		if listHeaderLabels[strings.ToLower(v)] {
			return types.PatientRef{}, false
		}
	}
	return ref, true
}

func patientsFromText(markup, clinicCode string) []types.PatientRef {
	var patients []types.PatientRef
	text := Textify(markup)
	for _, m := range patientFallback.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if listHeaderLabels[strings.ToLower(name)] {
			continue
		}
		patients = append(patients, types.PatientRef{
			Name:         name,
			RecordID:     m[2],
			Bed:          m[3],
			WardBedLabel: clinicCode + "-" + m[3],
		})
	}
	return patients
}
