package extract

import (
	"fmt"
	"regexp"
	"strings"

	"hicd.com/records/types"
	"hicd.com/records/utils"
)

var (
	fieldsetPattern    = regexp.MustCompile(`(?is)<fieldset[^>]*>(.*?)</fieldset>`)
	legendPattern      = regexp.MustCompile(`(?is)<legend[^>]*>(.*?)</legend>`)
	printButtonPattern = regexp.MustCompile(`imprimirEvo\('([^']+)','([^']+)'\)`)
	examLinkPattern    = regexp.MustCompile(`(?is)<a[^>]*onclick\s*=\s*["'][^"']*selecionaEx\('([^']+)'\)[^"']*["'][^>]*>(.*?)</a>`)
	subTitlePattern    = regexp.MustCompile(`(?is)<td[^>]*class\s*=\s*["']?sub_titulo["']?[^>]*>(.*?)</td>`)
	tablePattern       = regexp.MustCompile(`(?is)<table[^>]*>(.*?)</table>`)
	redFontPattern     = regexp.MustCompile(`(?i)<font[^>]*color\s*=\s*["']?#?ff0000["']?`)
	abbrevLinePattern  = regexp.MustCompile(`^([A-Z0-9][A-Z0-9\-_. ]{1,20}):\s+(.+)$`)
)

// ExamRequests reads the patient's exam page. Requisitions come in fieldset
// pairs: an "Informações:" table followed by the fieldset holding the exam
// links and the print button. A requisition is kept only when it carries a
// name or a requisition number.
func ExamRequests(doc types.RawDocument) []types.ExamRequest {
	sets := fieldsetPattern.FindAllStringSubmatch(doc.Body, -1)

	var requests []types.ExamRequest
	for i, set := range sets {
		legend := ""
		if m := legendPattern.FindStringSubmatch(set[1]); m != nil {
			legend = strings.TrimSpace(Textify(m[1]))
		}
		if legend != "Informações:" {
			continue
		}

		req := examInfo(set[1], doc.PatientID, len(requests))
		if req == nil {
			continue
		}
		if i+1 < len(sets) {
			fillExamList(req, sets[i+1][1])
		}
		requests = append(requests, *req)
	}

	if len(requests) == 0 {
		extractLog.Error().Str("patient", doc.PatientID).Msg("Exam page yielded no requisitions")
	}
	return requests
}

func examInfo(fieldset, patientID string, index int) *types.ExamRequest {
	req := types.ExamRequest{PatientID: patientID}

	for _, row := range rowPattern.FindAllStringSubmatch(fieldset, -1) {
		cells := cellPattern.FindAllStringSubmatch(row[1], -1)
		if len(cells) < 2 {
			continue
		}
		label := strings.TrimSpace(Textify(cells[0][1]))
		value := strings.TrimSpace(Textify(cells[1][1]))
		switch label {
		case "Nome:":
			req.Name = value
		case "Data:":
			req.Date = value
		case "Hora:":
			req.Time = value
		case "Requisição:":
			req.RequisitionID = value
		case "Clínica:":
			req.Clinic = value
		case "Médico:":
			req.Physician = value
		case "Unidade de Saúde:":
			req.HealthUnit = value
		}
	}

	if req.Name == "" && req.RequisitionID == "" {
		return nil
	}
	req.ID = fmt.Sprintf("%s_exam_%x", patientID,
		utils.HashString(fmt.Sprintf("%s|%s|%s|%d", req.RequisitionID, req.Date, req.Time, index)))
	return &req
}

func fillExamList(req *types.ExamRequest, fieldset string) {
	if m := printButtonPattern.FindStringSubmatch(fieldset); m != nil {
		req.RequisitionID = m[1]
		req.PrintLine = m[2]
	}
	for _, m := range examLinkPattern.FindAllStringSubmatch(fieldset, -1) {
		name := strings.TrimSpace(Textify(m[2]))
		if name == "" {
			continue
		}
		req.Items = append(req.Items, types.ExamItem{Code: m[1], Name: name})
	}
}

// ExamResults reads the print page of one requisition. Result tables are
// grouped under a sub_titulo caption with item, result, unit and reference
// columns; a value the portal paints red is marked Altered. Pages without
// result tables fall back to "ABBREV: value" text lines.
func ExamResults(doc types.RawDocument, requisitionID string) []types.ExamResultGroup {
	var groups []types.ExamResultGroup

	for _, table := range tablePattern.FindAllStringSubmatch(doc.Body, -1) {
		name := ""
		if m := subTitlePattern.FindStringSubmatch(table[1]); m != nil {
			name = strings.TrimSpace(Textify(m[1]))
		}
		if name == "" {
			continue
		}

		group := types.ExamResultGroup{Name: name}
		for _, row := range rowPattern.FindAllStringSubmatch(table[1], -1) {
			cells := cellPattern.FindAllStringSubmatch(row[1], -1)
			if len(cells) < 4 {
				continue
			}
			item := types.ExamResultItem{
				Item:      strings.TrimSpace(Textify(cells[0][1])),
				Result:    strings.TrimSpace(Textify(cells[1][1])),
				Unit:      strings.TrimSpace(Textify(cells[2][1])),
				Reference: strings.TrimSpace(Textify(cells[3][1])),
				Status:    types.ExamStatusNormal,
			}
			if item.Item == "" || item.Item == name {
				continue
			}
			if redFontPattern.MatchString(cells[1][1]) {
				item.Status = types.ExamStatusAltered
			}
			group.Items = append(group.Items, item)
		}

		if len(group.Items) > 0 {
			groups = append(groups, group)
		}
	}

	if len(groups) == 0 {
		groups = examResultsFromText(doc)
	}
	if len(groups) == 0 {
		extractLog.Error().Str("requisition", requisitionID).Msg("Exam result page yielded no results")
	}
	return groups
}

func examResultsFromText(doc types.RawDocument) []types.ExamResultGroup {
	group := types.ExamResultGroup{Name: "Resultados"}
	for _, line := range textLines(doc.Body) {
		m := abbrevLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		abbrev := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if isResultHeader(abbrev) || isResultHeader(value) {
			continue
		}
		group.Items = append(group.Items, types.ExamResultItem{
			Item:   abbrev,
			Result: value,
			Status: types.ExamStatusNormal,
		})
	}
	if len(group.Items) == 0 {
		return nil
	}
	return []types.ExamResultGroup{group}
}

func isResultHeader(s string) bool {
	lower := strings.ToLower(s)
	for _, word := range []string{"exame", "resultado", "referência", "referencia", "valor"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
