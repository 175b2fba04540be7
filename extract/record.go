package extract

import (
	"regexp"

	"hicd.com/records/types"
)

var wardBedPattern = regexp.MustCompile(`^(\d{3})-(.+?)\s+(\d+)$`)

// PatientRecord reads the demographic page of one patient. Fields the page
// does not show stay empty. The page's hidden pac_name / pac_pront inputs
// only fill name and record id when the labeled fields failed to.
func PatientRecord(doc types.RawDocument) types.Patient {
	lines := textLines(doc.Body)

	p := types.Patient{
		RecordID:   labelValue(lines, "Registro:"),
		Name:       labelValue(lines, "Nome:", "Nome da mãe:"),
		MotherName: labelValue(lines, "Nome da mãe:"),
		BirthDate:  labelValue(lines, "Nascimento:"),
		Age:        labelValue(lines, "Idade:"),
		Sex:        labelValue(lines, "Sexo:"),
		Document:   labelValue(lines, "Documento:"),
		CNS:        labelValue(lines, "CNS:"),
		BE:         labelValue(lines, "BE:"),
		Phone:      labelValue(lines, "Telefone:"),
		Guardian:   labelValue(lines, "Responsável:"),
		Address: types.Address{
			Street:     labelValue(lines, "Logradouro:"),
			Number:     labelValue(lines, "Número:"),
			District:   labelValue(lines, "Bairro:"),
			City:       labelValue(lines, "Município:"),
			State:      labelValue(lines, "Estado:"),
			ZIP:        labelValue(lines, "CEP:"),
			Complement: labelValue(lines, "Complemento:"),
		},
	}

	wardBed := labelValue(lines, "Clinica / Leito:")
	if wardBed == "" {
		wardBed = labelValue(lines, "Clínica / Leito:")
	}
	if wardBed != "" {
		if m := wardBedPattern.FindStringSubmatch(wardBed); m != nil {
			p.WardBed = &types.WardBed{ClinicCode: m[1], ClinicName: m[2], Bed: m[3]}
		} else {
			p.WardBedRaw = wardBed
			extractLog.Debug().Str("value", wardBed).Msg("Ward/bed value kept raw, unexpected shape")
		}
	}

	if p.Name == "" {
		p.Name = hiddenInputValue(doc.Body, "pac_name")
	}
	if p.RecordID == "" {
		p.RecordID = hiddenInputValue(doc.Body, "pac_pront")
	}

	if p.IsEmpty() {
		extractLog.Error().Str("patient", doc.PatientID).Msg("Patient record page yielded no fields")
	}
	return p
}
