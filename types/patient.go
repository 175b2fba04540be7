package types

import "fmt"

// WardBed is the decomposed "Clinica / Leito" value. When the portal's text
// does not match the code-name-bed shape the raw string is kept on the
// Patient instead and WardBed stays nil.
type WardBed struct {
	ClinicCode string `json:"clinicCode"`
	ClinicName string `json:"clinicName"`
	Bed        string `json:"bed"`
}

func (w *WardBed) Label() string {
	return fmt.Sprintf("%s-%s", w.ClinicCode, w.Bed)
}

type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZIP        string `json:"zip,omitempty"`
	Complement string `json:"complement,omitempty"`
}

// Patient is the full demographic record behind one prontuário number.
// Every field the portal may leave blank is optional; absence is the zero
// value, never a sentinel.
type Patient struct {
	RecordID   string   `json:"recordId"`
	Name       string   `json:"name"`
	MotherName string   `json:"motherName,omitempty"`
	BirthDate  string   `json:"birthDate,omitempty"`
	Age        string   `json:"age,omitempty"`
	Sex        string   `json:"sex,omitempty"`
	Document   string   `json:"document,omitempty"`
	CNS        string   `json:"cns,omitempty"`
	BE         string   `json:"be,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Guardian   string   `json:"guardian,omitempty"`
	Address    Address  `json:"address"`
	WardBed    *WardBed `json:"wardBed,omitempty"`
	WardBedRaw string   `json:"wardBedRaw,omitempty"`
}

// Validate reports whether the record carries its identity fields.
func (p *Patient) Validate() error {
	if p.RecordID == "" {
		return fmt.Errorf("%w: recordId", ErrFieldMissing)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name", ErrFieldMissing)
	}
	return nil
}

// IsEmpty reports whether extraction found nothing at all, which callers
// treat as a missing record rather than an invalid one.
func (p *Patient) IsEmpty() bool {
	return p.RecordID == "" && p.Name == "" && p.MotherName == "" &&
		p.BirthDate == "" && p.CNS == "" && p.Document == ""
}

// PatientSummary is the listing projection of a Patient.
type PatientSummary struct {
	RecordID string `json:"recordId"`
	Name     string `json:"name"`
	Age      string `json:"age,omitempty"`
	Sex      string `json:"sex,omitempty"`
	WardBed  string `json:"wardBed,omitempty"`
}

func (p *Patient) SummaryView() PatientSummary {
	s := PatientSummary{
		RecordID: p.RecordID,
		Name:     p.Name,
		Age:      p.Age,
		Sex:      p.Sex,
	}
	if p.WardBed != nil {
		s.WardBed = p.WardBed.Label()
	} else {
		s.WardBed = p.WardBedRaw
	}
	return s
}
