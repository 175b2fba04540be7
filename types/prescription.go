package types

import "fmt"

// PrescribedMedication is one line of a prescription's medication table.
// NonStandard marks drugs the pharmacy lists outside the standardized
// catalogue, which the portal renders in a looser column layout.
type PrescribedMedication struct {
	Name         string `json:"name"`
	Dose         string `json:"dose,omitempty"`
	Presentation string `json:"presentation,omitempty"`
	Route        string `json:"route,omitempty"`
	Interval     string `json:"interval,omitempty"`
	Note         string `json:"note,omitempty"`
	Days         string `json:"days,omitempty"`
	Posology     string `json:"posology,omitempty"`
	NonStandard  bool   `json:"nonStandard"`
}

type Diet struct {
	Number      string `json:"number,omitempty"`
	Description string `json:"description"`
}

// PrescriptionNote is a care instruction grouped by kind (Cuidado Geral,
// Diagnóstico, Sedação, Terapia Venosa, ...).
type PrescriptionNote struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type Signature struct {
	Name     string `json:"name,omitempty"`
	CRM      string `json:"crm,omitempty"`
	SignedAt string `json:"signedAt,omitempty"`
}

// PrescriptionPatient is the patient header block printed on a prescription.
type PrescriptionPatient struct {
	Name      string `json:"name,omitempty"`
	RecordID  string `json:"recordId,omitempty"`
	Register  string `json:"register,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Age       string `json:"age,omitempty"`
	Weight    string `json:"weight,omitempty"`
	CNS       string `json:"cns,omitempty"`
	Bed       string `json:"bed,omitempty"`
}

type PrescriptionStay struct {
	Clinic    string `json:"clinic,omitempty"`
	Admission string `json:"admission,omitempty"`
	StayCode  string `json:"stayCode,omitempty"`
	Hospital  string `json:"hospital,omitempty"`
	WardBed   string `json:"wardBed,omitempty"`
}

// Prescription is one medical prescription sheet.
type Prescription struct {
	ID          string                 `json:"id"`
	Code        string                 `json:"code,omitempty"`
	IssuedAt    string                 `json:"issuedAt,omitempty"`
	ValidFor    string                 `json:"validFor,omitempty"`
	Patient     PrescriptionPatient    `json:"patient"`
	Stay        PrescriptionStay       `json:"stay"`
	Medications []PrescribedMedication `json:"medications,omitempty"`
	Diets       []Diet                 `json:"diets,omitempty"`
	Notes       []PrescriptionNote     `json:"notes,omitempty"`
	Physician   Signature              `json:"physician"`
	PrintedAt   string                 `json:"printedAt,omitempty"`
}

func (p *Prescription) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id", ErrFieldMissing)
	}
	if p.Patient.RecordID == "" {
		return fmt.Errorf("%w: patient recordId", ErrFieldMissing)
	}
	return nil
}

// NonStandardMedications filters the medications the pharmacy has to source
// outside the standardized catalogue.
func (p *Prescription) NonStandardMedications() []PrescribedMedication {
	var out []PrescribedMedication
	for _, m := range p.Medications {
		if m.NonStandard {
			out = append(out, m)
		}
	}
	return out
}

// NotesByKind groups the care instructions by their kind label.
func (p *Prescription) NotesByKind() map[string][]PrescriptionNote {
	groups := make(map[string][]PrescriptionNote)
	for _, n := range p.Notes {
		kind := n.Kind
		if kind == "" {
			kind = "Geral"
		}
		groups[kind] = append(groups[kind], n)
	}
	return groups
}

// PrescriptionSummary is the listing projection of a Prescription.
type PrescriptionSummary struct {
	ID              string `json:"id"`
	Code            string `json:"code,omitempty"`
	IssuedAt        string `json:"issuedAt,omitempty"`
	ValidFor        string `json:"validFor,omitempty"`
	PatientName     string `json:"patientName,omitempty"`
	RecordID        string `json:"recordId,omitempty"`
	Bed             string `json:"bed,omitempty"`
	Clinic          string `json:"clinic,omitempty"`
	Physician       string `json:"physician,omitempty"`
	MedicationCount int    `json:"medicationCount"`
	NonStandard     int    `json:"nonStandardCount"`
}

func (p *Prescription) SummaryView() PrescriptionSummary {
	return PrescriptionSummary{
		ID:              p.ID,
		Code:            p.Code,
		IssuedAt:        p.IssuedAt,
		ValidFor:        p.ValidFor,
		PatientName:     p.Patient.Name,
		RecordID:        p.Patient.RecordID,
		Bed:             p.Patient.Bed,
		Clinic:          p.Stay.Clinic,
		Physician:       p.Physician.Name,
		MedicationCount: len(p.Medications),
		NonStandard:     len(p.NonStandardMedications()),
	}
}

// DetailView returns the full sheet.
func (p *Prescription) DetailView() Prescription {
	return *p
}

// PrescriptionMedications pairs the sheet identity with its medications only.
type PrescriptionMedications struct {
	ID          string                 `json:"id"`
	IssuedAt    string                 `json:"issuedAt,omitempty"`
	RecordID    string                 `json:"recordId,omitempty"`
	Physician   Signature              `json:"physician"`
	Medications []PrescribedMedication `json:"medications"`
}

func (p *Prescription) MedicationsView() PrescriptionMedications {
	return PrescriptionMedications{
		ID:          p.ID,
		IssuedAt:    p.IssuedAt,
		RecordID:    p.Patient.RecordID,
		Physician:   p.Physician,
		Medications: p.Medications,
	}
}
