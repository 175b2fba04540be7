package types

import (
	"fmt"
	"strings"
)

// Evolution is one evolution note from a patient's history. ID is derived
// from patient, date and author because the portal assigns none.
type Evolution struct {
	ID            string        `json:"id"`
	PatientID     string        `json:"patientId"`
	Professional  string        `json:"professional,omitempty"`
	Activity      string        `json:"activity,omitempty"`
	Subactivity   string        `json:"subactivity,omitempty"`
	EvolutionDate string        `json:"evolutionDate,omitempty"`
	UpdatedDate   string        `json:"updatedDate,omitempty"`
	WardBed       string        `json:"wardBed,omitempty"`
	Body          string        `json:"body,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	Clinical      *ClinicalData `json:"clinical,omitempty"`
}

// Validate requires an identity and at least one of the two dates.
func (e *Evolution) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id", ErrFieldMissing)
	}
	if e.PatientID == "" {
		return fmt.Errorf("%w: patientId", ErrFieldMissing)
	}
	if e.EvolutionDate == "" && e.UpdatedDate == "" {
		return fmt.Errorf("%w: evolutionDate", ErrFieldMissing)
	}
	return nil
}

var medicalActivityMarkers = []string{
	"evolução médica",
	"evolucao medica",
	"prescrição médica",
	"prescricao medica",
}

var medicalProfessionalMarkers = []string{"dr.", "dra.", "médico", "medico", "crm"}

// IsMedical reports whether the note was written by a physician, judged by
// the activity label first and the professional line as a fallback.
func (e *Evolution) IsMedical() bool {
	activity := strings.ToLower(e.Activity)
	for _, marker := range medicalActivityMarkers {
		if strings.Contains(activity, marker) {
			return true
		}
	}
	professional := strings.ToLower(e.Professional)
	for _, marker := range medicalProfessionalMarkers {
		if strings.Contains(professional, marker) {
			return true
		}
	}
	return false
}

// EvolutionSummary is the listing projection of an Evolution.
type EvolutionSummary struct {
	ID            string `json:"id"`
	PatientID     string `json:"patientId"`
	Professional  string `json:"professional,omitempty"`
	Activity      string `json:"activity,omitempty"`
	EvolutionDate string `json:"evolutionDate,omitempty"`
	WardBed       string `json:"wardBed,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

func (e *Evolution) SummaryView() EvolutionSummary {
	return EvolutionSummary{
		ID:            e.ID,
		PatientID:     e.PatientID,
		Professional:  e.Professional,
		Activity:      e.Activity,
		EvolutionDate: e.EvolutionDate,
		WardBed:       e.WardBed,
		Summary:       e.Summary,
	}
}

// DetailView returns the note with its full body and structured reading.
func (e *Evolution) DetailView() Evolution {
	return *e
}

// EvolutionClinical pairs a note's identity with its structured reading only.
type EvolutionClinical struct {
	ID            string       `json:"id"`
	PatientID     string       `json:"patientId"`
	EvolutionDate string       `json:"evolutionDate,omitempty"`
	Clinical      ClinicalData `json:"clinical"`
}

func (e *Evolution) ClinicalView() EvolutionClinical {
	view := EvolutionClinical{
		ID:            e.ID,
		PatientID:     e.PatientID,
		EvolutionDate: e.EvolutionDate,
	}
	if e.Clinical != nil {
		view.Clinical = *e.Clinical
	}
	return view
}
