package types

import "fmt"

// ExamItem is a single exam inside a requisition ("selecionaEx" entry).
type ExamItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ExamRequest is one exam requisition found on the patient's exam page.
// RequisitionID and PrintLine come from the print button and are what the
// result page is keyed by.
type ExamRequest struct {
	ID            string            `json:"id"`
	PatientID     string            `json:"patientId"`
	Name          string            `json:"name,omitempty"`
	Date          string            `json:"date,omitempty"`
	Time          string            `json:"time,omitempty"`
	RequisitionID string            `json:"requisitionId,omitempty"`
	PrintLine     string            `json:"printLine,omitempty"`
	Clinic        string            `json:"clinic,omitempty"`
	Physician     string            `json:"physician,omitempty"`
	HealthUnit    string            `json:"healthUnit,omitempty"`
	Items         []ExamItem        `json:"items,omitempty"`
	Results       []ExamResultGroup `json:"results,omitempty"`
}

func (r *ExamRequest) Validate() error {
	if r.PatientID == "" {
		return fmt.Errorf("%w: patientId", ErrFieldMissing)
	}
	if r.Name == "" && r.RequisitionID == "" {
		return fmt.Errorf("%w: name or requisitionId", ErrFieldMissing)
	}
	return nil
}

// ExamRequestSummary is the listing projection of an ExamRequest.
type ExamRequestSummary struct {
	ID            string `json:"id"`
	Date          string `json:"date,omitempty"`
	RequisitionID string `json:"requisitionId,omitempty"`
	Physician     string `json:"physician,omitempty"`
	ItemCount     int    `json:"itemCount"`
}

func (r *ExamRequest) SummaryView() ExamRequestSummary {
	return ExamRequestSummary{
		ID:            r.ID,
		Date:          r.Date,
		RequisitionID: r.RequisitionID,
		Physician:     r.Physician,
		ItemCount:     len(r.Items),
	}
}

const (
	ExamStatusNormal  = "Normal"
	ExamStatusAltered = "Altered"
)

// ExamResultItem is one measured line of a result table. Status is Altered
// when the portal paints the value red.
type ExamResultItem struct {
	Item      string `json:"item"`
	Result    string `json:"result"`
	Unit      string `json:"unit,omitempty"`
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status"`
}

// ExamResultGroup is one named exam with its measured items.
type ExamResultGroup struct {
	Name  string           `json:"name"`
	Items []ExamResultItem `json:"items"`
}
