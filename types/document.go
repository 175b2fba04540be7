package types

import "time"

// DocKind identifies which portal page a raw document was captured from.
type DocKind string

const (
	DocClinicList         DocKind = "clinic_list"
	DocPatientList        DocKind = "patient_list"
	DocPatientRecord      DocKind = "patient_record"
	DocEvolutionHistory   DocKind = "evolution_history"
	DocExamList           DocKind = "exam_list"
	DocExamResult         DocKind = "exam_result"
	DocPrescriptionList   DocKind = "prescription_list"
	DocPrescriptionDetail DocKind = "prescription_detail"
)

// RawDocument is the envelope handed to the extraction engine. Body is the
// page markup exactly as the portal served it.
type RawDocument struct {
	Kind      DocKind
	PatientID string
	Body      string
	FetchedAt time.Time
}
