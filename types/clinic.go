package types

// Clinic is one ward of the hospital as listed by the portal's clinic
// selector. Code "0" is the selector's placeholder entry, never a real ward.
type Clinic struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PatientRef is one row of a clinic's patient list. WardBedLabel combines the
// clinic code and the bed number ("007-12") so a bed stays unambiguous once
// rows from several clinics are merged.
type PatientRef struct {
	Name         string `json:"name"`
	RecordID     string `json:"recordId"`
	Bed          string `json:"bed"`
	WardBedLabel string `json:"wardBedLabel"`
}
