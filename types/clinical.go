package types

// VitalSigns holds the six vital measurements recognized inside evolution
// notes. Values keep the unit text exactly as written ("88,5 Kg", "98%").
type VitalSigns struct {
	Weight       string `json:"weight,omitempty"`
	MAP          string `json:"map,omitempty"`
	HeartRate    string `json:"heartRate,omitempty"`
	RespRate     string `json:"respRate,omitempty"`
	Temperature  string `json:"temperature,omitempty"`
	O2Saturation string `json:"o2Saturation,omitempty"`
}

func (v VitalSigns) IsEmpty() bool {
	return v == VitalSigns{}
}

// ClinicalData is the structured reading of one evolution note's free text.
type ClinicalData struct {
	DiagnosticHypotheses []string   `json:"diagnosticHypotheses,omitempty"`
	CurrentMedications   []string   `json:"currentMedications,omitempty"`
	PriorMedications     []string   `json:"priorMedications,omitempty"`
	Exams                []string   `json:"exams,omitempty"`
	Procedures           []string   `json:"procedures,omitempty"`
	VitalSigns           VitalSigns `json:"vitalSigns"`
}

func (c ClinicalData) IsEmpty() bool {
	return len(c.DiagnosticHypotheses) == 0 &&
		len(c.CurrentMedications) == 0 &&
		len(c.PriorMedications) == 0 &&
		len(c.Exams) == 0 &&
		len(c.Procedures) == 0 &&
		c.VitalSigns.IsEmpty()
}
