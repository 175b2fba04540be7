package clinical

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"hicd.com/records/logger"
)

// Section keys. The analyzer writes each section's items to the matching
// ClinicalData field.
const (
	SectionDiagnosticHypotheses = "diagnostic_hypotheses"
	SectionCurrentMedications   = "current_medications"
	SectionPriorMedications     = "prior_medications"
	SectionExams                = "exams"
	SectionProcedures           = "procedures"
)

// SectionDef declares one labeled section and the label spellings that open
// it inside a note. Order in the slice is the canonical section order.
type SectionDef struct {
	Key    string   `yaml:"key"`
	Labels []string `yaml:"labels"`
}

// VitalDef declares one vital sign and the patterns that capture its value.
// The first pattern that matches wins.
type VitalDef struct {
	Field    string   `yaml:"field"`
	Patterns []string `yaml:"patterns"`
}

// Definitions is the full analyzer configuration.
type Definitions struct {
	Sections []SectionDef `yaml:"sections"`
	Vitals   []VitalDef   `yaml:"vitals"`
}

const (
	VitalWeight       = "weight"
	VitalMAP          = "map"
	VitalHeartRate    = "heart_rate"
	VitalRespRate     = "resp_rate"
	VitalTemperature  = "temperature"
	VitalO2Saturation = "o2_saturation"
)

// DefaultDefinitions carries both the portal's Portuguese labels and their
// English spellings so notes copied between systems still segment.
func DefaultDefinitions() Definitions {
	return Definitions{
		Sections: []SectionDef{
			{
				Key: SectionDiagnosticHypotheses,
				Labels: []string{
					"Hipóteses diagnósticas:", "Hipoteses diagnosticas:",
					"Hipótese diagnóstica:", "Hipotese diagnostica:",
					"Diagnostic hypotheses:", "HD:",
				},
			},
			{
				Key: SectionCurrentMedications,
				Labels: []string{
					"Medicamentos em uso:", "Medicações em uso:",
					"Medications in use:", "Currently using:", "Em uso:",
				},
			},
			{
				Key: SectionPriorMedications,
				Labels: []string{
					"Medicamentos anteriores:", "Fez uso:",
					"Prior medications:", "Previous medications:",
				},
			},
			{
				Key: SectionExams,
				Labels: []string{
					"Exames:", "Exames solicitados:",
					"Exams:", "Exams requested:", "Lab exams requested:",
				},
			},
			{
				Key: SectionProcedures,
				Labels: []string{
					"Procedimentos:", "Dispositivos:",
					"Procedures:", "Devices:",
				},
			},
		},
		Vitals: []VitalDef{
			{Field: VitalWeight, Patterns: []string{`(?i)\bPeso\s*:?\s*(\d+(?:[.,]\d+)?\s*(?:kg)?)`}},
			{Field: VitalMAP, Patterns: []string{`(?i)\bPAM\s*:?\s*(\d+(?:[.,]\d+)?\s*(?:mmHg)?)`}},
			{Field: VitalHeartRate, Patterns: []string{`(?i)\bFC\s*:?\s*(\d+(?:[.,]\d+)?\s*(?:bpm)?)`}},
			{Field: VitalRespRate, Patterns: []string{`(?i)\bFR\s*:?\s*(\d+(?:[.,]\d+)?\s*(?:i?rpm|ipm)?)`}},
			{Field: VitalTemperature, Patterns: []string{
				`(?i)\bTax\s*:?\s*(\d+(?:[.,]\d+)?\s*(?:[ºo°]?C)?)`,
				`(?i)\bTemperatura\s*:?\s*(\d+(?:[.,]\d+)?\s*(?:[ºo°]?C)?)`,
			}},
			{Field: VitalO2Saturation, Patterns: []string{
				`(?i)\bSat\.?\s*O2\s*:?\s*(\d+(?:[.,]\d+)?\s*%?)`,
				`(?i)\bSpO2\s*:?\s*(\d+(?:[.,]\d+)?\s*%?)`,
			}},
		},
	}
}

// LoadDefinitions reads sections.yaml and vitals.yaml from dir, falling back
// to the built-in defaults for any file that is absent or unreadable.
func LoadDefinitions(dir string) Definitions {
	log := logger.NewLogger("ClinicalDefinitions")
	defs := DefaultDefinitions()

	var sections struct {
		Sections []SectionDef `yaml:"sections"`
	}
	if ok := loadYAML(filepath.Join(dir, "sections.yaml"), &sections, log); ok && len(sections.Sections) > 0 {
		defs.Sections = sections.Sections
	}

	var vitals struct {
		Vitals []VitalDef `yaml:"vitals"`
	}
	if ok := loadYAML(filepath.Join(dir, "vitals.yaml"), &vitals, log); ok && len(vitals.Vitals) > 0 {
		defs.Vitals = vitals.Vitals
	}

	return defs
}

func loadYAML(path string, out interface{}, log zerolog.Logger) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		log.Err(err).Str("file", path).Msg("Failed to parse definitions file, keeping defaults")
		return false
	}
	return true
}
