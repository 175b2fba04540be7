package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hicd.com/records/clinical"
	"hicd.com/records/extract"
	"hicd.com/records/logger"
	"hicd.com/records/types"
)

type Config struct {
	DefinitionsPath string `envconfig:"HICD_RECORDS_DEFINITIONS_PATH"`
	PrettyOutput    bool   `envconfig:"HICD_RECORDS_PRETTY_OUTPUT" default:"true"`
}

// Offline extraction runner: reads a saved portal page from disk and prints
// the extracted records as JSON.
func main() {
	_ = godotenv.Load()
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")
	fatalErrLogger := mainLogger.Fatal().Caller()

	kind := flag.String("kind", "", "page kind: clinics|patients|record|evolutions|exams|exam-results|prescriptions|prescription-detail")
	input := flag.String("in", "", "path to a saved portal page")
	patientID := flag.String("patient", "", "patient record id")
	clinicCode := flag.String("clinic", "", "clinic code for patient lists")
	refID := flag.String("ref", "", "requisition or prescription id")
	summary := flag.Bool("summary", false, "print listing views instead of full records")
	clinicalOnly := flag.Bool("clinical", false, "print only the structured clinical reading of evolutions")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	if *kind == "" || *input == "" {
		fatalErrLogger.Msg("Both -kind and -in are required")
		os.Exit(1)
	}

	body, err := os.ReadFile(*input)
	if err != nil {
		fatalErrLogger.Err(err).Str("file", *input).Msg("Failed to read input page")
		os.Exit(1)
	}

	defs := clinical.DefaultDefinitions()
	if config.DefinitionsPath != "" {
		defs = clinical.LoadDefinitions(config.DefinitionsPath)
	}
	analyzer, err := clinical.NewAnalyzer(defs)
	if err != nil {
		fatalErrLogger.Err(err).Msg("Failed to compile analyzer definitions")
		os.Exit(1)
	}

	doc := types.RawDocument{
		Kind:      types.DocKind(*kind),
		PatientID: *patientID,
		Body:      string(body),
	}

	var result interface{}
	switch *kind {
	case "clinics":
		result = extract.Clinics(doc)
	case "patients":
		result = extract.Patients(doc, *clinicCode)
	case "record":
		patient := extract.PatientRecord(doc)
		if *summary {
			result = patient.SummaryView()
		} else {
			result = patient
		}
	case "evolutions":
		evolutions := extract.Evolutions(doc, analyzer)
		switch {
		case *summary:
			views := make([]types.EvolutionSummary, 0, len(evolutions))
			for i := range evolutions {
				views = append(views, evolutions[i].SummaryView())
			}
			result = views
		case *clinicalOnly:
			views := make([]types.EvolutionClinical, 0, len(evolutions))
			for i := range evolutions {
				views = append(views, evolutions[i].ClinicalView())
			}
			result = views
		default:
			views := make([]types.Evolution, 0, len(evolutions))
			for i := range evolutions {
				views = append(views, evolutions[i].DetailView())
			}
			result = views
		}
	case "exams":
		requests := extract.ExamRequests(doc)
		if *summary {
			views := make([]types.ExamRequestSummary, 0, len(requests))
			for i := range requests {
				views = append(views, requests[i].SummaryView())
			}
			result = views
		} else {
			result = requests
		}
	case "exam-results":
		result = extract.ExamResults(doc, *refID)
	case "prescriptions":
		prescriptions := extract.Prescriptions(doc)
		if *summary {
			views := make([]types.PrescriptionSummary, 0, len(prescriptions))
			for i := range prescriptions {
				views = append(views, prescriptions[i].SummaryView())
			}
			result = views
		} else {
			result = prescriptions
		}
	case "prescription-detail":
		detail := extract.PrescriptionDetail(doc, *refID)
		if *summary {
			result = detail.SummaryView()
		} else {
			result = detail.DetailView()
		}
	default:
		fatalErrLogger.Str("kind", *kind).Msg("Unknown page kind")
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	if config.PrettyOutput {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(result); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to encode result")
		os.Exit(1)
	}
}
