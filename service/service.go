package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"hicd.com/records/cache"
	"hicd.com/records/clinical"
	"hicd.com/records/extract"
	"hicd.com/records/logger"
	"hicd.com/records/types"
)

// Query describes one portal page to fetch. Only the fields the kind needs
// are set.
type Query struct {
	Kind           types.DocKind
	PatientID      string
	ClinicCode     string
	RequisitionID  string
	PrintLine      string
	PrescriptionID string
}

// Fetcher retrieves raw portal pages. The session client implementing it
// lives outside this module.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (types.RawDocument, error)
}

// Cache key query types.
const (
	QueryClinics       = "clinics"
	QueryPatients      = "patients"
	QueryRecord        = "record"
	QueryEvolutions    = "evolutions"
	QueryExams         = "exams"
	QueryPrescriptions = "prescriptions"
	QueryOverview      = "overview"
)

type Options struct {
	BatchConcurrency int           `envconfig:"HICD_RECORDS_BATCH_CONCURRENCY" default:"3"`
	CacheTTL         time.Duration `envconfig:"HICD_RECORDS_CACHE_TTL" default:"10m"`
	SweepInterval    time.Duration `envconfig:"HICD_RECORDS_CACHE_SWEEP_INTERVAL" default:"5m"`
}

// Service is the façade over fetching, extraction and caching. Every lookup
// is cached under its canonical key; fetch failures pass through uncached.
type Service struct {
	fetcher  Fetcher
	cache    *cache.Cache
	analyzer *clinical.Analyzer
	workers  int
	log      zerolog.Logger
}

// New builds a Service. qc may be nil, in which case the service owns a
// fresh cache configured from opts.
func New(fetcher Fetcher, qc *cache.Cache, analyzer *clinical.Analyzer, opts Options) *Service {
	if qc == nil {
		qc = cache.New(cache.Options{
			DefaultTTL:    opts.CacheTTL,
			SweepInterval: opts.SweepInterval,
		})
	}
	workers := opts.BatchConcurrency
	if workers <= 0 {
		workers = 3
	}
	return &Service{
		fetcher:  fetcher,
		cache:    qc,
		analyzer: analyzer,
		workers:  workers,
		log:      logger.NewLogger("RecordService"),
	}
}

func (s *Service) fetch(ctx context.Context, q Query) (types.RawDocument, error) {
	doc, err := s.fetcher.Fetch(ctx, q)
	if err != nil {
		return types.RawDocument{}, &types.UpstreamError{Op: string(q.Kind), Err: err}
	}
	return doc, nil
}

// Clinics lists the hospital's wards.
func (s *Service) Clinics(ctx context.Context) ([]types.Clinic, error) {
	key := cache.Key(QueryClinics, "all", nil)
	v, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
		doc, err := s.fetch(ctx, Query{Kind: types.DocClinicList})
		if err != nil {
			return nil, err
		}
		return extract.Clinics(doc), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Clinic), nil
}

// SearchClinics filters the clinic list by a case- and accent-insensitive
// substring of name or code.
func (s *Service) SearchClinics(ctx context.Context, term string) ([]types.Clinic, error) {
	clinics, err := s.Clinics(ctx)
	if err != nil {
		return nil, err
	}
	needle := foldForSearch(term)
	if needle == "" {
		return clinics, nil
	}
	var out []types.Clinic
	for _, c := range clinics {
		if containsFolded(c.Name, needle) || containsFolded(c.Code, needle) {
			out = append(out, c)
		}
	}
	return out, nil
}

// PatientsOfClinic lists the patients currently admitted to one ward.
func (s *Service) PatientsOfClinic(ctx context.Context, clinicCode string) ([]types.PatientRef, error) {
	key := cache.Key(QueryPatients, clinicCode, nil)
	v, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
		doc, err := s.fetch(ctx, Query{Kind: types.DocPatientList, ClinicCode: clinicCode})
		if err != nil {
			return nil, err
		}
		return extract.Patients(doc, clinicCode), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.PatientRef), nil
}

// PatientRecord returns one patient's demographics. A page that yields
// nothing is ErrNotFound; a record without its identity fields is
// ErrInvalidRecord.
func (s *Service) PatientRecord(ctx context.Context, recordID string) (types.Patient, error) {
	key := cache.Key(QueryRecord, recordID, nil)
	v, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
		doc, err := s.fetch(ctx, Query{Kind: types.DocPatientRecord, PatientID: recordID})
		if err != nil {
			return nil, err
		}
		p := extract.PatientRecord(doc)
		if p.IsEmpty() {
			return nil, fmt.Errorf("patient %s: %w", recordID, types.ErrNotFound)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("patient %s: %w: %v", recordID, types.ErrInvalidRecord, err)
		}
		return p, nil
	})
	if err != nil {
		return types.Patient{}, err
	}
	return v.(types.Patient), nil
}

const DefaultEvolutionLimit = 10

type EvolutionOptions struct {
	Limit       int
	MedicalOnly bool
}

// Evolutions returns a patient's evolution notes, newest first, capped at
// opts.Limit (default 10). MedicalOnly keeps physician notes only.
func (s *Service) Evolutions(ctx context.Context, recordID string, opts EvolutionOptions) ([]types.Evolution, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultEvolutionLimit
	}
	key := cache.Key(QueryEvolutions, recordID, map[string]string{
		"limit":   strconv.Itoa(opts.Limit),
		"medical": strconv.FormatBool(opts.MedicalOnly),
	})
	v, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
		doc, err := s.fetch(ctx, Query{Kind: types.DocEvolutionHistory, PatientID: recordID})
		if err != nil {
			return nil, err
		}
		evolutions := extract.Evolutions(doc, s.analyzer)
		if opts.MedicalOnly {
			evolutions = filterMedical(evolutions)
		}
		sortNewestFirst(evolutions)
		if len(evolutions) > opts.Limit {
			evolutions = evolutions[:opts.Limit]
		}
		return evolutions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Evolution), nil
}

// EvolutionSummaries is Evolutions projected to the listing view.
func (s *Service) EvolutionSummaries(ctx context.Context, recordID string, opts EvolutionOptions) ([]types.EvolutionSummary, error) {
	evolutions, err := s.Evolutions(ctx, recordID, opts)
	if err != nil {
		return nil, err
	}
	summaries := make([]types.EvolutionSummary, 0, len(evolutions))
	for i := range evolutions {
		summaries = append(summaries, evolutions[i].SummaryView())
	}
	return summaries, nil
}

// ExamRequests returns a patient's exam requisitions. With includeResults
// each requisition's print page is fetched too, bounded by the worker pool,
// and the groups land on the requisition in its original position.
func (s *Service) ExamRequests(ctx context.Context, recordID string, includeResults bool) ([]types.ExamRequest, error) {
	key := cache.Key(QueryExams, recordID, map[string]string{
		"results": strconv.FormatBool(includeResults),
	})
	v, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
		doc, err := s.fetch(ctx, Query{Kind: types.DocExamList, PatientID: recordID})
		if err != nil {
			return nil, err
		}
		requests := extract.ExamRequests(doc)
		if includeResults {
			s.attachExamResults(ctx, recordID, requests)
		}
		return requests, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.ExamRequest), nil
}

func (s *Service) attachExamResults(ctx context.Context, recordID string, requests []types.ExamRequest) {
	runBounded(ctx, len(requests), s.workers, func(ctx context.Context, i int) {
		req := &requests[i]
		if req.RequisitionID == "" {
			return
		}
		doc, err := s.fetch(ctx, Query{
			Kind:          types.DocExamResult,
			PatientID:     recordID,
			RequisitionID: req.RequisitionID,
			PrintLine:     req.PrintLine,
		})
		if err != nil {
			s.log.Err(err).Str("requisition", req.RequisitionID).Msg("Skipping results for requisition")
			return
		}
		req.Results = extract.ExamResults(doc, req.RequisitionID)
	})
}

// Prescriptions returns a patient's prescription sheets. With detailed each
// sheet's print page is fetched and merged over its list row, order
// preserved.
func (s *Service) Prescriptions(ctx context.Context, recordID string, detailed bool) ([]types.Prescription, error) {
	key := cache.Key(QueryPrescriptions, recordID, map[string]string{
		"detailed": strconv.FormatBool(detailed),
	})
	v, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
		doc, err := s.fetch(ctx, Query{Kind: types.DocPrescriptionList, PatientID: recordID})
		if err != nil {
			return nil, err
		}
		prescriptions := extract.Prescriptions(doc)
		if detailed {
			s.attachPrescriptionDetails(ctx, recordID, prescriptions)
		}
		return prescriptions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Prescription), nil
}

func (s *Service) attachPrescriptionDetails(ctx context.Context, recordID string, prescriptions []types.Prescription) {
	runBounded(ctx, len(prescriptions), s.workers, func(ctx context.Context, i int) {
		row := &prescriptions[i]
		doc, err := s.fetch(ctx, Query{
			Kind:           types.DocPrescriptionDetail,
			PatientID:      recordID,
			PrescriptionID: row.ID,
		})
		if err != nil {
			s.log.Err(err).Str("prescription", row.ID).Msg("Skipping detail for prescription")
			return
		}
		detail := extract.PrescriptionDetail(doc, row.ID)
		mergePrescription(row, detail)
	})
}

// mergePrescription lays the detailed sheet over its list row, keeping the
// row's values where the sheet left a field blank.
func mergePrescription(row *types.Prescription, detail types.Prescription) {
	if detail.Patient.Name == "" {
		detail.Patient.Name = row.Patient.Name
	}
	if detail.Patient.RecordID == "" {
		detail.Patient.RecordID = row.Patient.RecordID
	}
	if detail.Patient.Register == "" {
		detail.Patient.Register = row.Patient.Register
	}
	if detail.Patient.Bed == "" {
		detail.Patient.Bed = row.Patient.Bed
	}
	if detail.Stay.Clinic == "" {
		detail.Stay.Clinic = row.Stay.Clinic
	}
	detail.Stay.StayCode = row.Stay.StayCode
	detail.Stay.WardBed = row.Stay.WardBed
	if detail.IssuedAt == "" {
		detail.IssuedAt = row.IssuedAt
	}
	detail.Code = row.Code
	*row = detail
}

// OverviewItem is one patient of a clinic overview. Err carries the
// per-patient failure; a bad patient never fails the batch.
type OverviewItem struct {
	Ref              types.PatientRef         `json:"ref"`
	Patient          *types.Patient           `json:"patient,omitempty"`
	RecentEvolutions []types.EvolutionSummary `json:"recentEvolutions,omitempty"`
	Err              string                   `json:"error,omitempty"`
}

type ClinicOverview struct {
	ClinicCode string         `json:"clinicCode"`
	Items      []OverviewItem `json:"items"`
}

// Overview walks a whole ward: record and recent notes for every admitted
// patient, fetched by the bounded worker pool, reported in bed-list order.
func (s *Service) Overview(ctx context.Context, clinicCode string) (ClinicOverview, error) {
	refs, err := s.PatientsOfClinic(ctx, clinicCode)
	if err != nil {
		return ClinicOverview{}, err
	}

	overview := ClinicOverview{
		ClinicCode: clinicCode,
		Items:      make([]OverviewItem, len(refs)),
	}
	runBounded(ctx, len(refs), s.workers, func(ctx context.Context, i int) {
		item := OverviewItem{Ref: refs[i]}

		patient, err := s.PatientRecord(ctx, refs[i].RecordID)
		if err != nil {
			item.Err = err.Error()
			overview.Items[i] = item
			return
		}
		item.Patient = &patient

		summaries, err := s.EvolutionSummaries(ctx, refs[i].RecordID, EvolutionOptions{Limit: 3})
		if err != nil {
			item.Err = err.Error()
		} else {
			item.RecentEvolutions = summaries
		}
		overview.Items[i] = item
	})

	return overview, nil
}

// Cache administration.

func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }
func (s *Service) ClearCache()             { s.cache.Clear() }
func (s *Service) CleanExpired() int       { return s.cache.CleanExpired() }

func (s *Service) InvalidatePatient(recordID string) int {
	return s.cache.InvalidatePatient(recordID)
}

func (s *Service) InvalidateType(queryType string) int {
	return s.cache.InvalidateType(queryType)
}

// Close releases the cache's background sweeper.
func (s *Service) Close() { s.cache.Close() }
