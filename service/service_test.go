package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hicd.com/records/clinical"
	"hicd.com/records/types"
)

type mockFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
}

func queryKey(q Query) string {
	switch q.Kind {
	case types.DocClinicList:
		return "clinics"
	case types.DocPatientList:
		return "patients:" + q.ClinicCode
	case types.DocPatientRecord:
		return "record:" + q.PatientID
	case types.DocEvolutionHistory:
		return "evolutions:" + q.PatientID
	case types.DocExamList:
		return "exams:" + q.PatientID
	case types.DocExamResult:
		return "examresult:" + q.RequisitionID
	case types.DocPrescriptionList:
		return "prescriptions:" + q.PatientID
	case types.DocPrescriptionDetail:
		return "prescription:" + q.PrescriptionID
	}
	return string(q.Kind)
}

func (m *mockFetcher) Fetch(ctx context.Context, q Query) (types.RawDocument, error) {
	key := queryKey(q)
	m.mu.Lock()
	m.calls = append(m.calls, key)
	delay := m.delays[key]
	err := m.errs[key]
	page, ok := m.pages[key]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return types.RawDocument{}, err
	}
	if !ok {
		return types.RawDocument{}, fmt.Errorf("no page for %s", key)
	}
	return types.RawDocument{Kind: q.Kind, PatientID: q.PatientID, Body: page}, nil
}

func (m *mockFetcher) callCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == key {
			n++
		}
	}
	return n
}

const clinicsPage = `<select name="clinica">
	<option value="0">Selecione</option>
	<option value="007">UTI PEDI&Aacute;TRICA</option>
	<option value="012">CLINICA CIRURGICA</option>
</select>`

func recordPage(id, name string) string {
	return fmt.Sprintf("<p>Registro: %s</p><p>Nome: %s</p>", id, name)
}

func evolutionBlock(date, professional, activity, body string) string {
	return fmt.Sprintf(`<div id="areaHistEvol">
		<td>Profissional:</td><td>%s</td>
		<td>Data Evolu&ccedil;&atilde;o:</td><td>%s</td>
		<td>Atividade:</td><td>%s</td>
		<div id="txtView">%s</div>
	</div>`, professional, date, activity, body)
}

func newTestService(t *testing.T, fetcher *mockFetcher, workers int) *Service {
	t.Helper()
	analyzer, err := clinical.NewAnalyzer(clinical.DefaultDefinitions())
	require.NoError(t, err)
	svc := New(fetcher, nil, analyzer, Options{BatchConcurrency: workers, SweepInterval: -1})
	t.Cleanup(svc.Close)
	return svc
}

func TestClinicsCachedAcrossCalls(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"clinics": clinicsPage}}
	svc := newTestService(t, fetcher, 2)

	ctx := context.Background()
	first, err := svc.Clinics(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.Clinics(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, fetcher.callCount("clinics"), "second call must come from the cache")
}

func TestSearchClinicsFoldsAccents(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"clinics": clinicsPage}}
	svc := newTestService(t, fetcher, 2)

	got, err := svc.SearchClinics(context.Background(), "pediatrica")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "007", got[0].Code)

	got, err = svc.SearchClinics(context.Background(), "PEDIÁTRICA")
	require.NoError(t, err)
	require.Len(t, got, 1)

	all, err := svc.SearchClinics(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestPatientRecordNotFound(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"record:404": "<html></html>"}}
	svc := newTestService(t, fetcher, 2)

	_, err := svc.PatientRecord(context.Background(), "404")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpstreamFailureNotCached(t *testing.T) {
	fetcher := &mockFetcher{
		pages: map[string]string{},
		errs:  map[string]error{"record:111": errors.New("timeout")},
	}
	svc := newTestService(t, fetcher, 2)

	_, err := svc.PatientRecord(context.Background(), "111")
	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)

	// Portal back up: the service must retry instead of replaying the failure.
	fetcher.mu.Lock()
	delete(fetcher.errs, "record:111")
	fetcher.pages["record:111"] = recordPage("111", "ANA")
	fetcher.mu.Unlock()

	p, err := svc.PatientRecord(context.Background(), "111")
	require.NoError(t, err)
	require.Equal(t, "ANA", p.Name)
	require.Equal(t, 2, fetcher.callCount("record:111"))
}

func TestEvolutionsLimitAndNewestFirst(t *testing.T) {
	page := evolutionBlock("01/03/2024 08:00", "DRA. ANA", "Evolução Médica", "nota antiga") +
		evolutionBlock("03/03/2024 08:00", "DRA. ANA", "Evolução Médica", "nota recente") +
		evolutionBlock("02/03/2024 08:00", "DRA. ANA", "Evolução Médica", "nota do meio")
	fetcher := &mockFetcher{pages: map[string]string{"evolutions:111": page}}
	svc := newTestService(t, fetcher, 2)

	got, err := svc.Evolutions(context.Background(), "111", EvolutionOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "03/03/2024 08:00", got[0].EvolutionDate)
	require.Equal(t, "02/03/2024 08:00", got[1].EvolutionDate)
}

func TestEvolutionsMedicalOnly(t *testing.T) {
	page := evolutionBlock("01/03/2024 08:00", "DRA. ANA", "Evolução Médica", "conduta") +
		evolutionBlock("01/03/2024 14:00", "TEC. CARLA", "Anotação de Enfermagem", "curativo")
	fetcher := &mockFetcher{pages: map[string]string{"evolutions:111": page}}
	svc := newTestService(t, fetcher, 2)

	got, err := svc.Evolutions(context.Background(), "111", EvolutionOptions{MedicalOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Evolução Médica", got[0].Activity)

	summaries, err := svc.EvolutionSummaries(context.Background(), "111", EvolutionOptions{MedicalOnly: true})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotEmpty(t, summaries[0].Summary)
}

func examListPageFor(reqs ...string) string {
	page := ""
	for _, r := range reqs {
		page += fmt.Sprintf(`<fieldset><legend>Informa&ccedil;&otilde;es:</legend>
			<table><tr><td>Requisi&ccedil;&atilde;o:</td><td>%s</td></tr></table></fieldset>
			<fieldset><legend>Exames:</legend>
			<a onclick="selecionaEx('X1')">Hemograma</a>
			<a onclick="imprimirEvo('%s','1')">Imprimir</a></fieldset>`, r, r)
	}
	return page
}

func examResultPageFor(group string) string {
	return fmt.Sprintf(`<table><tr><td class="sub_titulo">%s</td></tr>
		<tr><td>Item</td><td>1,0</td><td>u</td><td>0,5 - 2,0</td></tr></table>`, group)
}

func TestExamRequestsWithResultsKeepsOrder(t *testing.T) {
	fetcher := &mockFetcher{
		pages: map[string]string{
			"exams:111":     examListPageFor("R1", "R2"),
			"examresult:R1": examResultPageFor("Hemograma"),
			"examresult:R2": examResultPageFor("Coagulograma"),
		},
		delays: map[string]time.Duration{"examresult:R1": 30 * time.Millisecond},
	}
	svc := newTestService(t, fetcher, 2)

	got, err := svc.ExamRequests(context.Background(), "111", true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "R1", got[0].RequisitionID)
	require.Len(t, got[0].Results, 1)
	require.Equal(t, "Hemograma", got[0].Results[0].Name, "slow first requisition must keep its slot")
	require.Equal(t, "Coagulograma", got[1].Results[0].Name)
}

func TestExamRequestsWithoutResults(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"exams:111": examListPageFor("R1")}}
	svc := newTestService(t, fetcher, 2)

	got, err := svc.ExamRequests(context.Background(), "111", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Empty(t, got[0].Results)
	require.Equal(t, 0, fetcher.callCount("examresult:R1"))
}

const prescriptionRow = `<table class="linhas_impressao_med">
	<tr><td>9001</td><td>12/03/2024 07:00</td><td>MARIA</td><td>123456</td><td>778899</td><td>007-12</td><td>UTI</td>
	<td><input type="button" onclick="x('?id_prescricao=445001')"></td></tr></table>`

const prescriptionDetail = `<font>NOME : MARIA REGISTRO/BE: 123456 LEITO: 12</font>
	<label class="valorV3">Medica&ccedil;&atilde;o LEGENDA</label>
	<table border="1"><tr><td>1-</td><td>[ DIPIRONA ] (25mg/kg), (Frasco), EV, 6/6h, ., .</td></tr></table>
	<b>M&Eacute;DICO:</b> DRA. ANA CRM: 1234-RO DATA: 12/03/2024 07:30`

func TestPrescriptionsDetailedMergesListRow(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{
		"prescriptions:123456": prescriptionRow,
		"prescription:445001":  prescriptionDetail,
	}}
	svc := newTestService(t, fetcher, 2)

	got, err := svc.Prescriptions(context.Background(), "123456", true)
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	require.Equal(t, "445001", p.ID)
	require.Equal(t, "9001", p.Code, "list row fields survive the merge")
	require.Equal(t, "MARIA", p.Patient.Name)
	require.Len(t, p.Medications, 1)
	require.Equal(t, "DIPIRONA", p.Medications[0].Name)
	require.Equal(t, "DRA. ANA", p.Physician.Name)
	require.Equal(t, "UTI", p.Stay.Clinic)
}

const overviewPatients = `<table>
	<tr><td>ANA</td><td>111</td><td>01</td></tr>
	<tr><td>BIA</td><td>222</td><td>02</td></tr>
	<tr><td>CAIO</td><td>333</td><td>03</td></tr>
</table>`

func TestOverviewKeepsBedOrderAndIsolatesFailures(t *testing.T) {
	fetcher := &mockFetcher{
		pages: map[string]string{
			"patients:007":   overviewPatients,
			"record:111":     recordPage("111", "ANA"),
			"record:333":     recordPage("333", "CAIO"),
			"evolutions:111": evolutionBlock("01/03/2024 08:00", "DRA. ANA", "Evolução Médica", "ok"),
			"evolutions:333": evolutionBlock("01/03/2024 09:00", "DR. BETO", "Evolução Médica", "ok"),
		},
		errs:   map[string]error{"record:222": errors.New("timeout")},
		delays: map[string]time.Duration{"record:111": 30 * time.Millisecond},
	}
	svc := newTestService(t, fetcher, 2)

	overview, err := svc.Overview(context.Background(), "007")
	require.NoError(t, err)
	require.Len(t, overview.Items, 3)

	require.Equal(t, "111", overview.Items[0].Ref.RecordID, "slow patient keeps the first slot")
	require.NotNil(t, overview.Items[0].Patient)
	require.Equal(t, "ANA", overview.Items[0].Patient.Name)
	require.Len(t, overview.Items[0].RecentEvolutions, 1)

	require.Equal(t, "222", overview.Items[1].Ref.RecordID)
	require.Nil(t, overview.Items[1].Patient)
	require.NotEmpty(t, overview.Items[1].Err, "one bad patient must not fail the ward")

	require.Equal(t, "333", overview.Items[2].Ref.RecordID)
	require.NotNil(t, overview.Items[2].Patient)
}

func TestCacheAdminOps(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{
		"clinics":    clinicsPage,
		"record:111": recordPage("111", "ANA"),
	}}
	svc := newTestService(t, fetcher, 2)
	ctx := context.Background()

	_, err := svc.Clinics(ctx)
	require.NoError(t, err)
	_, err = svc.PatientRecord(ctx, "111")
	require.NoError(t, err)

	stats := svc.CacheStats()
	require.Equal(t, 2, stats.Entries)

	require.Equal(t, 1, svc.InvalidatePatient("111"))
	_, err = svc.PatientRecord(ctx, "111")
	require.NoError(t, err)
	require.Equal(t, 2, fetcher.callCount("record:111"))

	require.Equal(t, 1, svc.InvalidateType(QueryClinics))
	svc.ClearCache()
	require.Equal(t, 0, svc.CacheStats().Entries)
	require.Equal(t, 0, svc.CleanExpired())
}
