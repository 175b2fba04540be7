package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hicd.com/records/types"
)

const prescriptionListPage = `<html><body>
<table class="linhas_impressao_med">
	<tr><th>C&oacute;digo</th><th>Data</th><th>Paciente</th><th>Registro</th><th>Interna&ccedil;&atilde;o</th><th>Enf/Leito</th><th>Cl&iacute;nica</th></tr>
	<tr>
		<td>9001</td><td>12/03/2024 07:00</td><td>MARIA DA SILVA</td><td>123456</td><td>778899</td><td>007-12</td><td>UTI PEDIATRICA</td>
		<td><input type="button" onclick="window.open('imprime.php?id_prescricao=445001')"></td>
	</tr>
	<tr>
		<td>9002</td><td>11/03/2024 07:00</td><td>MARIA DA SILVA</td><td>123456</td><td>778899</td><td>007-12</td><td>UTI PEDIATRICA</td>
		<td><input type="button" onclick="window.open('imprime.php?id_prescricao=445000')"></td>
	</tr>
</table>
</body></html>`

func TestPrescriptions(t *testing.T) {
	doc := types.RawDocument{Kind: types.DocPrescriptionList, PatientID: "123456", Body: prescriptionListPage}

	got := Prescriptions(doc)

	require.Len(t, got, 2)
	first := got[0]
	require.Equal(t, "445001", first.ID)
	require.Equal(t, "9001", first.Code)
	require.Equal(t, "12/03/2024 07:00", first.IssuedAt)
	require.Equal(t, "MARIA DA SILVA", first.Patient.Name)
	require.Equal(t, "123456", first.Patient.RecordID)
	require.Equal(t, "123456", first.Patient.Register)
	require.Equal(t, "007-12", first.Patient.Bed)
	require.Equal(t, "778899", first.Stay.StayCode)
	require.Equal(t, "UTI PEDIATRICA", first.Stay.Clinic)
	require.Equal(t, "445000", got[1].ID)

	view := first.SummaryView()
	require.Equal(t, "445001", view.ID)
	require.Equal(t, "MARIA DA SILVA", view.PatientName)
}

const prescriptionDetailPage = `<html><body>
<font>Hospital Infantil</font>
<div>NOME : MARIA DA SILVA REGISTRO/BE: 123456 LEITO: 12</div>
<div>DT. NASC: 01/02/2015 IDADE: 9 anos CNS: 700000000000000 PESO: 12,5 Kg</div>
<div>INTERNADO EM: 01/03/2024 CLINICA/SETOR: UTI PEDIATRICA - HICD</div>
<div>Prescri&ccedil;&atilde;o v&aacute;lida para 12/03/2024</div>
<label class="valorV3">Medica&ccedil;&atilde;o LEGENDA</label>
<table border="1">
	<tr><td>1-</td><td>[ DIPIRONA 500MG/ML ] (25mg/kg), (Frasco), EV, 6/6h, ., .</td></tr>
	<tr><td>2-</td><td>[ CEFTRIAXONA 1G ] (50mg/kg), (Ampola), EV, 12/12h, correr lento, 7</td></tr>
</table>
<label class="valorV3">Medica&ccedil;&atilde;o n&atilde;o padronizada</label>
<table border="1">
	<tr><td>1-</td><td>MILRINONA  0,5mcg/kg/min  cont&iacute;nuo  EV  24h</td></tr>
</table>
<label class="valorV3">Dietas</label>
<table><tr><td>1-</td><td>Dieta enteral 100ml 3/3h</td></tr></table>
<label class="valorV3">CUIDADOS GERAIS</label>
<table><tr><td><label class="valorV3">1 - Cabeceira elevada 30&ordm;</label></td></tr></table>
<font>DIAGN&Oacute;STICO: Pneumonia grave THT: 100ml/kg/dia MED: em uso HV: SF 0,9% DIETA: enteral VM: PSV</font>
<label class="valorV3">SEDA&Ccedil;&Atilde;O: Midazolam cont&iacute;nuo</label>
<label class="valorV3">VENOSA: acesso central</label>
<b>M&Eacute;DICO:</b> DRA. ANA LIMA CRM: 1234-RO DATA: 12/03/2024 07:30
</body></html>`

func TestPrescriptionDetail(t *testing.T) {
	doc := types.RawDocument{Kind: types.DocPrescriptionDetail, PatientID: "123456", Body: prescriptionDetailPage}

	got := PrescriptionDetail(doc, "445001")

	require.Equal(t, "445001", got.ID)
	require.Equal(t, "MARIA DA SILVA", got.Patient.Name)
	require.Equal(t, "123456", got.Patient.RecordID)
	require.Equal(t, "12", got.Patient.Bed)
	require.Equal(t, "01/02/2015", got.Patient.BirthDate)
	require.Equal(t, "9 anos", got.Patient.Age)
	require.Equal(t, "700000000000000", got.Patient.CNS)
	require.Equal(t, "12,5 Kg", got.Patient.Weight)
	require.Equal(t, "01/03/2024", got.Stay.Admission)
	require.Equal(t, "UTI PEDIATRICA", got.Stay.Clinic)
	require.Equal(t, "12/03/2024", got.ValidFor)
	require.NoError(t, got.Validate())

	require.Len(t, got.Medications, 3)

	dipirona := got.Medications[0]
	require.Equal(t, "DIPIRONA 500MG/ML", dipirona.Name)
	require.Equal(t, "25mg/kg", dipirona.Dose)
	require.Equal(t, "Frasco", dipirona.Presentation)
	require.Equal(t, "EV", dipirona.Route)
	require.Equal(t, "6/6h", dipirona.Interval)
	require.Empty(t, dipirona.Note, "a lone dot means the field was left blank")
	require.Empty(t, dipirona.Days)
	require.False(t, dipirona.NonStandard)

	ceftriaxona := got.Medications[1]
	require.Equal(t, "correr lento", ceftriaxona.Note)
	require.Equal(t, "7", ceftriaxona.Days)

	milrinona := got.Medications[2]
	require.True(t, milrinona.NonStandard)
	require.Equal(t, "MILRINONA", milrinona.Name)
	require.Equal(t, "0,5mcg/kg/min", milrinona.Dose)
	require.Equal(t, "contínuo", milrinona.Posology)
	require.Equal(t, "EV", milrinona.Route)
	require.Equal(t, "24h", milrinona.Interval)

	require.Equal(t, []types.Diet{{Number: "1", Description: "Dieta enteral 100ml 3/3h"}}, got.Diets)

	kinds := got.NotesByKind()
	require.Contains(t, kinds, "Cuidado Geral")
	require.Contains(t, kinds, "Diagnóstico")
	require.Equal(t, "Pneumonia grave", kinds["Diagnóstico"][0].Text)
	require.Contains(t, kinds, "Sedação")
	require.Equal(t, "Midazolam contínuo", kinds["Sedação"][0].Text)
	require.Contains(t, kinds, "Terapia Venosa")

	require.Equal(t, "DRA. ANA LIMA", got.Physician.Name)
	require.Equal(t, "1234-RO", got.Physician.CRM)
	require.Equal(t, "12/03/2024 07:30", got.Physician.SignedAt)

	meds := got.MedicationsView()
	require.Equal(t, "445001", meds.ID)
	require.Len(t, meds.Medications, 3)
	require.Len(t, got.NonStandardMedications(), 1)
	require.Equal(t, got, got.DetailView())
}

func TestPrescriptionsEmptyPage(t *testing.T) {
	doc := types.RawDocument{Kind: types.DocPrescriptionList, PatientID: "1", Body: "<html></html>"}
	require.Empty(t, Prescriptions(doc))
}
