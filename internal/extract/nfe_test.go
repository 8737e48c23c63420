package extract_test

import (
	"context"
	"strings"
	"testing"
	"time"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalia/nfe-auditor/internal/extract"
	"github.com/fiscalia/nfe-auditor/internal/model"
)

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240112345678000195550010000012341000012349" versao="4.00">
      <ide>
        <dhEmi>2024-01-15T10:30:00-03:00</dhEmi>
        <tpNF>1</tpNF>
      </ide>
      <emit>
        <CNPJ>12345678000195</CNPJ>
        <xNome>Fornecedora Exemplo Ltda</xNome>
      </emit>
      <det nItem="1">
        <prod>
          <xProd>Parafuso sextavado</xProd>
          <NCM>73181500</NCM>
          <CFOP>5102</CFOP>
          <qCom>10.0000</qCom>
          <vUnCom>5.0000</vUnCom>
          <vProd>50.00</vProd>
        </prod>
      </det>
      <det nItem="2">
        <prod>
          <xProd>Porca M8</xProd>
          <NCM>73181600</NCM>
          <CFOP>5102</CFOP>
          <qCom>20.0000</qCom>
          <vUnCom>5.0000</vUnCom>
          <vProd>100.00</vProd>
        </prod>
      </det>
      <total>
        <ICMSTot>
          <vBC>150.00</vBC>
          <vICMS>27.00</vICMS>
          <vIPI>0.00</vIPI>
          <vNF>150.00</vNF>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

func TestParse_DistributionEnvelope(t *testing.T) {
	parser := extract.NewNFEParser()

	doc, err := parser.Parse(context.Background(), strings.NewReader(sampleNFe))
	require.NoError(t, err)

	assert.Equal(t, model.KindNFeXML, doc.Kind)
	assert.Equal(t, "35240112345678000195550010000012341000012349", doc.AccessKey)
	assert.Equal(t, "12345678000195", doc.IssuerCNPJ)
	assert.True(t, doc.Total.Equal(dec.RequireFromString("150.00")))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	assert.Equal(t, "5102", doc.CFOP)
	assert.False(t, doc.Inbound)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, 1, doc.Items[0].Number)
	assert.Equal(t, "Parafuso sextavado", doc.Items[0].Description)
	assert.Equal(t, "73181500", doc.Items[0].NCM)
	assert.True(t, doc.Items[0].Total.Equal(dec.RequireFromString("50.00")))
	assert.True(t, doc.Items[1].Total.Equal(dec.RequireFromString("100.00")))

	require.NotNil(t, doc.ICMS)
	assert.True(t, doc.ICMS.Base.Equal(dec.RequireFromString("150.00")))
	assert.True(t, doc.ICMS.Amount.Equal(dec.RequireFromString("27.00")))
	assert.True(t, doc.ICMS.Rate.IsZero(), "totals block carries no rate")

	assert.Nil(t, doc.IPI, "zero vIPI does not produce a tax line")
}

func TestParse_BareNFeRoot(t *testing.T) {
	bare := strings.TrimSuffix(strings.TrimPrefix(sampleNFe, `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  `), `
</nfeProc>`)
	// Sanity: the trimmed payload starts at the NFe root
	require.True(t, strings.HasPrefix(bare, "<NFe>"))

	doc, err := extract.NewNFEParser().Parse(context.Background(), strings.NewReader(bare))
	require.NoError(t, err)
	assert.Equal(t, "35240112345678000195550010000012341000012349", doc.AccessKey)
	assert.Len(t, doc.Items, 2)
}

func TestParse_InboundOperation(t *testing.T) {
	inbound := strings.Replace(sampleNFe, "<tpNF>1</tpNF>", "<tpNF>0</tpNF>", 1)

	doc, err := extract.NewNFEParser().Parse(context.Background(), strings.NewReader(inbound))
	require.NoError(t, err)
	assert.True(t, doc.Inbound)
}

func TestParse_LegacyEmissionDate(t *testing.T) {
	legacy := strings.Replace(sampleNFe,
		"<dhEmi>2024-01-15T10:30:00-03:00</dhEmi>",
		"<dEmi>2023-11-30</dEmi>", 1)

	doc, err := extract.NewNFEParser().Parse(context.Background(), strings.NewReader(legacy))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), doc.IssueDate)
}

func TestParse_IPITotalMapped(t *testing.T) {
	withIPI := strings.Replace(sampleNFe, "<vIPI>0.00</vIPI>", "<vIPI>12.50</vIPI>", 1)

	doc, err := extract.NewNFEParser().Parse(context.Background(), strings.NewReader(withIPI))
	require.NoError(t, err)
	require.NotNil(t, doc.IPI)
	assert.True(t, doc.IPI.Amount.Equal(dec.RequireFromString("12.50")))
}

func TestParse_IssuerCPFFallback(t *testing.T) {
	byCPF := strings.Replace(sampleNFe,
		"<CNPJ>12345678000195</CNPJ>",
		"<CPF>52998224725</CPF>", 1)

	doc, err := extract.NewNFEParser().Parse(context.Background(), strings.NewReader(byCPF))
	require.NoError(t, err)
	assert.Equal(t, "52998224725", doc.IssuerCNPJ)
}

func TestParse_NotAnNFe(t *testing.T) {
	_, err := extract.NewNFEParser().Parse(context.Background(),
		strings.NewReader(`<?xml version="1.0"?><pedido><id>1</id></pedido>`))

	var extractionErr *model.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := extract.NewNFEParser().Parse(context.Background(),
		strings.NewReader(`<nfeProc><NFe><infNFe`))

	var extractionErr *model.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestParse_InvalidTotal(t *testing.T) {
	broken := strings.Replace(sampleNFe, "<vNF>150.00</vNF>", "<vNF>abc</vNF>", 1)

	_, err := extract.NewNFEParser().Parse(context.Background(), strings.NewReader(broken))
	require.Error(t, err)
}
