package tipi_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalia/nfe-auditor/internal/store"
	"github.com/fiscalia/nfe-auditor/internal/tipi"
)

func sampleTable() *tipi.Table {
	t := tipi.NewTable()
	t.Reload([]tipi.Record{
		{NCM: "0102.21.10", Description: "Bovinos reprodutores de raça pura, prenhes", Rate: "NT"},
		{NCM: "1234.56", Description: "Posição genérica", Rate: "5"},
		{NCM: "2203.00.00", Description: "Cervejas de malte", Rate: "6"},
		{NCM: "2203.00.00", Ex: "01", Description: "Chope", Rate: "4"},
	})
	return t
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"bare 8 digits", "22030000", "2203.00.00"},
		{"already dotted", "2203.00.00", "2203.00.00"},
		{"digits with stray separators", "2203-00-00", "2203.00.00"},
		{"parent code kept as-is", "1234.56", "1234.56"},
		{"non-standard length kept as-is", "22030", "22030"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tipi.Normalize(tt.in))
		})
	}
}

func TestResolve_ExactMatch(t *testing.T) {
	table := sampleTable()

	res := table.Resolve("2203.00.00")

	assert.True(t, res.Found)
	assert.Equal(t, "2203.00.00", res.Queried)
	assert.Equal(t, "6", res.Record.Rate)
	assert.Equal(t, "Cervejas de malte", res.Record.Description)
}

func TestResolve_NormalizesBeforeLookup(t *testing.T) {
	table := sampleTable()

	res := table.Resolve("22030000")

	assert.True(t, res.Found)
	assert.Equal(t, "2203.00.00", res.Queried)
	assert.Equal(t, "6", res.Record.Rate)
}

func TestResolve_ParentFallback(t *testing.T) {
	table := sampleTable()

	// 1234.56.78 is not indexed; its parent 1234.56 is
	res := table.Resolve("1234.56.78")

	assert.True(t, res.Found)
	assert.Equal(t, "1234.56.78", res.Queried, "queried code stays the original, not the resolved parent")
	assert.Equal(t, "1234.56", res.Record.NCM)
	assert.Equal(t, "5", res.Record.Rate)
}

func TestResolve_Miss(t *testing.T) {
	table := sampleTable()

	res := table.Resolve("9999.99.99")

	assert.False(t, res.Found)
	assert.Equal(t, "9999.99.99", res.Queried)
}

func TestResolve_NotTaxed(t *testing.T) {
	table := sampleTable()

	res := table.Resolve("0102.21.10")

	assert.True(t, res.Found)
	assert.Equal(t, tipi.RateNotTaxed, res.Record.Rate)
}

func TestReload_ReplacesContents(t *testing.T) {
	table := sampleTable()
	require.Equal(t, 4, table.Len())

	table.Reload([]tipi.Record{
		{NCM: "8471.30.12", Description: "Máquinas portáteis de processamento de dados", Rate: "0"},
	})

	assert.Equal(t, 1, table.Len())
	assert.False(t, table.Resolve("2203.00.00").Found)
	assert.True(t, table.Resolve("8471.30.12").Found)
}

func TestLoadJSON(t *testing.T) {
	payload := `[
		{"ncm": "2203.00.00", "ex": "", "descricao": "Cervejas de malte", "aliquota": "6"},
		{"ncm": "2203.00.00", "ex": "01", "descricao": "Chope", "aliquota": "4"}
	]`

	records, err := tipi.LoadJSON(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "01", records[1].Ex)
	assert.Equal(t, "4", records[1].Rate)
}

func TestLoadCSV(t *testing.T) {
	payload := "ncm,ex,descricao,aliquota\n" +
		"2203.00.00,,Cervejas de malte,6\n" +
		"2203.00.00,01,Chope,4\n"

	records, err := tipi.LoadCSV(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Cervejas de malte", records[0].Description)
	assert.Equal(t, "01", records[1].Ex)
}

func TestLoadCSV_BadHeader(t *testing.T) {
	payload := "codigo,ex,descricao,aliquota\n2203.00.00,,Cervejas,6\n"

	_, err := tipi.LoadCSV(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestImport_RoundTrip(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	records := []tipi.Record{
		{NCM: "2203.00.00", Description: "Cervejas de malte", Rate: "6"},
		{NCM: "2203.00.00", Ex: "01", Description: "Chope", Rate: "4"},
	}
	require.NoError(t, tipi.Import(ctx, st.DB(), records))

	loaded, err := tipi.LoadSQL(ctx, st.DB())
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	// Re-import replaces, never appends
	require.NoError(t, tipi.Import(ctx, st.DB(), records[:1]))
	loaded, err = tipi.LoadSQL(ctx, st.DB())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestImport_RefusesEmpty(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	err = tipi.Import(context.Background(), st.DB(), nil)
	require.Error(t, err)
}
