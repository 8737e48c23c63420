// Package extract turns raw document sources into canonical FiscalDocuments.
// Structured NF-e XML is parsed directly; scanned PDFs go through the text
// layer and the LLM extractor.
package extract

import (
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiscalia/nfe-auditor/internal/model"
)

// NF-e XML structures (portalfiscal.inf.br/nfe schema)
type nfeProc struct {
	XMLName xml.Name `xml:"nfeProc"`
	NFe     nfeNFe   `xml:"NFe"`
}

type nfeNFe struct {
	InfNFe nfeInfNFe `xml:"infNFe"`
}

type nfeInfNFe struct {
	ID    string   `xml:"Id,attr"`
	Ide   nfeIde   `xml:"ide"`
	Emit  nfeEmit  `xml:"emit"`
	Det   []nfeDet `xml:"det"`
	Total nfeTotal `xml:"total"`
}

type nfeIde struct {
	DhEmi string `xml:"dhEmi"`
	DEmi  string `xml:"dEmi"`
	TpNF  string `xml:"tpNF"`
}

type nfeEmit struct {
	CNPJ string `xml:"CNPJ"`
	CPF  string `xml:"CPF"`
}

type nfeDet struct {
	NItem string  `xml:"nItem,attr"`
	Prod  nfeProd `xml:"prod"`
}

type nfeProd struct {
	XProd  string `xml:"xProd"`
	NCM    string `xml:"NCM"`
	CFOP   string `xml:"CFOP"`
	QCom   string `xml:"qCom"`
	VUnCom string `xml:"vUnCom"`
	VProd  string `xml:"vProd"`
}

type nfeTotal struct {
	ICMSTot nfeICMSTot `xml:"ICMSTot"`
}

type nfeICMSTot struct {
	VBC   string `xml:"vBC"`
	VICMS string `xml:"vICMS"`
	VIPI  string `xml:"vIPI"`
	VNF   string `xml:"vNF"`
}

// NFEParser parses structured NF-e XML records
type NFEParser struct{}

// NewNFEParser creates a new NF-e parser
func NewNFEParser() *NFEParser {
	return &NFEParser{}
}

// Parse parses NF-e XML into a FiscalDocument. Both the bare <NFe> root
// and the <nfeProc> distribution envelope are accepted.
func (p *NFEParser) Parse(ctx context.Context, r io.Reader) (*model.FiscalDocument, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewExtractionError("xml", "failed to read content", err)
	}

	var inf nfeInfNFe

	var proc nfeProc
	if err := xml.Unmarshal(content, &proc); err == nil && proc.NFe.InfNFe.ID != "" {
		inf = proc.NFe.InfNFe
	} else {
		var nfe nfeNFe
		if err := xml.Unmarshal(content, &nfe); err != nil {
			return nil, model.NewExtractionError("xml", "failed to parse NF-e XML", err)
		}
		inf = nfe.InfNFe
	}

	if inf.ID == "" && inf.Emit.CNPJ == "" && len(inf.Det) == 0 {
		return nil, model.NewExtractionError("xml", "document is not an NF-e", nil)
	}

	return p.convert(&inf)
}

func (p *NFEParser) convert(inf *nfeInfNFe) (*model.FiscalDocument, error) {
	doc := &model.FiscalDocument{
		Kind:      model.KindNFeXML,
		AccessKey: strings.TrimPrefix(inf.ID, "NFe"),
	}

	doc.IssuerCNPJ = inf.Emit.CNPJ
	if doc.IssuerCNPJ == "" {
		doc.IssuerCNPJ = inf.Emit.CPF
	}

	// tpNF: 0 = entrada, 1 = saída
	doc.Inbound = inf.Ide.TpNF == "0"

	if date, err := parseEmissionDate(inf.Ide); err == nil {
		doc.IssueDate = date
	}

	total, err := parseDecimal(inf.Total.ICMSTot.VNF)
	if err != nil {
		return nil, model.NewExtractionError("xml", "invalid document total", err)
	}
	doc.Total = total

	for i, det := range inf.Det {
		item, err := convertItem(i, det)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, item)
		if doc.CFOP == "" {
			doc.CFOP = det.Prod.CFOP
		}
	}

	if icms, ok := convertICMSTotal(inf.Total.ICMSTot); ok {
		doc.ICMS = icms
	}
	if ipi, err := parseDecimal(inf.Total.ICMSTot.VIPI); err == nil && !ipi.IsZero() {
		doc.IPI = &model.TaxDetail{Amount: ipi}
	}

	return doc, nil
}

func convertItem(index int, det nfeDet) (model.LineItem, error) {
	number, err := strconv.Atoi(det.NItem)
	if err != nil || number <= 0 {
		number = index + 1
	}

	item := model.LineItem{
		Number:      number,
		Description: det.Prod.XProd,
		NCM:         det.Prod.NCM,
	}

	if item.Quantity, err = parseDecimal(det.Prod.QCom); err != nil {
		return item, model.NewExtractionError("xml", "invalid item quantity", err)
	}
	if item.UnitPrice, err = parseDecimal(det.Prod.VUnCom); err != nil {
		return item, model.NewExtractionError("xml", "invalid item unit price", err)
	}
	if item.Total, err = parseDecimal(det.Prod.VProd); err != nil {
		return item, model.NewExtractionError("xml", "invalid item total", err)
	}
	return item, nil
}

// The ICMS totals block carries base and amount but no rate; the rate-aware
// recomputation only runs when a rate reaches the document from elsewhere
// (e.g. a pre-built record), so only base and amount are mapped here.
func convertICMSTotal(tot nfeICMSTot) (*model.TaxDetail, bool) {
	base, errBase := parseDecimal(tot.VBC)
	amount, errAmount := parseDecimal(tot.VICMS)
	if errBase != nil || errAmount != nil {
		return nil, false
	}
	if base.IsZero() && amount.IsZero() {
		return nil, false
	}
	return &model.TaxDetail{Base: base, Amount: amount}, true
}

func parseEmissionDate(ide nfeIde) (time.Time, error) {
	raw := ide.DhEmi
	if raw == "" {
		raw = ide.DEmi
	}
	// dhEmi is RFC 3339 with offset; older notes carry a bare dEmi date
	if idx := strings.Index(raw, "T"); idx > 0 {
		raw = raw[:idx]
	}
	return time.Parse("2006-01-02", raw)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}
