// Package sector applies industry-specific rule profiles selected by the
// company's CNAE code.
//
// Profile selection is first-match on a fixed ordered prefix list, so a CNAE
// matching more than one prefix gets exactly one profile. Unmatched codes
// apply the empty profile.
package sector

import (
	"fmt"
	"strings"

	"github.com/fiscalia/nfe-auditor/internal/model"
)

// Profile is one closed set of supplementary sector rules
type Profile struct {
	Name string

	// AllowedCFOPs, when non-empty, is the set of operation codes expected
	// for the sector; other codes raise a medium alert.
	AllowedCFOPs []string

	// RequiredLevies must be present on the document (e.g. FUNRURAL)
	RequiredLevies []string

	// RequireIPI demands a present, non-zero IPI line
	RequireIPI bool

	// TrackInputs marks documents for raw-material input control
	TrackInputs bool
}

// Empty reports whether the profile carries no rules
func (p Profile) Empty() bool {
	return len(p.AllowedCFOPs) == 0 && len(p.RequiredLevies) == 0 &&
		!p.RequireIPI && !p.TrackInputs
}

// Agribusiness is the profile for CNAE division 01
var Agribusiness = Profile{
	Name:           "agronegócio",
	AllowedCFOPs:   []string{"5101", "5102", "5103"},
	RequiredLevies: []string{"FUNRURAL"},
}

// FoodIndustry is the profile for CNAE division 10
var FoodIndustry = Profile{
	Name:        "indústria alimentícia",
	RequireIPI:  true,
	TrackInputs: true,
}

// Ordered prefix table; first match wins
var profilesByPrefix = []struct {
	prefix  string
	profile Profile
}{
	{"01", Agribusiness},
	{"10", FoodIndustry},
}

// ProfileFor selects the rule profile for a CNAE code
func ProfileFor(cnae string) Profile {
	for _, entry := range profilesByPrefix {
		if strings.HasPrefix(cnae, entry.prefix) {
			return entry.profile
		}
	}
	return Profile{}
}

// Apply runs the profile rules over a document. It is a pure function of
// (document, profile) and returns findings to append to prior audit output.
func Apply(doc *model.FiscalDocument, p Profile) ([]model.Alert, []string) {
	var alerts []model.Alert
	var ok []string

	if len(p.AllowedCFOPs) > 0 {
		matched := false
		for _, cfop := range p.AllowedCFOPs {
			if doc.CFOP == cfop {
				matched = true
				break
			}
		}
		if matched {
			ok = append(ok, fmt.Sprintf("CFOP %s válido para o ramo de atividade", doc.CFOP))
		} else {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertCFOPIncompatible,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("CFOP %s pode não ser adequado para este ramo", doc.CFOP),
			})
		}
	}

	for _, levy := range p.RequiredLevies {
		if _, present := doc.Levies[levy]; !present {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertLevyMissing,
				Severity: model.SeverityHigh,
				Message:  fmt.Sprintf("Imposto %s deveria estar presente", levy),
			})
		}
	}

	if p.RequireIPI {
		if doc.IPI == nil || doc.IPI.Amount.IsZero() {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertIPIMissing,
				Severity: model.SeverityHigh,
				Message:  "Operação industrial sem IPI informado",
			})
		}
	}

	if p.TrackInputs {
		ok = append(ok, "Documento marcado para controle de insumos")
	}

	return alerts, ok
}
