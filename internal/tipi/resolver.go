package tipi

import "strings"

// maxLookups bounds the parent-fallback walk. A full NCM has three
// dot-separated segments, so the walk visits at most the code itself and
// its two ancestors; the explicit bound also terminates the loop for
// malformed inputs.
const maxLookups = 3

// Resolution is the outcome of an NCM lookup. A miss is a legitimate
// "no classification available" result, not an error.
type Resolution struct {
	// Queried preserves the normalized code originally asked for,
	// which may be more specific than the resolved record's NCM.
	Queried string `json:"ncm_consultado"`
	Found   bool   `json:"encontrado"`
	Record  Record `json:"registro,omitempty"`
}

// Normalize strips non-digits and reformats exact 8-digit codes as
// DDDD.DD.DD. Shorter inputs are assumed to already be dotted parent codes.
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 8 {
		return digits[:4] + "." + digits[4:6] + "." + digits[6:]
	}
	return code
}

// Resolve looks an NCM code up, walking up the code hierarchy when the
// exact code is absent: many product families only carry rates at coarser
// granularities, so leaf lookups routinely miss.
func (t *Table) Resolve(code string) Resolution {
	normalized := Normalize(code)
	res := Resolution{Queried: normalized}

	current := normalized
	for i := 0; i < maxLookups; i++ {
		if record, ok := t.lookup(current, ""); ok {
			res.Found = true
			res.Record = record
			return res
		}
		dot := strings.LastIndex(current, ".")
		if dot < 0 {
			break
		}
		current = current[:dot]
	}
	return res
}
