// Package taxid validates Brazilian taxpayer registry numbers.
//
// CNPJ (14 digits, companies) and CPF (11 digits, individuals) both carry
// two check digits computed with a weighted modulo-11 scheme: the weighted
// digit sum is reduced mod 11 and the expected digit is 0 when the
// remainder is below 2, otherwise 11 minus the remainder.
package taxid

import "strings"

var cnpjWeightsFirst = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
var cnpjWeightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// Normalize strips every non-digit character
func Normalize(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCNPJ reports whether the check digits of a CNPJ are correct.
// Punctuation is ignored. A CNPJ of all-identical digits is always invalid.
func ValidCNPJ(cnpj string) bool {
	digits := Normalize(cnpj)
	if len(digits) != 14 {
		return false
	}
	if allSame(digits) {
		return false
	}
	if checkDigit(digits, cnpjWeightsFirst) != int(digits[12]-'0') {
		return false
	}
	return checkDigit(digits, cnpjWeightsSecond) == int(digits[13]-'0')
}

// ValidCPF reports whether the check digits of a CPF are correct.
// Punctuation is ignored. A CPF of all-identical digits is always invalid.
func ValidCPF(cpf string) bool {
	digits := Normalize(cpf)
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}
	// First pass weights 10..2 over 9 digits, second pass 11..2 over 10.
	if cpfDigit(digits, 9) != int(digits[9]-'0') {
		return false
	}
	return cpfDigit(digits, 10) == int(digits[10]-'0')
}

// Valid dispatches on length: 14 digits validate as CNPJ, 11 as CPF
func Valid(id string) bool {
	switch len(Normalize(id)) {
	case 14:
		return ValidCNPJ(id)
	case 11:
		return ValidCPF(id)
	default:
		return false
	}
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	return digitFromRemainder(sum % 11)
}

func cpfDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	return digitFromRemainder(sum % 11)
}

func digitFromRemainder(r int) int {
	if r < 2 {
		return 0
	}
	return 11 - r
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
