package core

import "fmt"

// Default sequence prefixes per document type.
const (
	DefaultInvoicePrefix = "FAC"
	DefaultQuotePrefix   = "COT"
	DefaultExpensePrefix = "GAS"
)

// DefaultPrefix returns the built-in sequence prefix for t.
func DefaultPrefix(t DocumentType) string {
	switch t {
	case TypeQuote:
		return DefaultQuotePrefix
	case TypeExpense:
		return DefaultExpensePrefix
	}
	return DefaultInvoicePrefix
}

// FormatID renders a sequential document code, e.g. FAC-0007.
func FormatID(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// AllocateID returns the first {prefix}-{nnnn} candidate, starting at nextNumber,
// that is not in existing, together with the number it consumed. The caller is
// responsible for persisting used+1 as the next sequence value.
func AllocateID(prefix string, nextNumber int, existing map[string]struct{}) (id string, used int) {
	if nextNumber < 1 {
		nextNumber = 1
	}
	n := nextNumber
	candidate := FormatID(prefix, n)
	for {
		if _, taken := existing[candidate]; !taken {
			return candidate, n
		}
		n++
		candidate = FormatID(prefix, n)
	}
}
