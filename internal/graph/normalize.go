package graph

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName case-folds s, trims it and collapses internal whitespace to
// single spaces. It is the only key function for name and alias lookups.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
