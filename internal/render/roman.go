// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"strings"
)

// MaxRoman is the largest value Roman can express without overline notation.
const MaxRoman = 3999

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"},
	{1, "I"},
}

// Roman converts n to an upper-case Roman numeral. n must be in 1..3999.
func Roman(n int) (string, error) {
	if n < 1 || n > MaxRoman {
		return "", fmt.Errorf("roman numeral out of range: %d", n)
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String(), nil
}

// SectionHeading formats the numbered heading of the n-th body section,
// e.g. "III. Methodology".
func SectionHeading(n int, title string) (string, error) {
	r, err := Roman(n)
	if err != nil {
		return "", err
	}
	return r + ". " + title, nil
}
