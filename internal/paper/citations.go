// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paper

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paperforge/pkg/types"
)

var (
	// citeGroupRe matches numeric citation groups like [3], [1, 4], [2-5].
	citeGroupRe = regexp.MustCompile(`\[(\d+(?:\s*[,\x{2013}-]\s*\d+)*)\]`)

	// refNumberRe matches the leading number of a reference entry: [12] ...
	refNumberRe = regexp.MustCompile(`^\s*\[(\d+)\]`)
)

// maxCiteRange bounds the expansion of a range like [1-9999].
const maxCiteRange = 200

// Citations returns the distinct citation numbers used in the section
// bodies and the abstract, in ascending order.
func Citations(p *types.GeneratedPaper) []int {
	seen := make(map[int]bool)
	scan := func(text string) {
		for _, m := range citeGroupRe.FindAllStringSubmatch(text, -1) {
			for _, n := range expandGroup(m[1]) {
				seen[n] = true
			}
		}
	}
	scan(p.Abstract)
	for _, s := range p.Sections {
		scan(s.Content)
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// expandGroup turns "1, 3-5" into [1 3 4 5].
func expandGroup(group string) []int {
	var out []int
	for _, part := range strings.Split(group, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(strings.ReplaceAll(part, "–", "-"), "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			continue
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil || b < a || b-a > maxCiteRange {
			out = append(out, a)
			continue
		}
		for n := a; n <= b; n++ {
			out = append(out, n)
		}
	}
	return out
}

// ReferenceNumbers returns the number of each reference entry. Entries that
// start with "[n]" use n; others are numbered by position.
func ReferenceNumbers(p *types.GeneratedPaper) map[int]bool {
	nums := make(map[int]bool, len(p.References))
	for i, ref := range p.References {
		if m := refNumberRe.FindStringSubmatch(ref); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				nums[n] = true
				continue
			}
		}
		nums[i+1] = true
	}
	return nums
}

// UnresolvedCitations lists citations in the text, formatted as "[n]", that
// have no matching reference entry.
func UnresolvedCitations(p *types.GeneratedPaper) []string {
	refs := ReferenceNumbers(p)
	var missing []string
	for _, n := range Citations(p) {
		if !refs[n] {
			missing = append(missing, fmt.Sprintf("[%d]", n))
		}
	}
	return missing
}
