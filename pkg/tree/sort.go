package tree

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation selects how labels are compared when ordering siblings.
type Collation int

const (
	// CollationBinary compares labels byte-wise.
	CollationBinary Collation = iota
	// CollationLocale compares labels with the root-locale collation rules.
	CollationLocale
)

// ParseCollation maps a configuration value to a Collation.
func ParseCollation(s string) (Collation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary":
		return CollationBinary, nil
	case "locale":
		return CollationLocale, nil
	default:
		return CollationBinary, fmt.Errorf("unknown collation %q (want binary or locale)", s)
	}
}

func (c Collation) String() string {
	if c == CollationLocale {
		return "locale"
	}
	return "binary"
}

// comparer returns a three-way string comparison for the collation.
// A collate.Collator is not safe for concurrent use, so one is built per sort.
func (c Collation) comparer() func(a, b string) int {
	if c == CollationLocale {
		col := collate.New(language.Und)
		return col.CompareString
	}
	return strings.Compare
}

// SortByLabel orders nodes by label.
func SortByLabel(nodes []*Node, c Collation) {
	cmp := c.comparer()
	sort.SliceStable(nodes, func(i, j int) bool {
		return cmp(nodes[i].label, nodes[j].label) < 0
	})
}

// SortEntries orders directories before files, each group by label.
func SortEntries(nodes []*Node, c Collation) {
	cmp := c.comparer()
	sort.SliceStable(nodes, func(i, j int) bool {
		di, dj := nodes[i].kind == KindDirectory, nodes[j].kind == KindDirectory
		if di != dj {
			return di
		}
		return cmp(nodes[i].label, nodes[j].label) < 0
	})
}

// SortStrings orders keys with the collation.
func SortStrings(keys []string, c Collation) {
	cmp := c.comparer()
	sort.SliceStable(keys, func(i, j int) bool {
		return cmp(keys[i], keys[j]) < 0
	})
}
