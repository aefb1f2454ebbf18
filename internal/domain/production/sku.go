package production

import (
	"strings"
)

// UnknownAttribute is the size/color of items whose SKU cannot be parsed
const UnknownAttribute = "Unknown"

// sizeRank is the fixed display order of frame sizes
var sizeRank = map[string]int{
	"S":   0,
	"L":   1,
	"XL":  2,
	"HS":  3,
	"HX":  4,
	"XX":  5,
	"XXX": 6,
}

// ParseSKU extracts size and color from a SKU of the form ...-<SIZE>-<COLOR>.
// SKUs with fewer than three segments or a blank size/color segment resolve to Unknown.
func ParseSKU(sku string) (size, color string) {
	parts := strings.Split(strings.TrimSpace(sku), "-")
	if len(parts) < 3 {
		return UnknownAttribute, UnknownAttribute
	}
	size = strings.ToUpper(strings.TrimSpace(parts[len(parts)-2]))
	color = strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	if size == "" || color == "" {
		return UnknownAttribute, UnknownAttribute
	}
	return size, color
}

// LessSize orders sizes by the rank table. Unranked sizes follow ranked ones
// in lexical order, and Unknown sorts last.
func LessSize(a, b string) bool {
	if a == b {
		return false
	}
	if a == UnknownAttribute {
		return false
	}
	if b == UnknownAttribute {
		return true
	}
	ra, aRanked := sizeRank[a]
	rb, bRanked := sizeRank[b]
	switch {
	case aRanked && bRanked:
		return ra < rb
	case aRanked:
		return true
	case bRanked:
		return false
	}
	return a < b
}

// lessAttributes orders (size, color) pairs for display
func lessAttributes(sizeA, colorA, sizeB, colorB string) bool {
	if sizeA != sizeB {
		return LessSize(sizeA, sizeB)
	}
	if colorA == UnknownAttribute || colorB == UnknownAttribute {
		return colorB == UnknownAttribute && colorA != UnknownAttribute
	}
	return colorA < colorB
}
