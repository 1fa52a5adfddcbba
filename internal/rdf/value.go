package rdf

import (
	"math"
	"strconv"
)

// NumericValue returns the value of a numeric literal. Ill-typed lexical
// forms and non-numeric terms report false.
func NumericValue(t Term) (float64, bool) {
	lit, ok := t.(Literal)
	if !ok || !lit.IsNumeric() {
		return 0, false
	}
	f, err := strconv.ParseFloat(lit.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// EffectiveBoolean returns the effective boolean value of t. Terms without
// one (IRIs, blank nodes, literals of other datatypes) report ok == false.
func EffectiveBoolean(t Term) (value, ok bool) {
	lit, isLit := t.(Literal)
	if !isLit {
		return false, false
	}
	switch {
	case lit.IsNumeric():
		f, valid := NumericValue(lit)
		// Ill-typed numeric literals are false.
		return valid && f != 0 && !math.IsNaN(f), true
	case lit.Datatype == XSDBoolean:
		return lit.Value == "true" || lit.Value == "1", true
	case lit.Datatype == XSDString, lit.Lang != "":
		return lit.Value != "", true
	default:
		return false, false
	}
}
