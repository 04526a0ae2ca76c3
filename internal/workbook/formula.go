package workbook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

var (
	cellRefRx = regexp.MustCompile(`(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)`)
	rowRefRx  = regexp.MustCompile(`^(\$?)([0-9]+):(\$?)([0-9]+)$`)
)

// ShiftFormula moves every relative row reference in formula by delta rows.
// Absolute rows ($1) and text literals are left alone.
func ShiftFormula(formula string, delta int) string {
	if delta == 0 || formula == "" {
		return formula
	}
	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)

	var b strings.Builder
	for _, t := range tokens {
		switch {
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart:
			b.WriteString(t.TValue + "(")
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStop:
			b.WriteString(")")
		case t.TType == efp.TokenTypeSubexpression && t.TSubType == efp.TokenSubTypeStart:
			b.WriteString("(")
		case t.TType == efp.TokenTypeSubexpression && t.TSubType == efp.TokenSubTypeStop:
			b.WriteString(")")
		case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeText:
			b.WriteString(`"` + strings.ReplaceAll(t.TValue, `"`, `""`) + `"`)
		case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeRange:
			b.WriteString(shiftRange(t.TValue, delta))
		case t.TType == efp.TokenTypeOperatorInfix && t.TSubType == efp.TokenSubTypeIntersection:
			b.WriteString(" ")
		case t.TType == efp.TokenTypeWhitespace:
			b.WriteString(" ")
		default:
			b.WriteString(t.TValue)
		}
	}
	return b.String()
}

func shiftRange(ref string, delta int) string {
	prefix, body := "", ref
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		prefix, body = ref[:i+1], ref[i+1:]
	}

	if m := rowRefRx.FindStringSubmatch(body); m != nil {
		return prefix + m[1] + shiftRow(m[1], m[2], delta) + ":" + m[3] + shiftRow(m[3], m[4], delta)
	}

	body = cellRefRx.ReplaceAllStringFunc(body, func(s string) string {
		m := cellRefRx.FindStringSubmatch(s)
		return m[1] + m[2] + m[3] + shiftRow(m[3], m[4], delta)
	})
	return prefix + body
}

func shiftRow(dollar, row string, delta int) string {
	if dollar == "$" {
		return row
	}
	n, err := strconv.Atoi(row)
	if err != nil {
		return row
	}
	if n+delta < 1 {
		return row
	}
	return strconv.Itoa(n + delta)
}
