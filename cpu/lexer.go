package cpu

import (
	"strconv"
	"strings"
)

// SourceLine is one source line reduced to its structural pieces: an
// optional label, an optional mnemonic-or-directive keyword, and the raw
// (unsplit) operand text that follows it. Comments have been stripped.
type SourceLine struct {
	LineNo      int
	Raw         string
	Label       string
	Op          string // upper-cased mnemonic or directive keyword, empty if none
	OperandText string
}

// stripComment removes everything from the first ';' onward.
func stripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		return line[:idx]
	}
	return line
}

var labelRegisterNames = map[string]Register{
	"A": REG_A, "R0": REG_R0, "R1": REG_R1,
}

// LexLine reduces one raw source line to a SourceLine, per spec.md 4.1
// steps 1-3. It does not interpret operands; ParseOperand and
// SplitOperands handle that once the caller knows whether Op names an
// instruction or a directive.
func LexLine(raw string, lineNo int) (*SourceLine, error) {
	line := stripComment(raw)
	trimmed := strings.TrimSpace(line)

	sl := &SourceLine{LineNo: lineNo, Raw: raw}

	if trimmed == "" {
		return sl, nil
	}

	if idx := strings.IndexByte(trimmed, ':'); idx >= 0 && isValidLabel(trimmed[:idx]) {
		sl.Label = trimmed[:idx]
		trimmed = strings.TrimSpace(trimmed[idx+1:])
	}

	if trimmed == "" {
		return sl, nil
	}

	fields := strings.SplitN(trimmed, " ", 2)
	sl.Op = upperFold(fields[0])
	if len(fields) == 2 {
		sl.OperandText = strings.TrimSpace(fields[1])
	}

	// Tab-separated mnemonic/operand fallback (SplitN on space alone
	// leaves the operand text glued to a tab).
	if sl.OperandText == "" {
		if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
			sl.Op = upperFold(trimmed[:idx])
			sl.OperandText = strings.TrimSpace(trimmed[idx+1:])
		}
	}

	return sl, nil
}

func isValidLabel(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// SplitOperands splits a comma-separated operand list at top-level
// commas only, treating '[' ']' and quote pairs as non-splitting.
func SplitOperands(text string) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(text[start:i]))
			start = i + 1
		}
	}
	if start <= len(text) {
		rest := strings.TrimSpace(text[start:])
		if rest != "" || len(out) > 0 {
			out = append(out, rest)
		}
	}
	return out
}

// ParseOperand classifies one operand token by its leading character, per
// spec.md 4.1 step 4-5.
func ParseOperand(token string) (Operand, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Operand{}, ErrMalformedOperand
	}

	if reg, ok := labelRegisterNames[upperFold(token)]; ok {
		return Operand{Kind: OperandRegister, Reg: reg}, nil
	}

	switch token[0] {
	case '#':
		expr, err := parseExpr(token[1:])
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OperandImmediate, Value: expr}, nil
	case '[':
		if !strings.HasSuffix(token, "]") {
			return Operand{}, ErrMalformedOperand
		}
		inner := strings.TrimSpace(token[1 : len(token)-1])
		return parseBracketed(inner)
	default:
		expr, err := parseExpr(token)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OperandBare, Value: expr}, nil
	}
}

// parseBracketed handles the contents of '[...]': direct addressing
// ("[expr]") or indexed addressing ("[Rn]", "[Rn+expr]", "[Rn-expr]").
func parseBracketed(inner string) (Operand, error) {
	for _, reg := range []Register{REG_R0, REG_R1} {
		name := reg.String()
		switch {
		case upperFold(inner) == name:
			return Operand{Kind: OperandIndexed, Reg: reg, Value: litExpr(0)}, nil
		case len(inner) > len(name) && upperFold(inner[:len(name)]) == name &&
			(inner[len(name)] == '+' || inner[len(name)] == '-'):
			sign := inner[len(name)]
			rest := strings.TrimSpace(inner[len(name)+1:])
			expr, err := parseSignedExpr(sign, rest)
			if err != nil {
				return Operand{}, err
			}
			return Operand{Kind: OperandIndexed, Reg: reg, Value: expr}, nil
		}
	}

	expr, err := parseExpr(inner)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Kind: OperandDirect, Value: expr}, nil
}

// parseSignedExpr resolves a "+expr" or "-expr" offset to its two's
// complement 8-bit encoding, rejecting magnitudes outside [-128,127].
func parseSignedExpr(sign byte, text string) (Expr, error) {
	if isIdentifier(text) {
		if sign == '-' {
			// A symbol cannot be negated; spec.md only allows literal
			// signed offsets.
			return Expr{}, ErrMalformedOperand
		}
		return symExpr(text), nil
	}
	v, err := parseNumber(text)
	if err != nil {
		return Expr{}, err
	}
	signed := int(v)
	if sign == '-' {
		signed = -signed
	}
	if signed < -128 || signed > 127 {
		return Expr{}, ErrNumberOutOfRange
	}
	return litExpr(uint8(int8(signed))), nil
}

// parseExpr resolves a token to a literal 0..255 or a symbol reference.
func parseExpr(text string) (Expr, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Expr{}, ErrMalformedOperand
	}
	if isIdentifier(text) {
		return symExpr(text), nil
	}
	v, err := parseNumber(text)
	if err != nil {
		return Expr{}, err
	}
	return litExpr(v), nil
}

// isIdentifier reports whether text is a bare identifier (not a numeric
// literal): starts with a letter or underscore.
func isIdentifier(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

// parseNumber parses a decimal, "0x" hex, or "0b" binary literal with an
// optional leading '-'. Every caller gets the same range, [-128,255],
// with negative values masked to 8 bits (see SPEC_FULL.md 4.2's .DB
// Open Question resolution).
func parseNumber(text string) (uint8, error) {
	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = text[1:]
	}

	var v int64
	var err error
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		v, err = strconv.ParseInt(text[2:], 16, 64)
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		v, err = strconv.ParseInt(text[2:], 2, 64)
	default:
		v, err = strconv.ParseInt(text, 10, 64)
	}
	if err != nil {
		return 0, ErrNumberOutOfRange
	}
	if neg {
		v = -v
	}
	if v < -128 || v > 255 {
		return 0, ErrNumberOutOfRange
	}
	return uint8(int64(v) & 0xFF), nil
}

// decodeStringLiteral decodes the escapes recognised inside a .DS string
// literal (\n \t \r \0 \\), per spec.md 4.1, and rejects non-ASCII bytes
// per SPEC_FULL.md 4.1's original_source-derived rule.
func decodeStringLiteral(s string) ([]byte, error) {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 >= len(s) {
				return nil, ErrUnterminatedString
			}
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '0':
				out = append(out, 0)
			case '\\':
				out = append(out, '\\')
			default:
				return nil, ErrBadEscape
			}
			continue
		}
		if c > 0x7F {
			return nil, ErrNonASCII
		}
		out = append(out, c)
	}
	return out, nil
}
