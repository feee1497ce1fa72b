package cpu

import "fmt"

// Expr is a not-yet-resolved operand value: either a literal already
// known at parse time, or an identifier to be looked up in the symbol
// table during pass 2.
type Expr struct {
	Literal uint8
	Symbol  string
	IsSym   bool
}

func litExpr(v uint8) Expr        { return Expr{Literal: v} }
func symExpr(name string) Expr    { return Expr{Symbol: name, IsSym: true} }

// Resolve returns the expression's value, looking it up in the symbol
// table if it names an identifier.
func (e Expr) Resolve(symbols SymbolTable) (value uint8, err error) {
	if !e.IsSym {
		return e.Literal, nil
	}
	v, ok := symbols[e.Symbol]
	if !ok {
		return 0, &SymbolError{Symbol: e.Symbol, Err: ErrSymbolUndefined}
	}
	return v, nil
}

// OperandKind discriminates the tagged Operand variant.
type OperandKind int

const (
	OperandImmediate OperandKind = iota
	OperandRegister
	OperandDirect
	OperandIndexed
	// OperandBare is a bare number or identifier with no '#' or '['
	// marker (spec.md 4.1 step 5): its meaning as an immediate or an
	// address is decided by the instruction that consumes it.
	OperandBare
)

// Operand is the parsed representation of one instruction operand, per
// spec.md 3 / 9: an immediate, a bare register, a direct memory
// reference, or a register-indexed memory reference with a signed
// two's-complement offset.
type Operand struct {
	Kind   OperandKind
	Reg    Register // valid for OperandRegister and OperandIndexed (index register)
	Value  Expr     // valid for OperandImmediate, OperandDirect, and OperandIndexed (offset)
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandImmediate:
		return "#" + exprString(o.Value)
	case OperandRegister:
		return o.Reg.String()
	case OperandDirect:
		return "[" + exprString(o.Value) + "]"
	case OperandIndexed:
		return "[" + o.Reg.String() + "+" + exprString(o.Value) + "]"
	case OperandBare:
		return exprString(o.Value)
	default:
		return "?"
	}
}

func exprString(e Expr) string {
	if e.IsSym {
		return e.Symbol
	}
	return fmt.Sprintf("0x%02X", e.Literal)
}
