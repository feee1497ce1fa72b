// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"io"
	"strings"
)

type directiveKind int

const (
	dirNone directiveKind = iota
	dirOrg
	dirEqu
	dirDb
	dirDs
)

// dbItem is one comma-separated .DB operand: either a literal string's
// bytes or a single expression to be masked to 8 bits.
type dbItem struct {
	chars []byte
	expr  Expr
	isStr bool
}

// item is one fully tokenized source line, produced once and walked
// twice (pass 1 for sizes/symbols, pass 2 for bytes/listing), per
// spec.md 4.2's two-pass data flow.
type item struct {
	lineNo    int
	raw       string
	label     string
	directive directiveKind
	equName   string
	equValue  Expr
	orgValue  Expr
	dbItems   []dbItem
	dsBytes   []byte // includes the automatic NUL terminator

	hasMnemonic bool
	mnemonic    Mnemonic
	operands    []Operand

	size int
}

// Assembler runs the two-pass EDU-CPU assembly described in spec.md 4.2.
type Assembler struct {
	Symbols SymbolTable
}

// Parse reads assembly source from r and assembles it into a Program,
// running pass 1 (sizes and symbols) then pass 2 (bytes and listing).
func (asm *Assembler) Parse(r io.Reader) (*Program, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(raw), "\n")

	items := make([]item, 0, len(lines))
	for n, raw := range lines {
		lineNo := n + 1
		it, err := tokenizeLine(raw, lineNo)
		if err != nil {
			return nil, &LineError{LineNo: lineNo, Line: raw, Err: err}
		}
		items = append(items, *it)
	}

	symbols, err := asm.pass1(items)
	if err != nil {
		return nil, err
	}
	asm.Symbols = symbols

	image, listing, err := asm.pass2(items, symbols)
	if err != nil {
		return nil, err
	}

	return &Program{Image: image, Listing: listing, Symbols: symbols}, nil
}

// tokenizeLine lexes a raw line and, based on its keyword, parses it into
// directive fields or an instruction's operand list.
func tokenizeLine(raw string, lineNo int) (*item, error) {
	sl, err := LexLine(raw, lineNo)
	if err != nil {
		return nil, err
	}

	it := &item{lineNo: lineNo, raw: raw, label: sl.Label}

	switch sl.Op {
	case "":
		return it, nil
	case ".ORG":
		it.directive = dirOrg
		expr, err := parseExpr(sl.OperandText)
		if err != nil {
			return nil, err
		}
		it.orgValue = expr
		return it, nil
	case ".EQU":
		it.directive = dirEqu
		parts := SplitOperands(sl.OperandText)
		if len(parts) != 2 {
			return nil, ErrMalformedOperand
		}
		it.equName = parts[0]
		expr, err := parseExpr(parts[1])
		if err != nil {
			return nil, err
		}
		it.equValue = expr
		return it, nil
	case ".DB":
		it.directive = dirDb
		items, err := parseDbItems(sl.OperandText)
		if err != nil {
			return nil, err
		}
		it.dbItems = items
		for _, di := range items {
			if di.isStr {
				it.size += len(di.chars)
			} else {
				it.size++
			}
		}
		return it, nil
	case ".DS":
		it.directive = dirDs
		bytes, err := parseDsString(sl.OperandText)
		if err != nil {
			return nil, err
		}
		it.dsBytes = append(bytes, 0x00)
		it.size = len(it.dsBytes)
		return it, nil
	}

	m, ok := LookupMnemonic(sl.Op)
	if !ok {
		return nil, ErrUnknownMnemonic
	}
	it.hasMnemonic = true
	it.mnemonic = m

	operands, err := parseInstructionOperands(m, sl.OperandText)
	if err != nil {
		return nil, err
	}
	it.operands = operands
	it.size = instructionItemSize(m, operands)
	return it, nil
}

// parseDbItems splits a .DB operand list on top-level commas, classifying
// each item as a quoted string or a numeric/symbol expression.
func parseDbItems(text string) ([]dbItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts := SplitOperands(text)
	out := make([]dbItem, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && (p[0] == '"' || p[0] == '\'') && p[len(p)-1] == p[0] {
			chars, err := decodeStringLiteral(p[1 : len(p)-1])
			if err != nil {
				return nil, err
			}
			out = append(out, dbItem{isStr: true, chars: chars})
			continue
		}
		expr, err := parseExpr(p)
		if err != nil {
			return nil, err
		}
		out = append(out, dbItem{expr: expr})
	}
	return out, nil
}

// parseDsString requires a single quoted string literal operand.
func parseDsString(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != '"' && text[0] != '\'') || text[len(text)-1] != text[0] {
		return nil, ErrMalformedOperand
	}
	return decodeStringLiteral(text[1 : len(text)-1])
}

// parseInstructionOperands splits and parses the operand list for the
// given mnemonic, per the operand-count rules of spec.md 4.1/4.2.
func parseInstructionOperands(m Mnemonic, text string) ([]Operand, error) {
	switch m {
	case RET, NOP, HLT:
		if strings.TrimSpace(text) != "" {
			return nil, ErrExtraOperand
		}
		return nil, nil
	case LD, ST:
		parts := SplitOperands(text)
		if len(parts) != 2 {
			if len(parts) < 2 {
				return nil, ErrMissingOperand
			}
			return nil, ErrExtraOperand
		}
		dst, err := ParseOperand(parts[0])
		if err != nil {
			return nil, err
		}
		if dst.Kind != OperandRegister {
			return nil, ErrMalformedOperand
		}
		src, err := ParseOperand(parts[1])
		if err != nil {
			return nil, err
		}
		return []Operand{dst, src}, nil
	case ADD, SUB, AND, OR, XOR, CMP, JMP, CALL, BZ, BNZ, BC, BNC, PUSH, POP, INC, DEC:
		parts := SplitOperands(text)
		if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
			return nil, ErrMissingOperand
		}
		if len(parts) > 1 {
			return nil, ErrExtraOperand
		}
		op, err := ParseOperand(parts[0])
		if err != nil {
			return nil, err
		}
		if (m == PUSH || m == POP || m == INC || m == DEC) && op.Kind != OperandRegister {
			return nil, ErrMalformedOperand
		}
		return []Operand{op}, nil
	default:
		return nil, ErrUnknownMnemonic
	}
}

// instructionItemSize computes the byte size of an instruction from its
// mnemonic and the addressing mode of its data operand, per spec.md 4.2.
func instructionItemSize(m Mnemonic, operands []Operand) int {
	switch m {
	case LD:
		mode, _, _, _ := classifyOperand(operands[1], false)
		return InstructionSize(m, mode)
	case ST:
		mode, _, _, _ := classifyOperand(operands[1], true)
		return InstructionSize(m, mode)
	case ADD, SUB, AND, OR, XOR, CMP:
		mode, _, _, _ := classifyOperand(operands[0], false)
		return InstructionSize(m, mode)
	default:
		return InstructionSize(m, MODE_IMMEDIATE)
	}
}

// pass1 walks the tokenized program, building the symbol table and
// tracking the location counter, per spec.md 4.2 Pass 1.
func (asm *Assembler) pass1(items []item) (SymbolTable, error) {
	symbols := SymbolTable{}
	var loc uint16

	for _, it := range items {
		if it.label != "" {
			if _, dup := symbols[it.label]; dup {
				return nil, &LineError{LineNo: it.lineNo, Line: it.raw,
					Err: &SymbolError{Symbol: it.label, Err: ErrSymbolDuplicate}}
			}
			symbols[it.label] = uint8(loc)
		}

		switch it.directive {
		case dirOrg:
			v, err := it.orgValue.Resolve(symbols)
			if err != nil {
				return nil, &LineError{LineNo: it.lineNo, Line: it.raw, Err: err}
			}
			loc = uint16(v)
			continue
		case dirEqu:
			if _, dup := symbols[it.equName]; dup {
				return nil, &LineError{LineNo: it.lineNo, Line: it.raw,
					Err: &SymbolError{Symbol: it.equName, Err: ErrSymbolDuplicate}}
			}
			v, err := it.equValue.Resolve(symbols)
			if err != nil {
				return nil, &LineError{LineNo: it.lineNo, Line: it.raw, Err: err}
			}
			symbols[it.equName] = v
			continue
		}

		loc += uint16(it.size)
	}

	return symbols, nil
}

// pass2 walks the tokenized program a second time, resolving symbols and
// emitting bytes into the image and listing, per spec.md 4.2 Pass 2.
func (asm *Assembler) pass2(items []item, symbols SymbolTable) (AddressMap, []ListingRecord, error) {
	image := AddressMap{}
	listing := make([]ListingRecord, 0, len(items))
	var loc uint16

	for _, it := range items {
		switch it.directive {
		case dirOrg:
			v, err := it.orgValue.Resolve(symbols)
			if err != nil {
				return nil, nil, &LineError{LineNo: it.lineNo, Line: it.raw, Err: err}
			}
			loc = uint16(v)
			listing = append(listing, ListingRecord{Source: it.raw})
			continue
		case dirEqu:
			listing = append(listing, ListingRecord{Source: it.raw})
			continue
		}

		if !it.hasMnemonic && it.directive == dirNone && len(it.dbItems) == 0 && len(it.dsBytes) == 0 {
			listing = append(listing, ListingRecord{Source: it.raw})
			continue
		}

		start := loc
		var emitted []byte
		var err error

		switch it.directive {
		case dirDb:
			emitted, err = renderDb(it.dbItems, symbols)
		case dirDs:
			emitted = it.dsBytes
		default:
			emitted, err = encodeInstruction(it, start, symbols)
		}
		if err != nil {
			return nil, nil, &LineError{LineNo: it.lineNo, Line: it.raw, Err: err}
		}

		for i, b := range emitted {
			addr := int(start) + i
			if addr > 0xFF {
				return nil, nil, &LineError{LineNo: it.lineNo, Line: it.raw, Err: ErrAddressOverflow}
			}
			image[uint8(addr)] = b
		}

		listing = append(listing, ListingRecord{Address: start, HasAddress: true, Bytes: emitted, Source: it.raw})
		loc = start + uint16(len(emitted))
	}

	return image, listing, nil
}

// renderDb resolves a .DB item list to its emitted bytes. Negative
// literals (the Open Question resolution in SPEC_FULL.md 4.2) arrive
// here already masked to 8 bits by parseNumber.
func renderDb(items []dbItem, symbols SymbolTable) ([]byte, error) {
	var out []byte
	for _, di := range items {
		if di.isStr {
			out = append(out, di.chars...)
			continue
		}
		v, err := di.expr.Resolve(symbols)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// encodeInstruction encodes one instruction item to its opcode (and
// optional operand) bytes, resolving symbols against the final table.
func encodeInstruction(it item, start uint16, symbols SymbolTable) ([]byte, error) {
	m := it.mnemonic
	switch m {
	case RET:
		return []byte{OpcodeRET}, nil
	case NOP:
		return []byte{OpcodeNOP}, nil
	case HLT:
		return []byte{OpcodeHLT}, nil
	case LD, ST:
		return encodeLoadStoreInstruction(m, it.operands, symbols)
	case ADD, SUB, AND, OR, XOR, CMP:
		return encodeALUInstruction(m, it.operands[0], symbols)
	case JMP:
		v, err := resolveAddressOperand(it.operands[0], symbols)
		if err != nil {
			return nil, err
		}
		return []byte{OpcodeJMP, v}, nil
	case CALL:
		v, err := resolveAddressOperand(it.operands[0], symbols)
		if err != nil {
			return nil, err
		}
		return []byte{OpcodeCALL, v}, nil
	case BZ, BNZ, BC, BNC:
		return encodeBranchInstruction(m, it.operands[0], start, symbols)
	case PUSH, POP, INC, DEC:
		reg := it.operands[0].Reg
		opcode, err := encodeCompound(m, reg)
		if err != nil {
			return nil, err
		}
		return []byte{opcode}, nil
	default:
		return nil, ErrUnknownMnemonic
	}
}

func encodeLoadStoreInstruction(m Mnemonic, operands []Operand, symbols SymbolTable) ([]byte, error) {
	isStore := m == ST
	primary := operands[0].Reg
	mode, other, valExpr, err := classifyOperand(operands[1], isStore)
	if err != nil {
		return nil, err
	}
	value, err := valExpr.Resolve(symbols)
	if err != nil {
		return nil, err
	}
	opcode, hasOperand, operand, err := encodeLoadStore(isStore, primary, mode, other, value)
	if err != nil {
		return nil, err
	}
	if !hasOperand {
		return []byte{opcode}, nil
	}
	return []byte{opcode, operand}, nil
}

func encodeALUInstruction(m Mnemonic, op Operand, symbols SymbolTable) ([]byte, error) {
	mode, other, valExpr, err := classifyOperand(op, false)
	if err != nil {
		return nil, err
	}
	value, err := valExpr.Resolve(symbols)
	if err != nil {
		return nil, err
	}
	opcode, hasOperand, operand, err := encodeALU(m, mode, other, value)
	if err != nil {
		return nil, err
	}
	if !hasOperand {
		return []byte{opcode}, nil
	}
	return []byte{opcode, operand}, nil
}

// resolveAddressOperand accepts any operand kind that carries a plain
// expression (bare, immediate, or direct) as a JMP/CALL target address.
func resolveAddressOperand(op Operand, symbols SymbolTable) (byte, error) {
	switch op.Kind {
	case OperandBare, OperandImmediate, OperandDirect:
		return op.Value.Resolve(symbols)
	default:
		return 0, ErrMalformedOperand
	}
}

// encodeBranchInstruction resolves the branch target and computes the
// signed displacement d = target - (L+2), rejected if outside
// [-128,127]; the operand byte is d in two's complement.
func encodeBranchInstruction(m Mnemonic, op Operand, start uint16, symbols SymbolTable) ([]byte, error) {
	target, err := resolveAddressOperand(op, symbols)
	if err != nil {
		return nil, err
	}
	opcode := byte(0)
	switch m {
	case BZ:
		opcode = OpcodeBZ
	case BNZ:
		opcode = OpcodeBNZ
	case BC:
		opcode = OpcodeBC
	case BNC:
		opcode = OpcodeBNC
	}
	disp := int(target) - int(start) - 2
	if disp < -128 || disp > 127 {
		return nil, ErrBranchUnreachable
	}
	return []byte{opcode, byte(int8(disp))}, nil
}
