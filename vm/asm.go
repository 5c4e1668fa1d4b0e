package vm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/ktstephano/lada/internal/vmlog"
)

// pendingInst is the tuple the collection pass records for each
// instruction line, resolved in the second pass once every label and
// constant is known. Ground truth: original_source/src/file.rs's
// asm_parse, which defers exactly this (mnemonic, operand token, index)
// triple to a second walk.
type pendingInst struct {
	mnemonic string
	operand  string
	index    int
	line     int
}

// Assemble runs the two-pass assembler described in spec.md §4.5 over
// source, producing a Program or the first AsmError encountered.
func Assemble(source string) (Program, *AsmError) {
	a := &assembler{
		labels:    swiss.NewMap[string, int64](8),
		constants: swiss.NewMap[string, int64](8),
		log:       vmlog.Default().Tool("lasm"),
	}
	return a.run(source)
}

type assembler struct {
	labels    *swiss.Map[string, int64]
	constants *swiss.Map[string, int64]
	mem       []byte
	pending   []pendingInst
	log       *vmlog.Logger
}

func (a *assembler) run(source string) (Program, *AsmError) {
	if err := a.collect(source); err != nil {
		return Program{}, err
	}
	inst, err := a.resolve()
	if err != nil {
		return Program{}, err
	}
	return Program{Mem: a.mem, Inst: inst}, nil
}

// collect is the collection pass: strip comments, record labels against
// the running instruction count, process %/@ definitions, and otherwise
// queue (mnemonic, operand, index, line) tuples.
func (a *assembler) collect(source string) *AsmError {
	lines := strings.Split(source, "\n")
	instIndex := 0

	for i, raw := range lines {
		line := i + 1
		text := strings.TrimSpace(stripComment(raw))
		for text != "" {
			if name, rest, ok := splitLabel(text); ok {
				if _, exists := a.labels.Get(name); exists {
					return &AsmError{Line: line, Kind: ErrRedefinition}
				}
				a.labels.Put(name, int64(instIndex))
				text = strings.TrimSpace(rest)
				continue
			}
			break
		}
		if text == "" {
			continue
		}

		if text[0] == '%' || text[0] == '@' {
			if err := a.define(text, line); err != nil {
				return err
			}
			continue
		}

		mnemonic, operand := splitFields(text)
		a.pending = append(a.pending, pendingInst{
			mnemonic: mnemonic,
			operand:  operand,
			index:    instIndex,
			line:     line,
		})
		instIndex++
	}
	return nil
}

// define handles a %name value or @name value declaration line.
func (a *assembler) define(text string, line int) *AsmError {
	sigil := text[0]
	rest := strings.TrimSpace(text[1:])
	name, value := splitFields(rest)
	if name == "" {
		return &AsmError{Line: line, Kind: ErrIllegalOperand}
	}
	if _, exists := a.constants.Get(name); exists {
		return &AsmError{Line: line, Kind: ErrRedefinition}
	}

	if sigil == '@' {
		if strings.HasPrefix(value, "\"") {
			data, err := unescapeString(value)
			if err != nil {
				return &AsmError{Line: line, Kind: ErrIllegalOperand}
			}
			offset := int64(len(a.mem))
			a.mem = append(a.mem, data...)
			a.constants.Put(name, offset)
			return nil
		}
		n, ok := parseNumberLiteral(value)
		if !ok {
			return &AsmError{Line: line, Kind: ErrIllegalOperand}
		}
		offset := int64(len(a.mem))
		var b [8]byte
		binary.NativeEndian.PutUint64(b[:], uint64(n))
		a.mem = append(a.mem, b[:]...)
		a.constants.Put(name, offset)
		return nil
	}

	n, ok := parseNumberLiteral(value)
	if !ok {
		return &AsmError{Line: line, Kind: ErrIllegalOperand}
	}
	a.constants.Put(name, n)
	return nil
}

// resolve is the resolution pass: turn every queued tuple into a concrete
// Instruction now that labels and constants are fully known.
func (a *assembler) resolve() ([]Instruction, *AsmError) {
	inst := make([]Instruction, len(a.pending))
	for i, p := range a.pending {
		op, ok := mnemonics[strings.ToLower(p.mnemonic)]
		if !ok {
			return nil, &AsmError{Line: p.line, Kind: ErrIllegalInst}
		}

		if !op.HasOperand() {
			if p.operand != "" {
				return nil, &AsmError{Line: p.line, Kind: ErrIllegalOperand}
			}
			if op == Ftoi && (i == 0 || (inst[i-1].Op != Floor && inst[i-1].Op != Ceil)) {
				a.log.Warn("FTOI not preceded by FLOOR or CEIL", "line", p.line)
			}
			inst[i] = Instruction{Op: op}
			continue
		}

		operand, err := a.resolveOperand(op, p)
		if err != nil {
			return nil, err
		}
		inst[i] = Instruction{Op: op, Operand: operand}
	}
	return inst, nil
}

func (a *assembler) resolveOperand(op Opcode, p pendingInst) (int64, *AsmError) {
	tok := p.operand

	if n, ok := parseNumberLiteral(tok); ok {
		return n, nil
	}

	switch op {
	case Push:
		if tok == "$" {
			return int64(p.index), nil
		}
		if v, ok := a.constants.Get(tok); ok {
			return v, nil
		}
		return 0, &AsmError{Line: p.line, Kind: ErrIllegalOperand}

	case Jmp, Jif:
		if v, ok := a.labels.Get(tok); ok {
			return v, nil
		}
		return 0, &AsmError{Line: p.line, Kind: ErrIllegalAddr}
	}
	return 0, &AsmError{Line: p.line, Kind: ErrIllegalOperand}
}

// parseNumberLiteral tries, in order, decimal integer, hex integer
// (0x-prefixed) and floating literal (reinterpreted to its bit pattern),
// per spec.md §6.2's operand literal forms.
func parseNumberLiteral(tok string) (int64, bool) {
	if tok == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return n, true
	}
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "-0x") {
		neg := strings.HasPrefix(tok, "-")
		hex := strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "0x")
		if n, err := strconv.ParseUint(hex, 16, 64); err == nil {
			v := int64(n)
			if neg {
				v = -v
			}
			return v, true
		}
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return int64(math.Float64bits(f)), true
	}
	return 0, false
}

// stripComment removes a trailing `;` or `#` comment, respecting double
// quotes so a string literal may itself contain a comment character.
func stripComment(line string) string {
	inQuotes := false
	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ';', '#':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

// splitLabel recognizes a leading `name:` on text and returns the label
// name plus whatever follows it on the same logical line, allowing a
// label and an instruction to share a line (`loop: push 1`).
func splitLabel(text string) (name, rest string, ok bool) {
	i := strings.IndexAny(text, " \t:")
	if i < 0 || text[i] != ':' {
		return "", "", false
	}
	name = text[:i]
	if name == "" || !isIdent(name) {
		return "", "", false
	}
	return name, text[i+1:], true
}

func isIdent(s string) bool {
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// splitFields splits text on the first run of whitespace into a head
// token and a trimmed tail, matching "tokens separated by single spaces"
// (spec.md §6.2) while tolerating runs of whitespace in source text.
func splitFields(text string) (head, tail string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	head = fields[0]
	idx := strings.Index(text, head) + len(head)
	tail = strings.TrimSpace(text[idx:])
	return head, tail
}

// unescapeString parses a double-quoted string literal, applying the
// \n, \t and \0 escapes named in spec.md §6.2.
func unescapeString(tok string) ([]byte, *AsmError) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return nil, &AsmError{Kind: ErrIllegalOperand}
	}
	body := tok[1 : len(tok)-1]
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '0':
				out = append(out, 0)
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			default:
				out = append(out, '\\', body[i])
			}
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
