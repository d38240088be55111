// Package asm is the two-pass assembly driver: it walks a source file
// line by line, recognizing the label, assignment and data-directive
// statement shapes, and implements expr.Context so the expression
// engine can resolve symbols, the program counter, the assembly clock
// and the PRNG against it.
package asm

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/beebasmgo/beebasm/config"
	"github.com/beebasmgo/beebasm/expr"
	"github.com/beebasmgo/beebasm/line"
	"github.com/beebasmgo/beebasm/symtab"
)

// directive is one of the .EQUB/.EQUW/.EQUD data pseudo-ops: size is the
// number of bytes each value occupies in the output.
type directive struct {
	keyword string
	size    int
}

var directives = []directive{
	{".EQUD", 4},
	{".EQUW", 2},
	{".EQUB", 1},
}

// Assembler runs both passes of assembly over a slice of source lines,
// accumulating a symbol table and an output byte stream.
type Assembler struct {
	filename string
	symbols  *symtab.Table
	pc       int64
	pass     int
	now      time.Time
	rng      *rand.Rand
	cur      *line.Cursor
	output   []byte
	limits   expr.Limits
}

// New returns an Assembler for filename using config.DefaultConfig()'s
// resource bounds and the wall clock for AssemblyTime.
func New(filename string) *Assembler {
	return NewWithConfig(filename, config.DefaultConfig())
}

// NewWithConfig returns an Assembler for filename honoring cfg's
// MAX_VALUES/MAX_OPERATORS/eval-depth bounds and, if cfg.Clock.FixedTime
// is set, a frozen AssemblyTime instead of the wall clock — every TIME$
// call within one Assemble run sees the same instant, matching the
// single build timestamp a real assembly run stamps its output with.
func NewWithConfig(filename string, cfg *config.Config) *Assembler {
	now := time.Now()
	if fixed, ok := cfg.FixedAssemblyTime(); ok {
		now = fixed
	}
	return &Assembler{
		filename: filename,
		symbols:  symtab.New(),
		now:      now,
		rng:      rand.New(rand.NewSource(now.UnixNano())),
		limits: expr.Limits{
			MaxValues:    cfg.Engine.MaxValues,
			MaxOperators: cfg.Engine.MaxOperators,
			MaxEvalDepth: cfg.Engine.MaxEvalDepth,
		},
	}
}

// Symbols returns the Assembler's symbol table, which persists across
// Assemble calls, for inspection in tests and diagnostics.
func (a *Assembler) Symbols() *symtab.Table {
	return a.symbols
}

// PC returns the current program counter.
func (a *Assembler) PC() int64 {
	return a.pc
}

// SetPC seeds the program counter an assembly run starts from (BeebAsm's
// ORG directive does this; narrowed here to a plain setter since ORG
// itself is out of scope).
func (a *Assembler) SetPC(pc int64) {
	a.pc = pc
}

// Assemble runs the tolerant first pass followed by the fatal second
// pass over lines, and returns the bytes assembled by every .EQUB/.EQUW/
// .EQUD directive on the second pass.
func (a *Assembler) Assemble(lines []string) ([]byte, error) {
	startPC := a.pc

	a.pass = 1
	a.pc = startPC
	a.output = nil
	for i, text := range lines {
		if err := a.assembleStatement(text, i+1); err != nil {
			if !isForwardReference(err) {
				return nil, fmt.Errorf("%s:%d: %w", a.filename, i+1, err)
			}
		}
	}

	a.pass = 2
	a.pc = startPC
	a.output = nil
	var errs expr.ErrorList
	for i, text := range lines {
		if err := a.assembleStatement(text, i+1); err != nil {
			errs.Add(toPositional(err, i+1))
		}
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("%s: %w", a.filename, &errs)
	}

	if undef := a.symbols.UndefinedSymbols(); len(undef) > 0 {
		return nil, fmt.Errorf("%s: %d symbol(s) referenced but never defined, starting with %q",
			a.filename, len(undef), undef[0].Name)
	}

	return a.output, nil
}

// toPositional converts any second-pass error into an *expr.Error so it
// fits in the run's ErrorList, falling back to line lineNo, column 1 for
// an error that didn't already carry its own position.
func toPositional(err error, lineNo int) *expr.Error {
	if e, ok := err.(*expr.Error); ok {
		return e
	}
	return expr.NewErrorf(lineNo, 1, expr.ErrorInvalidCharacter, "%s", err.Error())
}

// define records name = value at pos. Pass 1 enforces the no-duplicate-
// label rule; pass 2 reruns the exact same statements to resolve values
// pass 1 couldn't (forward references), so it overwrites rather than
// re-checking for duplicates — any genuine duplicate already failed on
// pass 1.
func (a *Assembler) define(name string, value expr.Value, pos line.Position) error {
	if a.pass == 2 {
		return a.symbols.Redefine(name, value, pos)
	}
	return a.symbols.Define(name, value, pos)
}

func isForwardReference(err error) bool {
	e, ok := err.(*expr.Error)
	return ok && e.Kind == expr.ErrorSymbolNotDefined
}

// assembleStatement recognizes one of the three statement shapes on a
// single line: "NAME = expr", a bare label, or a data directive.
func (a *Assembler) assembleStatement(text string, lineNo int) error {
	a.cur = line.New(a.filename, lineNo, text)
	if !a.cur.Advance(true) {
		return nil
	}

	for _, d := range directives {
		rem := a.cur.Remaining()
		if len(rem) >= len(d.keyword) && strings.EqualFold(rem[:len(d.keyword)], d.keyword) {
			a.cur.Skip(len(d.keyword))
			return a.assembleData(d.size)
		}
	}

	ln, col := a.cur.Position()
	name := a.cur.GetSymbolName()
	if name == "" {
		return expr.NewErrorf(ln, col, expr.ErrorInvalidCharacter,
			"expected a label, assignment or directive")
	}

	a.cur.Advance(true)
	rem := a.cur.Remaining()
	switch {
	case strings.HasPrefix(rem, "=") && !strings.HasPrefix(rem, "=="):
		a.cur.Skip(1)
		a.cur.Advance(true)
		v, err := expr.NewEvaluatorWithLimits(a, a.limits).Evaluate(false)
		if err != nil {
			return err
		}
		return a.define(name, v, a.cur.FilePosition())

	case rem == "":
		return a.define(name, expr.NumberValue(float64(a.pc)), a.cur.FilePosition())

	default:
		ln, col = a.cur.Position()
		return expr.NewErrorf(ln, col, expr.ErrorInvalidCharacter,
			"unexpected text after %q", name)
	}
}

// assembleData evaluates a comma-separated list of expressions, each
// occupying size bytes of output, advancing the program counter by size
// regardless of whether the value itself could be resolved this pass —
// so that label addresses stay consistent between the two passes even
// when a directive's own operand is a forward reference.
func (a *Assembler) assembleData(size int) error {
	for {
		a.cur.Advance(false)
		startLn, startCol := a.cur.Position()
		v, err := expr.NewEvaluatorWithLimits(a, a.limits).Evaluate(false)
		if err != nil {
			if isForwardReference(err) && a.pass == 1 {
				a.emitZeros(size)
			} else {
				return err
			}
		} else if err := a.emitValue(v, size, startLn, startCol); err != nil {
			return err
		}

		a.cur.Advance(true)
		rem := a.cur.Remaining()
		if rem == "" {
			return nil
		}
		if rem[0] != ',' {
			ln, col := a.cur.Position()
			return expr.NewErrorf(ln, col, expr.ErrorInvalidCharacter, "expected ',' between values")
		}
		a.cur.Skip(1)
	}
}

func (a *Assembler) emitZeros(size int) {
	a.output = append(a.output, make([]byte, size)...)
	a.pc += int64(size)
}

// emitValue appends v's bytes to the output, little-endian for numbers.
// Only EQUB accepts a String operand, embedding its raw bytes.
func (a *Assembler) emitValue(v expr.Value, size, line, col int) error {
	if v.IsString() {
		if size != 1 {
			return expr.NewErrorf(line, col, expr.ErrorTypeMismatch,
				"a string operand is only valid with .EQUB")
		}
		s, _ := v.AsString(line, col)
		a.output = append(a.output, s.Bytes()...)
		a.pc += int64(s.Length())
		return nil
	}

	n, err := v.AsNumber(line, col)
	if err != nil {
		return err
	}
	iv, err := toRawBits(line, col, n)
	if err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		a.output = append(a.output, byte(iv>>(8*uint(i))))
	}
	a.pc += int64(size)
	return nil
}

// toRawBits reinterprets n as a 32-bit pattern, tolerating the same
// [-2^31, 2^32-1] range the expression engine's own integer coercion
// accepts, so .EQUD &FFFFFFFF writes four 0xFF bytes rather than
// erroring as out of int32 range.
func toRawBits(line, col int, n float64) (uint32, error) {
	return expr.RawBits32(line, col, n)
}

// Position implements expr.Context.
func (a *Assembler) Position() (line, col int) {
	return a.cur.Position()
}

// Advance implements expr.Context.
func (a *Assembler) Advance(atTopLevel bool) bool {
	return a.cur.Advance(atTopLevel)
}

// Remaining implements expr.Context.
func (a *Assembler) Remaining() string {
	return a.cur.Remaining()
}

// Skip implements expr.Context.
func (a *Assembler) Skip(n int) {
	a.cur.Skip(n)
}

// ParseNumeric implements expr.Context.
func (a *Assembler) ParseNumeric() (float64, bool) {
	return a.cur.ParseNumeric()
}

// GetSymbolName implements expr.Context.
func (a *Assembler) GetSymbolName() string {
	return a.cur.GetSymbolName()
}

// GetSymbolValue implements expr.Context. A lookup of a name never seen
// before creates a forward-reference placeholder so the UndefinedSymbols
// check after the second pass can report it if it is never defined.
func (a *Assembler) GetSymbolValue(name string) (expr.Value, bool) {
	a.symbols.Reference(name, a.cur.FilePosition())
	return a.symbols.Lookup(name)
}

// GetPC implements expr.Context.
func (a *Assembler) GetPC() int64 {
	return a.pc
}

// IsFirstPass implements expr.Context.
func (a *Assembler) IsFirstPass() bool {
	return a.pass == 1
}

// SkipExpression implements expr.Context: it advances the cursor past
// the remainder of an expression the evaluator couldn't finish, stopping
// at the next top-level comma or end of line so a directive's later
// operands still parse. bracketCount carries how many brackets the
// evaluator had already opened when it gave up.
func (a *Assembler) SkipExpression(bracketCount int, allowOneTrailingClose bool) {
	depth := bracketCount
	for {
		rem := a.cur.Remaining()
		if rem == "" {
			return
		}
		switch rem[0] {
		case '(', '[':
			depth++
			a.cur.Skip(1)
		case ')', ']':
			if depth == 0 {
				if allowOneTrailingClose {
					return
				}
				a.cur.Skip(1)
				continue
			}
			depth--
			a.cur.Skip(1)
		case ',':
			if depth == 0 {
				return
			}
			a.cur.Skip(1)
		case '"':
			a.cur.Skip(skipQuoted(rem))
		default:
			a.cur.Skip(1)
		}
	}
}

// skipQuoted returns how many bytes of rem (which starts with '"') make
// up a complete string literal, honoring "" as an escaped embedded quote.
func skipQuoted(rem string) int {
	i := 1
	for i < len(rem) {
		if rem[i] == '"' {
			if i+1 < len(rem) && rem[i+1] == '"' {
				i += 2
				continue
			}
			i++
			break
		}
		i++
	}
	return i
}

// AssemblyTime implements expr.Context.
func (a *Assembler) AssemblyTime() time.Time {
	return a.now
}

// Rand implements expr.Context.
func (a *Assembler) Rand() (value, max uint32) {
	return a.rng.Uint32(), ^uint32(0)
}

// NewSubExpression implements expr.Context: it returns a shallow copy of
// this Assembler scanning s instead of the parent line, sharing the
// symbol table, PRNG, pass and clock so a nested EVAL() sees exactly the
// state the enclosing expression does.
func (a *Assembler) NewSubExpression(s string) expr.Context {
	sub := *a
	sub.cur = line.New(a.filename, a.cur.LineNumber(), s)
	return &sub
}
