package expr

import "time"

// Context is the set of external collaborators the evaluator consumes,
// modelled as an explicit value per spec.md §9 rather than as ambient
// global state: the line driver's cursor, the symbol table, the program
// counter, the assembly clock and the PRNG. A concrete implementation
// lives in package line/asm; tests in this package use a lightweight
// in-memory stub (see context_test.go).
type Context interface {
	// Position reports the current line and column for error messages.
	Position() (line, col int)

	// Advance skips insignificant whitespace/comments. atTopLevel is true
	// when bracket_count == 0. It returns false once the cursor has
	// reached the end of the current sub-statement.
	Advance(atTopLevel bool) bool

	// Remaining returns the unconsumed tail of the current line, for
	// operator and literal matching against the cursor.
	Remaining() string

	// Skip moves the cursor forward by n bytes, or backward if n is
	// negative (used for the single permitted trailing unmatched ')').
	Skip(n int)

	// ParseNumeric attempts to consume a decimal/hex numeric literal at
	// the cursor. ok is false if the cursor isn't at a numeric literal.
	ParseNumeric() (value float64, ok bool)

	// GetSymbolName consumes an identifier (the caller has already
	// verified the first byte can start one).
	GetSymbolName() string

	// GetSymbolValue looks up a previously assembled symbol.
	GetSymbolValue(name string) (Value, bool)

	// GetPC returns the current program counter.
	GetPC() int64

	// IsFirstPass reports whether this is the tolerant first pass.
	IsFirstPass() bool

	// SkipExpression moves the cursor past the remainder of an
	// unresolvable expression (forward reference on the first pass).
	SkipExpression(bracketCount int, allowOneTrailingClose bool)

	// AssemblyTime returns the process-wide deterministic assembly clock.
	AssemblyTime() time.Time

	// Rand returns the next pseudo-random value and the inclusive
	// maximum it's drawn from, matching the rand()/RAND_MAX contract.
	Rand() (value, max uint32)

	// NewSubExpression returns a Context for evaluating s as a fresh,
	// independent expression that shares this Context's symbol table,
	// program counter, pass and clock. Used by EVAL.
	NewSubExpression(s string) Context
}
