// Package symtab is the assembler's symbol table: every NAME = expr
// assignment and every label, keyed by name and holding the expr.Value
// it resolved to.
package symtab

import (
	"fmt"

	"github.com/beebasmgo/beebasm/expr"
	"github.com/beebasmgo/beebasm/line"
)

// Symbol is one entry: a name, its resolved value once defined, and the
// positions that have referenced it (forward or otherwise), for
// diagnostics.
type Symbol struct {
	Name       string
	Value      expr.Value
	Defined    bool
	Pos        line.Position
	References []line.Position
}

// Table manages symbols across both assembly passes.
type Table struct {
	symbols map[string]*Symbol
}

// New returns an empty Table.
func New() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// Define records name = value at pos. Defining a name that already has
// a value is an error, whatever pos is; a name that so far has only been
// referenced (a forward reference) is defined normally. Refreshing a
// value on a later pass is Redefine's job.
func (t *Table) Define(name string, value expr.Value, pos line.Position) error {
	if sym, exists := t.symbols[name]; exists && sym.Defined {
		return fmt.Errorf("symbol %q already defined at %s", name, sym.Pos)
	}

	sym, exists := t.symbols[name]
	if !exists {
		sym = &Symbol{Name: name}
		t.symbols[name] = sym
	}
	sym.Value = value
	sym.Defined = true
	sym.Pos = pos
	return nil
}

// Reference records that name was looked up at pos, creating an
// undefined placeholder entry if this is the first mention (a forward
// reference).
func (t *Table) Reference(name string, pos line.Position) {
	sym, exists := t.symbols[name]
	if !exists {
		sym = &Symbol{Name: name}
		t.symbols[name] = sym
	}
	sym.References = append(sym.References, pos)
}

// Lookup returns name's value. ok is false if name has never been
// defined.
func (t *Table) Lookup(name string) (expr.Value, bool) {
	sym, exists := t.symbols[name]
	if !exists || !sym.Defined {
		return expr.Value{}, false
	}
	return sym.Value, true
}

// IsDefined reports whether name currently has a value.
func (t *Table) IsDefined(name string) bool {
	sym, exists := t.symbols[name]
	return exists && sym.Defined
}

// Get returns the raw Symbol entry, defined or not, for diagnostics.
func (t *Table) Get(name string) (*Symbol, bool) {
	sym, exists := t.symbols[name]
	return sym, exists
}

// UndefinedSymbols returns every symbol still without a value: a
// non-empty result after the second pass means unresolved forward
// references.
func (t *Table) UndefinedSymbols() []*Symbol {
	var undefined []*Symbol
	for _, sym := range t.symbols {
		if !sym.Defined {
			undefined = append(undefined, sym)
		}
	}
	return undefined
}

// Redefine records name = value at pos unconditionally, overwriting any
// prior value without the duplicate-definition check Define makes. For a
// caller (the two-pass assembler) that has already enforced uniqueness
// on an earlier pass and is now re-resolving the same statement.
func (t *Table) Redefine(name string, value expr.Value, pos line.Position) error {
	sym, exists := t.symbols[name]
	if !exists {
		sym = &Symbol{Name: name}
		t.symbols[name] = sym
	}
	sym.Value = value
	sym.Defined = true
	sym.Pos = pos
	return nil
}

// Names returns every symbol name the table has seen, defined or not, in
// no particular order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	return names
}

// Clear removes every symbol, readying the table to start a fresh pass.
func (t *Table) Clear() {
	t.symbols = make(map[string]*Symbol)
}
