package expr

import "strings"

// Resource bounds from spec.md §4.E: MAX_VALUES and MAX_OPERATORS are
// implementation constants >= 32. maxEvalDepth bounds EVAL recursion
// (spec.md §9's "implementers should bound recursion depth... to avoid
// host-stack overflow").
const (
	maxValues    = 64
	maxOperators = 64
	maxEvalDepth = 64
)

type exprState int

const (
	expectValueOrUnary exprState = iota
	expectBinary
)

// opFrame is a runtime operator-stack entry. Most frames are ordinary
// operators, popped and executed by precedence. A frame with isBoundary
// set instead marks one nesting level of "(" / "[" / a bracket
// function's argument list: collapseWhile never pops through it, and
// collapseUntilBracket stops there. callFrame distinguishes a bracket
// function's boundary (e.g. the one "HI(" pushes), which executes its
// operator when the matching close is found, from a bare grouping
// bracket, which is simply discarded.
type opFrame struct {
	op         *operator
	paramCount int
	line, col  int
	isBoundary bool
	callFrame  bool
}

// Evaluator runs spec.md §4.E's shunting-yard driver over a Context. All
// of its state is scoped to a single top-level Evaluate call (or, for a
// nested EVAL, to one recursive child) and is discarded on return.
type Evaluator struct {
	ctx Context

	depth  int
	limits Limits

	valueStack []Value
	opStack    []opFrame

	bracketCount int
	expected     exprState
}

// NewEvaluator returns an Evaluator bound to ctx, ready for a top-level
// Evaluate call, using the package's built-in resource bounds.
func NewEvaluator(ctx Context) *Evaluator {
	return &Evaluator{ctx: ctx, limits: Limits{maxValues, maxOperators, maxEvalDepth}}
}

// Limits overrides the built-in MAX_VALUES/MAX_OPERATORS/EVAL-depth
// bounds, for a caller (config.Config, in this repo) that wants them
// tunable rather than fixed at compile time. A zero field falls back to
// the package default.
type Limits struct {
	MaxValues    int
	MaxOperators int
	MaxEvalDepth int
}

// NewEvaluatorWithLimits is NewEvaluator with caller-supplied resource
// bounds.
func NewEvaluatorWithLimits(ctx Context, limits Limits) *Evaluator {
	if limits.MaxValues <= 0 {
		limits.MaxValues = maxValues
	}
	if limits.MaxOperators <= 0 {
		limits.MaxOperators = maxOperators
	}
	if limits.MaxEvalDepth <= 0 {
		limits.MaxEvalDepth = maxEvalDepth
	}
	return &Evaluator{ctx: ctx, limits: limits}
}

func (ev *Evaluator) reset() {
	ev.valueStack = ev.valueStack[:0]
	ev.opStack = ev.opStack[:0]
	ev.bracketCount = 0
	ev.expected = expectValueOrUnary
}

// Evaluate parses and evaluates one expression from the cursor,
// returning the single resulting Value. If allowOneTrailingClose is
// true, one unmatched ')' or ']' is tolerated and left at the cursor for
// the caller rather than raising MismatchedParentheses.
func (ev *Evaluator) Evaluate(allowOneTrailingClose bool) (Value, error) {
	ev.reset()

loop:
	for {
		if !ev.ctx.Advance(ev.bracketCount == 0) {
			break loop
		}

		switch ev.expected {
		case expectValueOrUnary:
			if err := ev.stepValueOrUnary(); err != nil {
				if e, ok := err.(*Error); ok && e.Kind == ErrorSymbolNotDefined && ev.ctx.IsFirstPass() {
					ev.ctx.SkipExpression(ev.bracketCount, allowOneTrailingClose)
				}
				return Value{}, err
			}

		case expectBinary:
			brk, err := ev.stepBinary(allowOneTrailingClose)
			if err != nil {
				return Value{}, err
			}
			if brk {
				break loop
			}
		}
	}

	return ev.finish()
}

// EvaluateString nests a fresh Evaluator over s, sharing ctx's symbol
// table, PC and clock (EVAL's contract) but its own cursor and stacks.
func (ev *Evaluator) EvaluateString(s string, line, col int) (Value, error) {
	if ev.depth+1 >= ev.limits.MaxEvalDepth {
		return Value{}, NewErrorf(line, col, ErrorExpressionTooComplex, "EVAL nested too deeply")
	}
	child := &Evaluator{ctx: ev.ctx.NewSubExpression(s), depth: ev.depth + 1, limits: ev.limits}
	return child.Evaluate(false)
}

func (ev *Evaluator) finish() (Value, error) {
	for len(ev.opStack) > 0 {
		top := ev.opStack[len(ev.opStack)-1]
		ev.opStack = ev.opStack[:len(ev.opStack)-1]
		if top.isBoundary {
			return Value{}, NewError(top.line, top.col, ErrorMismatchedParentheses)
		}
		if err := ev.execute(top); err != nil {
			return Value{}, err
		}
	}

	if len(ev.valueStack) == 0 {
		line, col := ev.ctx.Position()
		return Value{}, NewError(line, col, ErrorEmptyExpression)
	}
	return ev.valueStack[len(ev.valueStack)-1], nil
}

// stepValueOrUnary handles one token while VALUE_OR_UNARY is expected:
// spec.md §4.E.
func (ev *Evaluator) stepValueOrUnary() error {
	line, col := ev.ctx.Position()
	rem := ev.ctx.Remaining()
	if len(rem) == 0 {
		return NewError(line, col, ErrorEmptyExpression)
	}

	if op, ok := matchOperator(prefixOps, rem, 0); ok {
		switch {
		case op.isBracketFunction():
			// Consume the whole token including its '(': one frame
			// covers both the function call and its argument group, so
			// its matching ')' both closes the group and fires the
			// handler.
			ev.ctx.Skip(len(op.token))
			ev.bracketCount++
			frame := opFrame{op: op, paramCount: op.children - 1, line: line, col: col, isBoundary: true, callFrame: true}
			return ev.pushOp(frame)

		case op.isSentinel():
			ev.ctx.Skip(len(op.token))
			ev.bracketCount++
			frame := opFrame{op: op, line: line, col: col, isBoundary: true}
			return ev.pushOp(frame)

		default:
			ev.ctx.Skip(len(op.token))
			if err := ev.collapseWhile(func(top *operator) bool { return top.precedence > op.precedence }); err != nil {
				return err
			}
			return ev.pushOp(opFrame{op: op, line: line, col: col})
		}
	}

	v, err := ev.getValue(line, col)
	if err != nil {
		return err
	}
	if err := ev.pushValue(line, col, v); err != nil {
		return err
	}
	ev.expected = expectBinary
	return nil
}

// stepBinary handles one token while BINARY is expected: spec.md §4.E.
// brk is true when a trailing unmatched close bracket was tolerated and
// the caller should stop parsing, leaving the cursor on that byte.
func (ev *Evaluator) stepBinary(allowOneTrailingClose bool) (brk bool, err error) {
	line, col := ev.ctx.Position()
	rem := ev.ctx.Remaining()

	op, ok := matchOperator(binaryOps, rem, 0)
	if !ok {
		return false, NewError(line, col, ErrorInvalidCharacter)
	}

	if !op.isSentinel() {
		ev.ctx.Skip(len(op.token))
		if err := ev.collapseWhile(func(top *operator) bool { return top.precedence >= op.precedence }); err != nil {
			return false, err
		}
		if err := ev.pushOp(opFrame{op: op, line: line, col: col}); err != nil {
			return false, err
		}
		ev.expected = expectValueOrUnary
		return false, nil
	}

	switch op.token {
	case ",":
		ev.ctx.Skip(1)
		ok, err := ev.collapseUntilBracket(false, line, col)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, NewError(line, col, ErrorMismatchedParentheses)
		}
		top := &ev.opStack[len(ev.opStack)-1]
		if top.paramCount <= 0 {
			return false, NewError(line, col, ErrorParameterCount)
		}
		top.paramCount--
		ev.expected = expectValueOrUnary
		return false, nil

	default: // ")" or "]"
		ev.ctx.Skip(len(op.token))
		ev.bracketCount--
		ok, err := ev.collapseUntilBracket(true, line, col)
		if err != nil {
			return false, err
		}
		if !ok {
			if allowOneTrailingClose {
				ev.ctx.Skip(-len(op.token))
				ev.bracketCount++
				return true, nil
			}
			return false, NewError(line, col, ErrorMismatchedParentheses)
		}
		ev.expected = expectBinary
		return false, nil
	}
}

// collapseWhile executes operators off the top of the stack while cond
// holds, stopping at a boundary frame or an empty stack. Boundary frames
// are never subject to the precedence test: they are impenetrable until
// their own matching close is seen.
func (ev *Evaluator) collapseWhile(cond func(*operator) bool) error {
	for len(ev.opStack) > 0 {
		top := ev.opStack[len(ev.opStack)-1]
		if top.isBoundary || !cond(top.op) {
			break
		}
		ev.opStack = ev.opStack[:len(ev.opStack)-1]
		if err := ev.execute(top); err != nil {
			return err
		}
	}
	return nil
}

// collapseUntilBracket executes operators until a boundary frame is on
// top of the stack. If consume is true the boundary is popped: its
// paramCount must be 0 (all arguments supplied) or ParameterCount is
// raised at (line, col), and if it's a callFrame (a bracket function)
// its handler fires now, against the arguments just evaluated. ok is
// false if the stack empties before a boundary is found.
func (ev *Evaluator) collapseUntilBracket(consume bool, line, col int) (ok bool, err error) {
	for len(ev.opStack) > 0 {
		top := ev.opStack[len(ev.opStack)-1]
		if top.isBoundary {
			if consume {
				ev.opStack = ev.opStack[:len(ev.opStack)-1]
				if top.paramCount != 0 {
					return true, NewError(line, col, ErrorParameterCount)
				}
				if top.callFrame {
					if err := ev.execute(top); err != nil {
						return true, err
					}
				}
			}
			return true, nil
		}
		ev.opStack = ev.opStack[:len(ev.opStack)-1]
		if err := ev.execute(top); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (ev *Evaluator) pushValue(line, col int, v Value) error {
	if len(ev.valueStack) >= ev.limits.MaxValues {
		return NewError(line, col, ErrorExpressionTooComplex)
	}
	ev.valueStack = append(ev.valueStack, v)
	return nil
}

func (ev *Evaluator) pushOp(frame opFrame) error {
	if len(ev.opStack) >= ev.limits.MaxOperators {
		return NewError(frame.line, frame.col, ErrorExpressionTooComplex)
	}
	ev.opStack = append(ev.opStack, frame)
	return nil
}

// execute pops this operator's operands off the value stack, runs its
// handler, and pushes the result. Plain grouping boundaries (handler ==
// nil) never reach here.
func (ev *Evaluator) execute(frame opFrame) error {
	n := frame.op.children
	if len(ev.valueStack) < n {
		return NewError(frame.line, frame.col, ErrorMissingValue)
	}
	args := make([]Value, n)
	copy(args, ev.valueStack[len(ev.valueStack)-n:])
	ev.valueStack = ev.valueStack[:len(ev.valueStack)-n]

	result, err := frame.op.handler(ev, frame.line, frame.col, args)
	if err != nil {
		return err
	}
	return ev.pushValue(frame.line, frame.col, result)
}

// getValue implements spec.md §4.D's GetValue tokenizer: numeric
// literal, '*' (current PC), a 'C' char literal, a "..." string
// literal (doubled "" escaping an embedded quote), or a symbol
// reference — with the bare TIME$ special case.
func (ev *Evaluator) getValue(line, col int) (Value, error) {
	if v, ok := ev.ctx.ParseNumeric(); ok {
		return NumberValue(v), nil
	}

	rem := ev.ctx.Remaining()
	if len(rem) == 0 {
		return Value{}, NewError(line, col, ErrorInvalidCharacter)
	}

	switch rem[0] {
	case '*':
		ev.ctx.Skip(1)
		return NumberValue(float64(ev.ctx.GetPC())), nil

	case '\'':
		if len(rem) < 3 || rem[2] != '\'' {
			return Value{}, NewError(line, col, ErrorInvalidCharacter)
		}
		ev.ctx.Skip(3)
		return NumberValue(float64(rem[1])), nil

	case '"':
		s, n, ok := parseStringLiteral(rem)
		if !ok {
			return Value{}, NewError(line, col, ErrorMissingQuote)
		}
		ev.ctx.Skip(n)
		return StringValue(NewString(s)), nil
	}

	if !isIdentStart(rem[0]) {
		return Value{}, NewError(line, col, ErrorInvalidCharacter)
	}

	name := ev.ctx.GetSymbolName()
	if name == "" {
		return Value{}, NewError(line, col, ErrorInvalidCharacter)
	}
	if strings.EqualFold(name, "TIME$") {
		return StringValue(NewString(strftime("%a,%d %b %Y.%H:%M:%S", ev.ctx.AssemblyTime()))), nil
	}
	v, ok := ev.ctx.GetSymbolValue(name)
	if !ok {
		return Value{}, NewErrorf(line, col, ErrorSymbolNotDefined, "%s", name)
	}
	return v, nil
}

// parseStringLiteral consumes a "..." literal starting at rem[0] == '"',
// folding a doubled "" into a single embedded quote. ok is false if the
// closing quote is never found.
func parseStringLiteral(rem string) (content string, consumed int, ok bool) {
	var out []byte
	i := 1
	for i < len(rem) {
		if rem[i] == '"' {
			if i+1 < len(rem) && rem[i+1] == '"' {
				out = append(out, '"')
				i += 2
				continue
			}
			return string(out), i + 1, true
		}
		out = append(out, rem[i])
		i++
	}
	return "", 0, false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
