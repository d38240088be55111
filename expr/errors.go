package expr

import "fmt"

// ErrorKind categorizes the kind of failure the expression engine can
// report. Every Error carries one.
type ErrorKind int

const (
	ErrorInvalidCharacter ErrorKind = iota
	ErrorMissingQuote
	ErrorSymbolNotDefined
	ErrorEmptyExpression
	ErrorMismatchedParentheses
	ErrorParameterCount
	ErrorExpressionTooComplex
	ErrorTypeMismatch
	ErrorMissingValue
	ErrorDivisionByZero
	ErrorNumberTooBig
	ErrorIllegalOperation
	ErrorOutOfIntegerRange
	ErrorTimeResultTooBig
)

var errorKindNames = map[ErrorKind]string{
	ErrorInvalidCharacter:      "invalid character",
	ErrorMissingQuote:          "missing closing quote",
	ErrorSymbolNotDefined:      "symbol not defined",
	ErrorEmptyExpression:       "empty expression",
	ErrorMismatchedParentheses: "mismatched parentheses",
	ErrorParameterCount:        "wrong number of parameters",
	ErrorExpressionTooComplex:  "expression too complex",
	ErrorTypeMismatch:          "type mismatch",
	ErrorMissingValue:          "missing value",
	ErrorDivisionByZero:        "division by zero",
	ErrorNumberTooBig:          "number too big",
	ErrorIllegalOperation:      "illegal operation",
	ErrorOutOfIntegerRange:     "out of integer range",
	ErrorTimeResultTooBig:      "time result too big",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a positional error raised while lexing, parsing or evaluating
// an expression. Line and Column describe where in the source the
// problem was found.
type Error struct {
	Line    int
	Column  int
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Kind)
}

// NewError builds a positional Error with no extra message.
func NewError(line, column int, kind ErrorKind) *Error {
	return &Error{Line: line, Column: column, Kind: kind}
}

// NewErrorf builds a positional Error with a formatted message.
func NewErrorf(line, column int, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Line: line, Column: column, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorList collects every error raised while assembling a source file,
// mirroring the teacher's ErrorList in spirit: the evaluator itself stops
// at the first error within a single expression, but a caller assembling
// many lines wants the full set.
type ErrorList struct {
	Errors []*Error
}

func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

func (el *ErrorList) Error() string {
	if len(el.Errors) == 0 {
		return ""
	}
	s := ""
	for _, e := range el.Errors {
		s += e.Error() + "\n"
	}
	return s
}
