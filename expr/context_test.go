package expr

import (
	"strconv"
	"strings"
	"time"
)

// testContext is a minimal in-memory Context used to exercise the
// evaluator in isolation from the line/asm packages. It understands
// decimal, hex (&) and binary (%) numeric literals and a flat symbol
// table, and treats the whole source as a single line.
type testContext struct {
	src string
	pos int

	firstPass bool
	pc        int64
	symbols   map[string]Value
	now       time.Time

	randValue, randMax uint32

	skipped bool
}

func newTestContext(src string) *testContext {
	return &testContext{
		src:       src,
		firstPass: true,
		symbols:   map[string]Value{},
		now:       time.Date(2026, time.March, 5, 13, 4, 5, 0, time.UTC),
		randMax:   99,
		randValue: 50,
	}
}

func (c *testContext) Position() (line, col int) { return 1, c.pos + 1 }

func (c *testContext) Advance(atTopLevel bool) bool {
	for c.pos < len(c.src) && (c.src[c.pos] == ' ' || c.src[c.pos] == '\t') {
		c.pos++
	}
	return c.pos < len(c.src)
}

func (c *testContext) Remaining() string { return c.src[c.pos:] }

func (c *testContext) Skip(n int) { c.pos += n }

func (c *testContext) ParseNumeric() (float64, bool) {
	rem := c.Remaining()
	if rem == "" {
		return 0, false
	}

	switch rem[0] {
	case '&':
		i := 1
		for i < len(rem) && isHexDigitTest(rem[i]) {
			i++
		}
		if i == 1 {
			return 0, false
		}
		v, err := strconv.ParseUint(rem[1:i], 16, 64)
		if err != nil {
			return 0, false
		}
		c.Skip(i)
		return float64(v), true

	case '%':
		i := 1
		for i < len(rem) && (rem[i] == '0' || rem[i] == '1') {
			i++
		}
		if i == 1 {
			return 0, false
		}
		v, err := strconv.ParseUint(rem[1:i], 2, 64)
		if err != nil {
			return 0, false
		}
		c.Skip(i)
		return float64(v), true
	}

	if !(rem[0] >= '0' && rem[0] <= '9') && rem[0] != '.' {
		return 0, false
	}
	if rem[0] == '.' && (len(rem) < 2 || rem[1] < '0' || rem[1] > '9') {
		return 0, false
	}

	i := 0
	for i < len(rem) && rem[i] >= '0' && rem[i] <= '9' {
		i++
	}
	if i < len(rem) && rem[i] == '.' {
		i++
		for i < len(rem) && rem[i] >= '0' && rem[i] <= '9' {
			i++
		}
	}
	if i < len(rem) && (rem[i] == 'e' || rem[i] == 'E') {
		j := i + 1
		if j < len(rem) && (rem[j] == '+' || rem[j] == '-') {
			j++
		}
		if j < len(rem) && rem[j] >= '0' && rem[j] <= '9' {
			for j < len(rem) && rem[j] >= '0' && rem[j] <= '9' {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(rem[:i], 64)
	if err != nil {
		return 0, false
	}
	c.Skip(i)
	return v, true
}

func isHexDigitTest(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func (c *testContext) GetSymbolName() string {
	rem := c.Remaining()
	i := 0
	for i < len(rem) && (isIdentStart(rem[i]) || (rem[i] >= '0' && rem[i] <= '9')) {
		i++
	}
	if i < len(rem) && rem[i] == '$' {
		i++
	}
	name := rem[:i]
	c.Skip(i)
	return name
}

func (c *testContext) GetSymbolValue(name string) (Value, bool) {
	v, ok := c.symbols[strings.ToUpper(name)]
	return v, ok
}

func (c *testContext) GetPC() int64 { return c.pc }

func (c *testContext) IsFirstPass() bool { return c.firstPass }

func (c *testContext) SkipExpression(bracketCount int, allowOneTrailingClose bool) {
	c.skipped = true
	c.pos = len(c.src)
}

func (c *testContext) AssemblyTime() time.Time { return c.now }

func (c *testContext) Rand() (value, max uint32) { return c.randValue, c.randMax }

func (c *testContext) NewSubExpression(s string) Context {
	return &testContext{
		src:       s,
		firstPass: c.firstPass,
		pc:        c.pc,
		symbols:   c.symbols,
		now:       c.now,
		randValue: c.randValue,
		randMax:   c.randMax,
	}
}
