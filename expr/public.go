package expr

// EvaluateAsDouble evaluates one expression and requires a Number
// result.
func EvaluateAsDouble(ctx Context, allowOneTrailingClose bool) (float64, error) {
	v, err := NewEvaluator(ctx).Evaluate(allowOneTrailingClose)
	if err != nil {
		return 0, err
	}
	line, col := ctx.Position()
	return v.AsNumber(line, col)
}

// EvaluateAsInt evaluates one expression and requires a Number result
// coercible to a signed 32-bit integer (spec.md §4.E's integer
// coercion rule).
func EvaluateAsInt(ctx Context, allowOneTrailingClose bool) (int32, error) {
	n, err := EvaluateAsDouble(ctx, allowOneTrailingClose)
	if err != nil {
		return 0, err
	}
	line, col := ctx.Position()
	return toInteger(line, col, n)
}

// EvaluateAsUnsignedInt is EvaluateAsInt reinterpreted as unsigned
// 32-bit, matching the assembler's use for operand bytes/words.
func EvaluateAsUnsignedInt(ctx Context, allowOneTrailingClose bool) (uint32, error) {
	n, err := EvaluateAsInt(ctx, allowOneTrailingClose)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// EvaluateAsString evaluates one expression and requires a String
// result.
func EvaluateAsString(ctx Context, allowOneTrailingClose bool) (String, error) {
	v, err := NewEvaluator(ctx).Evaluate(allowOneTrailingClose)
	if err != nil {
		return String{}, err
	}
	line, col := ctx.Position()
	return v.AsString(line, col)
}
