package repl

import "strconv"

// invalidNumber is what a missing or malformed numeric argument becomes. It
// fails every bounds check downstream, so there is no separate parse error.
const invalidNumber = -1

// parseNumber reads a 32-bit signed decimal.
func parseNumber(s string) int {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return invalidNumber
	}
	return int(n)
}

// arg returns the i-th argument parsed as a number.
func arg(args []string, i int) int {
	if i >= len(args) {
		return invalidNumber
	}
	return parseNumber(args[i])
}
