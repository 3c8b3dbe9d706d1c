package agent

import (
	"regexp"
	"strings"
)

// callPattern matches name(args): the name is the leading run of Unicode
// word characters (letters, marks, digits, connector punctuation), args
// span from the first "(" to the last ")".
var callPattern = regexp.MustCompile(`(?s)([\p{L}\p{M}\p{N}\p{Pc}]+)\((.*)\)`)

// Call is a parsed action expression.
type Call struct {
	Tool string
	Args []string
}

// ParseCall parses an action expression such as
// write_to_file("a.txt", 'line\n'). Arguments are split on commas outside
// quotes and parentheses; quoted arguments are unquoted and unescaped,
// bare arguments are kept verbatim.
func ParseCall(expr string) (Call, error) {
	m := callPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Call{}, &ParseError{Input: expr, Reason: "not a function call"}
	}
	return Call{Tool: m[1], Args: splitArguments(strings.TrimSpace(m[2]))}, nil
}

// splitArguments scans runes left to right tracking quote state and
// parenthesis depth. A quote closes when the same quote character appears
// without a backslash right before it. Only one character is looked at,
// so the quote in `\\"` does not close the string either.
func splitArguments(s string) []string {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		quote   rune
		depth   int
		prev    rune
	)

	for _, r := range s {
		switch {
		case inQuote:
			current.WriteRune(r)
			if r == quote && prev != '\\' {
				inQuote = false
			}
		case r == '"' || r == '\'':
			inQuote = true
			quote = r
			current.WriteRune(r)
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case r == ',' && depth == 0:
			args = append(args, decodeArgument(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
		prev = r
	}

	if strings.TrimSpace(current.String()) != "" {
		args = append(args, decodeArgument(current.String()))
	}
	return args
}

// escapes are applied one after another, in this order.
var escapes = []struct{ from, to string }{
	{`\"`, `"`},
	{`\'`, `'`},
	{`\n`, "\n"},
	{`\t`, "\t"},
	{`\r`, "\r"},
	{`\\`, `\`},
}

// decodeArgument strips one pair of matching outer quotes and replaces
// escape sequences. Unquoted arguments are returned trimmed but otherwise
// untouched.
func decodeArgument(raw string) string {
	arg := strings.TrimSpace(raw)
	quoted := (strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`)) ||
		(strings.HasPrefix(arg, `'`) && strings.HasSuffix(arg, `'`))
	if !quoted {
		return arg
	}
	if len(arg) < 2 {
		return ""
	}

	inner := arg[1 : len(arg)-1]
	for _, e := range escapes {
		inner = strings.ReplaceAll(inner, e.from, e.to)
	}
	return inner
}
