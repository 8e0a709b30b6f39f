// Package command implements the textual command parser (C5) and the
// Request/Reply sum types shared by the parser and executor (spec.md §4.5).
package command

import "strings"

// Parse tokenizes line into a Request. Unrecognised verbs produce a Request
// with Action == ActionUnknown and Verb set to the offending token; the
// parser itself never produces an error reply (spec.md §4.5: "never
// executes side effects; it returns a Request").
func Parse(line string) Request {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return Request{Action: ActionUnknown}
	}

	action, ok := verbTable[strings.ToUpper(tokens[0])]
	if !ok {
		return Request{Action: ActionUnknown, Verb: tokens[0]}
	}

	args := make([]Arg, len(tokens)-1)
	for i, tok := range tokens[1:] {
		args[i] = ArgStr(tok)
	}

	return Request{Action: action, Verb: tokens[0], Args: args}
}

// tokenize splits line into words, honoring double-quoted strings with \"
// as an embedded quote (spec.md §4.5).
func tokenize(line string) []string {
	var tokens []string

	i, n := 0, len(line)

	for i < n {
		for i < n && isSpace(line[i]) {
			i++
		}

		if i >= n {
			break
		}

		if line[i] == '"' {
			i++

			var b strings.Builder

			for i < n {
				if line[i] == '\\' && i+1 < n && line[i+1] == '"' {
					b.WriteByte('"')
					i += 2

					continue
				}

				if line[i] == '"' {
					i++

					break
				}

				b.WriteByte(line[i])
				i++
			}

			tokens = append(tokens, b.String())

			continue
		}

		start := i
		for i < n && !isSpace(line[i]) {
			i++
		}

		tokens = append(tokens, line[start:i])
	}

	return tokens
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
