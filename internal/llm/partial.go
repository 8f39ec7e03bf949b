package llm

import (
	"strings"
	"unicode/utf8"
)

type scanState int

const (
	expectValue scanState = iota // array start, after ',' in array, after ':' in object
	expectKey                    // object start or after ','
	expectColon                  // key read
	afterValue                   // value complete
)

type tokenKind int

const (
	tokNone tokenKind = iota
	tokString
	tokKey
	tokNumber
	tokLiteral
)

type container struct {
	object bool
	state  scanState
	comma  bool
	// cut is the output length to truncate to when the current member is incomplete.
	cut int
}

// CompleteJSON turns a prefix of a streamed JSON document into a syntactically
// complete one. Open strings are closed, open arrays and objects are closed,
// and members that cannot be completed (dangling keys, partial literals,
// trailing commas) are dropped. Leading text before the first '{' or '[' is
// ignored. It reports false when no container has started yet or the prefix
// is not JSON.
func CompleteJSON(prefix string) (string, bool) {
	start := strings.IndexAny(prefix, "{[")
	if start < 0 {
		return "", false
	}

	var (
		out       = make([]byte, 0, len(prefix)+8)
		stack     []container
		tok       tokenKind
		esc       int // -1 right after '\', n>0 hex digits left in \u escape
		escStart  int
		numStart  int // start of the current number or literal
		completed bool
	)

	src := prefix[start:]
	for i := 0; i < len(src) && !completed; i++ {
		c := src[i]

		switch tok {
		case tokString, tokKey:
			out = append(out, c)
			switch {
			case esc == -1:
				esc = 0
				if c == 'u' {
					esc = 4
				}
			case esc > 0:
				esc--
			case c == '\\':
				esc = -1
				escStart = len(out) - 1
			case c == '"':
				top := &stack[len(stack)-1]
				if tok == tokKey {
					top.state = expectColon
				} else {
					top.state = afterValue
				}
				tok = tokNone
			}
			continue
		case tokNumber:
			if strings.IndexByte("0123456789+-.eE", c) >= 0 {
				out = append(out, c)
				continue
			}
			tok = tokNone
			stack[len(stack)-1].state = afterValue
		case tokLiteral:
			if c >= 'a' && c <= 'z' {
				out = append(out, c)
				continue
			}
			tok = tokNone
			stack[len(stack)-1].state = afterValue
		}

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			out = append(out, c)
			continue
		}

		var top *container
		if len(stack) > 0 {
			top = &stack[len(stack)-1]
		}

		switch {
		case c == '{' || c == '[':
			if top != nil && top.state != expectValue {
				return "", false
			}
			out = append(out, c)
			next := container{object: c == '{', state: expectValue, cut: len(out)}
			if next.object {
				next.state = expectKey
			}
			stack = append(stack, next)
		case c == '}' || c == ']':
			if top == nil || top.object != (c == '}') {
				return "", false
			}
			if top.state != afterValue && (top.comma || top.state == expectColon || (top.object && top.state == expectValue)) {
				return "", false
			}
			out = append(out, c)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				completed = true
			} else {
				stack[len(stack)-1].state = afterValue
			}
		case top == nil:
			return "", false
		case c == ',':
			if top.state != afterValue {
				return "", false
			}
			top.cut = len(out)
			top.comma = true
			out = append(out, c)
			if top.object {
				top.state = expectKey
			} else {
				top.state = expectValue
			}
		case c == ':':
			if top.state != expectColon {
				return "", false
			}
			out = append(out, c)
			top.state = expectValue
		case c == '"':
			switch top.state {
			case expectKey:
				tok = tokKey
			case expectValue:
				tok = tokString
			default:
				return "", false
			}
			esc = 0
			out = append(out, c)
		case c == '-' || (c >= '0' && c <= '9'):
			if top.state != expectValue {
				return "", false
			}
			tok = tokNumber
			numStart = len(out)
			out = append(out, c)
		case c == 't' || c == 'f' || c == 'n':
			if top.state != expectValue {
				return "", false
			}
			tok = tokLiteral
			numStart = len(out)
			out = append(out, c)
		default:
			return "", false
		}
	}

	if completed {
		return string(out), true
	}

	top := &stack[len(stack)-1]
	switch tok {
	case tokString:
		if esc != 0 {
			out = out[:escStart]
		}
		out = trimPartialRune(out)
		out = append(out, '"')
	case tokKey:
		out = out[:top.cut]
	case tokLiteral:
		switch string(out[numStart:]) {
		case "true", "false", "null":
		default:
			out = out[:top.cut]
		}
	case tokNumber:
		out = trimNumber(out, numStart)
		if len(out) == numStart {
			out = out[:top.cut]
		}
	default:
		if top.state != afterValue {
			out = out[:top.cut]
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].object {
			out = append(out, '}')
		} else {
			out = append(out, ']')
		}
	}
	return string(out), true
}

// trimNumber drops trailing characters that cannot end a JSON number.
func trimNumber(out []byte, start int) []byte {
	for len(out) > start && strings.IndexByte("+-.eE", out[len(out)-1]) >= 0 {
		out = out[:len(out)-1]
	}
	return out
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of out.
func trimPartialRune(out []byte) []byte {
	for n := 0; n < utf8.UTFMax-1 && len(out) > 0; n++ {
		r, size := utf8.DecodeLastRune(out)
		if r != utf8.RuneError || size != 1 {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}
