package query

import (
	"fmt"
	"strings"
)

// Render substitutes single-brace placeholders in a SQL template.
//
// "{month}" is replaced by params["month"]; "{{" and "}}" are the escapes
// for literal braces. Substitution is pure text interpolation, so callers
// must sanitize any value they pass in. An unknown placeholder or an
// unbalanced brace is a render error.
func Render(tmpl string, params map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("render template: unclosed brace at offset %d", i)
			}
			name := tmpl[i+1 : i+1+end]
			if strings.ContainsAny(name, "{ \t\n") {
				return "", fmt.Errorf("render template: invalid placeholder %q", name)
			}
			value, ok := params[name]
			if !ok {
				return "", fmt.Errorf("render template: no value for placeholder %q", name)
			}
			out.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				out.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("render template: single %q at offset %d", "}", i)
		default:
			out.WriteByte(tmpl[i])
		}
	}
	return out.String(), nil
}

// Placeholders returns the distinct placeholder names of a template in
// first-appearance order. Escaped braces are ignored.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i+1:], '}')
		if end < 0 {
			break
		}
		name := tmpl[i+1 : i+1+end]
		if name != "" && !strings.ContainsAny(name, "{ \t\n") && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i += end + 1
	}
	return names
}
