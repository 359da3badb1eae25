package logwriter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatError reports a message template that could not be rendered with
// the supplied arguments. Callers can detect it with errors.As.
type FormatError struct {
	// Template is the offending message template.
	Template string
	// Reason describes why rendering failed.
	Reason string
}

// Error returns a description of the format failure.
func (e *FormatError) Error() string {
	return fmt.Sprintf("logwriter: cannot render template %q: %s", e.Template, e.Reason)
}

// argTimeLayout is the fixed layout used for time.Time arguments so that
// rendered entries do not vary with the host locale.
const argTimeLayout = "2006-01-02 15:04:05"

// renderTemplate interpolates indexed placeholders of the form {0}, {1}, ...
// with the supplied arguments. Literal braces are written as {{ and }}.
// A placeholder with no matching argument, an unterminated placeholder, or
// a non-numeric placeholder yields a *FormatError and no partial output.
func renderTemplate(template string, args []any) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + 16*len(args))

	for i := 0; i < len(template); i++ {
		c := template[i]

		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", &FormatError{Template: template, Reason: "unterminated placeholder"}
			}
			end += i

			index, err := strconv.Atoi(template[i+1 : end])
			if err != nil {
				return "", &FormatError{
					Template: template,
					Reason:   fmt.Sprintf("placeholder %q is not a valid argument index", template[i:end+1]),
				}
			}
			if index < 0 || index >= len(args) {
				return "", &FormatError{
					Template: template,
					Reason:   fmt.Sprintf("placeholder {%d} has no matching argument (%d supplied)", index, len(args)),
				}
			}

			b.WriteString(formatArg(args[index]))
			i = end

		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &FormatError{Template: template, Reason: "unmatched '}'"}

		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

// formatArg renders a single template argument using fixed,
// locale-independent conventions: strconv for numbers and booleans, a fixed
// layout for times, Error()/String() for errors and Stringers, and
// fmt.Sprint for everything else.
func formatArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.Format(argTimeLayout)
	case time.Duration:
		return v.String()
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
