package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var identRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidIdent reports whether name can be spliced into generated script
// code as a plain global identifier.
func ValidIdent(name string) bool {
	return identRE.MatchString(name)
}

// JSArgs renders Go values as a JavaScript argument list for generated
// call expressions. Only scalar types are accepted.
func JSArgs(args ...any) (string, error) {
	out := make([]byte, 0, 16*len(args))
	for i, a := range args {
		if i > 0 {
			out = append(out, ", "...)
		}
		switch v := a.(type) {
		case nil:
			out = append(out, "undefined"...)
		case int:
			out = strconv.AppendInt(out, int64(v), 10)
		case int64:
			out = strconv.AppendInt(out, v, 10)
		case uint64:
			out = strconv.AppendUint(out, v, 10)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return "", fmt.Errorf("argument %d: non-finite number %v", i, v)
			}
			out = strconv.AppendFloat(out, v, 'g', -1, 64)
		case bool:
			out = strconv.AppendBool(out, v)
		case string:
			out = strconv.AppendQuoteToASCII(out, v)
		default:
			return "", fmt.Errorf("argument %d: unsupported type %T", i, a)
		}
	}
	return string(out), nil
}

// NormalizeInt narrows integer values to int when they fit in int32 and to
// float64 otherwise, so engines that only marshal int and float64 accept
// them.
func NormalizeInt(value any) any {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint32:
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return float64(v)
		}
		n = int64(v)
	default:
		return value
	}
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return int(n)
	}
	return float64(n)
}
