package policy

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// NormalizeID converts an identity to its canonical string form so that ids
// coming from different places (a uint64 column, a JSON number, a path
// parameter) compare equal. nil, nil pointers and blank strings yield "".
func NormalizeID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return canonicalString(v)
	case uint64:
		return strconv.FormatUint(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		if v == math.Trunc(v) && v >= 0 && v < math.MaxUint64 {
			return strconv.FormatUint(uint64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return ""
		}
		return canonicalString(v.String())
	}

	rv := reflect.ValueOf(id)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return NormalizeID(rv.Elem().Interface())
	}
	return canonicalString(fmt.Sprint(id))
}

// canonicalString trims whitespace and strips leading zeros from purely
// numeric ids so "007" and 7 agree.
func canonicalString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return s
}

// SameIdentity compares two identities after normalisation. Two empty
// identities never match.
func SameIdentity(a, b any) bool {
	na, nb := NormalizeID(a), NormalizeID(b)
	return na != "" && na == nb
}

// IsAssignee reports whether callerID is the task's assignee.
func IsAssignee(callerID, assignee any) bool {
	return SameIdentity(callerID, assignee)
}
