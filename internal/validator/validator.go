package validator

import (
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxID is the largest id the database can hold (int4).
const MaxID = 2147483647

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var (
	emailRe    = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datetimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)
)

// ValidateObject checks input against schema and normalizes it in place:
// undeclared properties are removed, numeric values become float64 (number)
// or int64 (integer, id), dates become time.Time in UTC.
//
// An unknown Kind in schema is a programming error and panics.
func ValidateObject(schema Schema, input any) []FieldError {
	obj, ok := input.(map[string]any)
	if !ok {
		return []FieldError{ferr(CodeInvalidInput, "")}
	}

	// убираем всё, что не описано в схеме
	for k := range obj {
		if _, declared := schema.Lookup(k); !declared {
			delete(obj, k)
		}
	}

	var errs []FieldError
	for _, f := range schema {
		if _, present := obj[f.Name]; !present && f.IsRequired {
			errs = append(errs, ferr(CodeMissingField, f.Name))
		}
	}

	for _, f := range schema {
		value, present := obj[f.Name]
		if !present {
			continue
		}
		if value == nil {
			if !f.nullable() {
				errs = append(errs, ferr(CodeNullValue, f.Name))
			}
			continue
		}
		norm, fe := checkField(f, value)
		if fe != nil {
			errs = append(errs, *fe)
			if f.Kind.numeric() {
				obj[f.Name] = norm
			}
			continue
		}
		obj[f.Name] = norm
	}
	return errs
}

// checkField returns the normalized value or the first failing rule.
func checkField(f Field, value any) (any, *FieldError) {
	fail := func(code int) *FieldError {
		e := ferr(code, f.Name)
		return &e
	}

	switch f.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return value, fail(CodeExpectedString)
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			e := fail(CodeMaxLength)
			e.MaxLength = f.MaxLength
			return value, e
		}
		if strings.TrimSpace(s) == "" && f.mustBeFilled() {
			return value, fail(CodeEmptyOrSpacesString)
		}
		if f.IsEmail && !emailRe.MatchString(s) {
			return value, fail(CodeInvalidEmail)
		}
		return s, nil

	case KindNumber:
		n := ToNumber(value)
		if !isValidNumber(n) {
			return n, fail(CodeExpectedNumber)
		}
		return n, nil

	case KindInteger:
		n := ToNumber(value)
		if !isValidInteger(n) {
			return n, fail(CodeExpectedInteger)
		}
		return int64(n), nil

	case KindID:
		n := ToNumber(value)
		if !isValidID(n) {
			return n, fail(CodeInvalidID)
		}
		return int64(n), nil

	case KindDate:
		t, ok := parseStrict(value, dateRe, DateLayout)
		if !ok {
			return value, fail(CodeInvalidDate)
		}
		return t, nil

	case KindDateTime:
		t, ok := parseStrict(value, datetimeRe, DateTimeLayout)
		if !ok {
			return value, fail(CodeInvalidDateTime)
		}
		return t, nil

	case KindEnum:
		s, ok := value.(string)
		if !ok || !slices.Contains(f.Values, s) {
			e := fail(CodeInvalidEnum)
			e.AllowedValues = slices.Clone(f.Values)
			return value, e
		}
		return s, nil

	default:
		panic("validator: unknown type " + f.Kind.String() + " for field " + f.Name)
	}
}

// ValidateID checks that id is a database id.
func ValidateID(id float64) []FieldError {
	if isValidID(id) {
		return []FieldError{}
	}
	return []FieldError{ferr(CodeInvalidID, "id")}
}

// ValidateSingleArrayElement checks that body[property] is an array holding
// exactly one element.
func ValidateSingleArrayElement(body any, property string) *FieldError {
	obj, ok := body.(map[string]any)
	if !ok {
		e := arrayErr(property)
		return &e
	}
	arr, ok := obj[property].([]any)
	if !ok || len(arr) != 1 {
		e := arrayErr(property)
		return &e
	}
	return nil
}

// ToNumber converts a decoded JSON value to float64. Anything that is not a
// number or a numeric string yields NaN.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		return parseNumber(string(t))
	case string:
		return parseNumber(t)
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if n, ok := parsePrefixed(s); ok {
		return n
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// parsePrefixed разбирает беззнаковые литералы 0x.., 0o.., 0b..
// Знак и разделители "_" не допускаются.
func parsePrefixed(s string) (float64, bool) {
	if len(s) < 2 || s[0] != '0' {
		return 0, false
	}
	var base float64
	switch s[1] {
	case 'x', 'X':
		base = 16
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	default:
		return 0, false
	}
	digits := s[2:]
	if digits == "" {
		return math.NaN(), true
	}
	var n float64
	for i := 0; i < len(digits); i++ {
		d := strings.IndexByte("0123456789abcdef", lower(digits[i]))
		if d < 0 || float64(d) >= base {
			return math.NaN(), true
		}
		n = n*base + float64(d)
	}
	return n, true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func isValidNumber(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// isValidInteger также требует, чтобы значение без потерь легло в int64
func isValidInteger(n float64) bool {
	return isValidNumber(n) && math.Trunc(n) == n &&
		n >= math.MinInt64 && n < math.MaxInt64
}

func isValidID(n float64) bool {
	return isValidInteger(n) && n > 0 && n <= MaxID
}

func parseStrict(value any, re *regexp.Regexp, layout string) (time.Time, bool) {
	s, ok := value.(string)
	if !ok || !re.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
