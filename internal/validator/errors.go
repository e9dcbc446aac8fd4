package validator

import "strings"

// FieldError is a single validation failure returned to the client.
// Codes 1000-1999 are validation errors; 400, 404, 429 and 500 are reserved
// for the generic HTTP failures.
type FieldError struct {
	Code          int      `json:"code"`
	Message       string   `json:"message"`
	Field         string   `json:"field,omitempty"`
	MaxLength     int      `json:"max_length,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// generic
const (
	CodeMissingField      = 1000
	CodeNullValue         = 1001
	CodeInvalidInput      = 1002
	CodeInvalidInputArray = 1003
)

// string
const (
	CodeExpectedString      = 1100
	CodeEmptyOrSpacesString = 1101
	CodeMaxLength           = 1102
	CodeInvalidEmail        = 1103
	CodeInvalidDateTime     = 1104
	CodeInvalidDate         = 1105
	CodeInvalidEnum         = 1106
)

// numeric
const (
	CodeExpectedNumber  = 1200
	CodeExpectedInteger = 1201
	CodeInvalidID       = 1202
)

var messages = map[int]string{
	CodeMissingField:        "Missing field",
	CodeNullValue:           "Null value is not allowed",
	CodeInvalidInput:        "Input body must be an object",
	CodeInvalidInputArray:   "Request data must be wrapped inside '{0}' array and it must contain only one element",
	CodeExpectedString:      "String value expected",
	CodeEmptyOrSpacesString: "String value cannot be empty or contain only spaces",
	CodeMaxLength:           "String is too long",
	CodeInvalidEmail:        "Value is not valid email address",
	CodeInvalidDateTime:     "Invalid date time format. Expected format: YYYY-MM-DD HH:mm:ss",
	CodeInvalidDate:         "Invalid date format. Expected format: YYYY-MM-DD",
	CodeInvalidEnum:         "Invalid enum value. Value must be one of the allowed_values",
	CodeExpectedNumber:      "Number value expected",
	CodeExpectedInteger:     "Integer value expected",
	CodeInvalidID:           "Database ID expected (Integer value. Range from 1 to 2147483647)",
}

// Message returns the stable message for a validation code.
func Message(code int) string { return messages[code] }

func ferr(code int, field string) FieldError {
	return FieldError{Code: code, Message: messages[code], Field: field}
}

func arrayErr(property string) FieldError {
	return FieldError{
		Code:    CodeInvalidInputArray,
		Message: strings.Replace(messages[CodeInvalidInputArray], "{0}", property, 1),
	}
}
