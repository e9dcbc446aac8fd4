package validator

import (
	"errors"
	"fmt"
)

// Kind is the value type a field is validated against.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindInteger
	KindID
	KindEnum
	KindDate
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindID:
		return "id"
	case KindEnum:
		return "enum"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) known() bool { return k >= KindString && k <= KindDateTime }

func (k Kind) numeric() bool { return k == KindNumber || k == KindInteger || k == KindID }

// Field is the validation rule for a single input property.
//
// Nulls are accepted by default; NotNull forbids them. ID fields never accept
// null. Required fields must be present, non-null and non-empty.
// OptionalRequired fields may be absent, but when present they follow the
// Required rules; this is how a field required on create stays optional on
// update.
type Field struct {
	Name string
	Kind Kind

	MaxLength int      // string: max rune count, 0 = unlimited
	NotEmpty  bool     // string: reject empty or whitespace-only values
	IsEmail   bool     // string: must look like an email address
	Values    []string // enum: allowed values

	IsRequired         bool
	IsNotNull          bool
	IsOptionalRequired bool
}

func String(name string, maxLength int) Field {
	return Field{Name: name, Kind: KindString, MaxLength: maxLength}
}

func Number(name string) Field  { return Field{Name: name, Kind: KindNumber} }
func Integer(name string) Field { return Field{Name: name, Kind: KindInteger} }
func ID(name string) Field      { return Field{Name: name, Kind: KindID} }
func Date(name string) Field    { return Field{Name: name, Kind: KindDate} }

func DateTime(name string) Field { return Field{Name: name, Kind: KindDateTime} }

func Enum(name string, values ...string) Field {
	return Field{Name: name, Kind: KindEnum, Values: values}
}

func (f Field) Required() Field         { f.IsRequired = true; return f }
func (f Field) NotNull() Field          { f.IsNotNull = true; return f }
func (f Field) OptionalRequired() Field { f.IsOptionalRequired = true; return f }
func (f Field) Email() Field            { f.IsEmail = true; return f }
func (f Field) NonEmpty() Field         { f.NotEmpty = true; return f }

func (f Field) nullable() bool {
	return !(f.IsRequired || f.IsNotNull || f.IsOptionalRequired || f.Kind == KindID)
}

// mustBeFilled reports whether an empty string is rejected.
func (f Field) mustBeFilled() bool {
	return f.NotEmpty || f.IsRequired || f.IsOptionalRequired
}

// Schema is an ordered set of field rules. Order decides the order of
// reported errors.
type Schema []Field

// Lookup returns the rule for name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	out := make([]string, 0, len(s))
	for _, f := range s {
		out = append(out, f.Name)
	}
	return out
}

// Check reports definition defects: unknown kinds, unnamed or duplicate
// fields, enums without values.
func (s Schema) Check() error {
	var errs []error
	seen := make(map[string]struct{}, len(s))
	for i, f := range s {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("field #%d: empty name", i))
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errs = append(errs, fmt.Errorf("field %q: declared twice", f.Name))
		}
		seen[f.Name] = struct{}{}
		if !f.Kind.known() {
			errs = append(errs, fmt.Errorf("field %q: unknown type %s", f.Name, f.Kind))
		}
		if f.Kind == KindEnum && len(f.Values) == 0 {
			errs = append(errs, fmt.Errorf("field %q: enum without values", f.Name))
		}
	}
	return errors.Join(errs...)
}

// MustCheck panics when the schema is malformed. Use it where schemas are
// declared so a broken definition stops the process at startup.
func (s Schema) MustCheck() Schema {
	if err := s.Check(); err != nil {
		panic("validator: invalid schema: " + err.Error())
	}
	return s
}
