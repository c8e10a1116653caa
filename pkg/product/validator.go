package product

// Validator drops records that miss a required field.
type Validator struct {
	Fields []RequiredField
}

// NewValidator creates a validator. With no fields it uses DefaultFields.
func NewValidator(fields ...RequiredField) *Validator {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	return &Validator{Fields: fields}
}

// IsValid reports whether every required field has a value under at least
// one of its aliases.
func (v *Validator) IsValid(r Record) bool {
	if r == nil {
		return false
	}
	for _, field := range v.Fields {
		found := false
		for _, alias := range field.Aliases {
			if present(r[alias]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter returns the valid records in input order. Records are returned as-is,
// never copied or repaired. The result is never nil.
func (v *Validator) Filter(records []Record) []Record {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		if v.IsValid(r) {
			valid = append(valid, r)
		}
	}
	return valid
}

// FilterValid filters records against DefaultFields.
func FilterValid(records []Record) []Record {
	return NewValidator().Filter(records)
}

// FilterDecoded is Filter over the elements of a decoded JSON array.
// Elements that are not JSON objects are dropped like any invalid record.
func (v *Validator) FilterDecoded(items []any) []Record {
	valid := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if r := Record(obj); v.IsValid(r) {
			valid = append(valid, r)
		}
	}
	return valid
}
