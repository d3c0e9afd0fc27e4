package normalization

// FieldNameChange renames every occurrence of a field, preserving value and
// position. Absent fields are a no-op; the rule never extinguishes.
type FieldNameChange struct {
	from string
	to   string
}

// NewFieldNameChange builds a rename rule.
func NewFieldNameChange(from, to string) *FieldNameChange {
	return &FieldNameChange{from: from, to: to}
}

// Name identifies the rule in logs.
func (r *FieldNameChange) Name() string { return "FieldNameChange" }

// Apply renames matching fields.
func (r *FieldNameChange) Apply(_ string, tick Tick, _ History) (Tick, bool, error) {
	out := tick.Map(func(field Field) (Field, bool) {
		if field.Name == r.from {
			field.Name = r.to
		}
		return field, true
	})
	return out, true, nil
}
