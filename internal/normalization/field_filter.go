package normalization

// FieldFilter keeps only fields whose name is in the allow-list, preserving
// original order and duplicates. A tick reduced to zero fields is
// extinguished.
type FieldFilter struct {
	allowed map[string]struct{}
}

// NewFieldFilter builds a filter over the allow-list.
func NewFieldFilter(allowed ...string) *FieldFilter {
	filter := new(FieldFilter)
	filter.allowed = make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		filter.allowed[name] = struct{}{}
	}
	return filter
}

// Name identifies the rule in logs.
func (f *FieldFilter) Name() string { return "FieldFilter" }

// Apply drops disallowed fields and extinguishes empty results.
func (f *FieldFilter) Apply(_ string, tick Tick, _ History) (Tick, bool, error) {
	out := tick.Map(func(field Field) (Field, bool) {
		_, keep := f.allowed[field.Name]
		return field, keep
	})
	if out.Len() == 0 {
		return Tick{}, false, nil
	}
	return out, true, nil
}
