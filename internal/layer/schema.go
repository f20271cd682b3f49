package layer

import "fmt"

// FieldKind enumerates the closed set of UI input kinds spec.md §4.3 names.
// Modeled as a sum type (Kind + kind-specific payload fields) rather than a
// free-form map, per the Design Note replacing dynamic attribute binding.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindRange
	KindBool
	KindColor
	KindDropdown
	KindMultiselect
	KindSearch
)

// SchemaField describes one named, typed configuration input a layer class
// exposes. Only the fields relevant to Kind are meaningful; zero values for
// the rest are ignored.
type SchemaField struct {
	Name     string
	Label    string
	Kind     FieldKind
	Default  any
	Min      int      // KindRange
	Max      int      // KindRange
	Options  []string // KindDropdown, KindMultiselect
	Required bool
}

// Schema is an ordered list of SchemaFields, the UI-facing description of a
// layer class's configuration surface.
type Schema []SchemaField

// configReader provides typed, validated access into a config map, the
// bound replacement for reflective attribute injection (Design Note:
// "explicit typed config struct per layer ... via from_config(map)").
type configReader struct {
	schema Schema
	values map[string]any
}

func newConfigReader(schema Schema, values map[string]any) *configReader {
	return &configReader{schema: schema, values: values}
}

func (r *configReader) field(name string) (SchemaField, bool) {
	for _, f := range r.schema {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

func (r *configReader) string(name string) (string, error) {
	f, ok := r.field(name)
	if !ok {
		return "", fmt.Errorf("unknown config field %q", name)
	}
	v, present := r.values[name]
	if !present {
		if f.Required {
			return "", fmt.Errorf("missing required field %q", name)
		}
		if s, ok := f.Default.(string); ok {
			return s, nil
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", name, v)
	}
	return s, nil
}

func (r *configReader) boolField(name string) (bool, error) {
	f, ok := r.field(name)
	if !ok {
		return false, fmt.Errorf("unknown config field %q", name)
	}
	v, present := r.values[name]
	if !present {
		if b, ok := f.Default.(bool); ok {
			return b, nil
		}
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q: expected bool, got %T", name, v)
	}
	return b, nil
}

func (r *configReader) intField(name string) (int, error) {
	f, ok := r.field(name)
	if !ok {
		return 0, fmt.Errorf("unknown config field %q", name)
	}
	v, present := r.values[name]
	if !present {
		if i, ok := f.Default.(int); ok {
			return i, nil
		}
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("field %q: expected int, got %T", name, v)
	}
}

func (r *configReader) stringSlice(name string) ([]string, error) {
	v, present := r.values[name]
	if !present {
		return nil, nil
	}
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: expected string list, got element %T", name, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q: expected string list, got %T", name, v)
	}
}
