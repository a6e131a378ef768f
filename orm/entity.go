package orm

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Entity is anything the resolver and materializer can read attributes from
// and attach related records to. Generated model types and Row implement it.
type Entity interface {
	// Attribute returns the named attribute and whether it is present.
	Attribute(name string) (any, bool)
	// SetRelation stores a resolved relation. value is a []Entity for
	// multiple relations and an Entity (possibly nil) otherwise.
	SetRelation(name string, value any)
}

// AfterFinder is implemented by records that need a hook once every eager
// relation has been attached. Rows fetched with AsArray skip it.
type AfterFinder interface {
	AfterFind()
}

// Row is one decoded JSON object.
type Row map[string]any

// Attribute implements Entity.
func (r Row) Attribute(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// SetRelation implements Entity. Related entities are stored under name.
func (r Row) SetRelation(name string, value any) {
	r[name] = value
}

var _ Entity = Row(nil)

// DecodeRow copies row into the struct pointed to by out, matching fields
// by their `rest` tag. Numeric strings and JSON floats convert to the
// field's type.
func DecodeRow(row Row, out any) error {
	dec, err := newDecoder(out)
	if err != nil {
		return fmt.Errorf("orm: decode row: %w", err)
	}
	if err := dec.Decode(map[string]any(row)); err != nil {
		return fmt.Errorf("orm: decode row: %w", err)
	}
	return nil
}

// DecodeAttrs decodes the named attributes of row into the pointers held by
// fields. Attributes absent from row leave their target untouched.
// Generated constructors use it.
func DecodeAttrs(row Row, fields map[string]any) error {
	for name, out := range fields {
		v, ok := row[name]
		if !ok {
			continue
		}
		dec, err := newDecoder(out)
		if err != nil {
			return fmt.Errorf("orm: decode %q: %w", name, err)
		}
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("orm: decode %q: %w", name, err)
		}
	}
	return nil
}

func newDecoder(out any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "rest",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
		),
	})
}

// AsSlice converts a multiple-relation value handed to SetRelation into a
// typed slice. Entities of another type are skipped.
func AsSlice[T any](value any) []T {
	list, _ := value.([]Entity)
	out := make([]T, 0, len(list))
	for _, e := range list {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// As converts a single-relation value handed to SetRelation into T. The
// zero value is returned for nil or mismatched values.
func As[T any](value any) T {
	v, _ := value.(T)
	return v
}
