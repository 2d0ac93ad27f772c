package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	timePtrType = reflect.TypeOf(&time.Time{})
)

// Encode converts an entity struct to a Document using its json tags.
// Decimals end up as strings. Top-level time fields stay native so the
// backends can index and order them; zero times are dropped.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return doc, nil
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		fv := rv.Field(i)
		switch f.Type {
		case timeType:
			t := fv.Interface().(time.Time)
			if t.IsZero() {
				delete(doc, name)
			} else {
				doc[name] = t.UTC()
			}
		case timePtrType:
			if fv.IsNil() || fv.Interface().(*time.Time).IsZero() {
				delete(doc, name)
			} else {
				doc[name] = fv.Interface().(*time.Time).UTC()
			}
		}
	}
	delete(doc, FieldID)
	return doc, nil
}

// Decode fills v from a stored document.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID(), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID(), err)
	}
	return nil
}

func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var item T
		if err := Decode(d, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
