package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names of T in field order, taken from
// "db" tags. Embedded structs are walked recursively. Call it once at
// package init: it uses reflection.
//
// Usage:
//
//	columns := ExtractDBColumns[sequence.Counter]()
//	// ["tenant_code", "type_code", "rotate_value", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	meta := metadataOf(t)
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		if f.embedded {
			cols = append(cols, columnsOf(t.Field(f.index).Type)...)
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

type fieldInfo struct {
	index    int
	column   string
	embedded bool
}

type typeMetadata struct {
	fields []fieldInfo
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.fields = append(meta.fields, fieldInfo{index: i, embedded: true})
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, column: tag})
		}
	}

	typeCache.Store(t, meta)
	return meta
}

// StructToMap converts a struct to a column->value map using "db" tags,
// ready for squirrel's SetMap.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		if f.embedded {
			for k, val := range StructToMap(rv.Field(f.index).Interface()) {
				res[k] = val
			}
			continue
		}
		res[f.column] = rv.Field(f.index).Interface()
	}
	return res
}
