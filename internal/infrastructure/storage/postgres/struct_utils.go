package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the column names a struct maps to, read from "db"
// tags. Embedded structs (entity.Catalog, entity.BaseDocument) are walked
// recursively so repositories can build SELECT and INSERT column lists from
// the model alone.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// dbFieldPlan caches which fields of a struct type carry db tags, so
// StructToMap reflects over each type only once.
type dbFieldPlan struct {
	tagged   []taggedField
	embedded []int
}

type taggedField struct {
	index int
	tag   string
}

var fieldPlans sync.Map // reflect.Type -> *dbFieldPlan

func planFor(t reflect.Type) *dbFieldPlan {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldPlans.Load(t); ok {
		return cached.(*dbFieldPlan)
	}

	plan := &dbFieldPlan{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				plan.embedded = append(plan.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			plan.tagged = append(plan.tagged, taggedField{index: i, tag: tag})
		}
	}

	fieldPlans.Store(t, plan)
	return plan
}

// StructToMap flattens a struct into column name to value pairs using "db"
// tags. Untagged and "-" fields are skipped; embedded structs are merged in.
// The audit trail uses this to snapshot entity state before diffing.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	plan := planFor(rv.Type())
	res := make(map[string]any, len(plan.tagged))
	for _, f := range plan.tagged {
		res[f.tag] = rv.Field(f.index).Interface()
	}
	for _, i := range plan.embedded {
		for k, v := range StructToMap(rv.Field(i).Interface()) {
			res[k] = v
		}
	}
	return res
}
