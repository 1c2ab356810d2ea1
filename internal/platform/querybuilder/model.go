package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// modelField maps one db-tagged struct field to its column.
type modelField struct {
	column string
	index  int
}

var modelFieldCache sync.Map // reflect.Type -> []modelField

func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertModels(table, []any{model}, suffix)
}

// InsertModels renders one multi-row INSERT. Every model must share the same
// struct type; columns come from its db tags in field order.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models are required")
	}

	var (
		builder  *InsertBuilder
		rowType  reflect.Type
		fieldSet []modelField
	)
	for i, model := range models {
		value, err := structValue(model)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if rowType == nil {
			rowType = value.Type()
			if fieldSet, err = fieldsOf(rowType); err != nil {
				return "", nil, err
			}
			columns := make([]string, len(fieldSet))
			for j, f := range fieldSet {
				columns[j] = f.column
			}
			builder = InsertInto(table).Columns(columns...)
		} else if value.Type() != rowType {
			return "", nil, fmt.Errorf("model %d has type %s, expected %s", i, value.Type(), rowType)
		}

		values := make([]any, len(fieldSet))
		for j, f := range fieldSet {
			values[j] = value.Field(f.index).Interface()
		}
		builder.Values(values...)
	}

	return builder.Suffix(suffix).ToSQL()
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be struct")
	}
	return value, nil
}

func fieldsOf(typ reflect.Type) ([]modelField, error) {
	if cached, ok := modelFieldCache.Load(typ); ok {
		return cached.([]modelField), nil
	}

	fields := make([]modelField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		column, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		column = strings.TrimSpace(column)
		if column == "" || column == "-" {
			continue
		}
		fields = append(fields, modelField{column: column, index: i})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("model %s has no db columns", typ)
	}

	modelFieldCache.Store(typ, fields)
	return fields, nil
}
