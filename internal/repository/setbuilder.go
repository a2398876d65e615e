package repository

import (
	"strconv"
	"strings"
)

// setBuilder accumulates SET clauses for partial updates. Absent (nil)
// fields are skipped so an edit touches only what the caller sent.
type setBuilder struct {
	cols []string
	args []any
}

func newSetBuilder() *setBuilder {
	return &setBuilder{}
}

func (b *setBuilder) add(col string, v any) {
	switch p := v.(type) {
	case nil:
		return
	case *string:
		if p != nil {
			b.addValue(col, *p)
		}
	case *int:
		if p != nil {
			b.addValue(col, *p)
		}
	case *int64:
		if p != nil {
			b.addValue(col, *p)
		}
	case *bool:
		if p != nil {
			b.addValue(col, *p)
		}
	case []byte:
		if p != nil {
			b.addValue(col, p)
		}
	default:
		b.addValue(col, v)
	}
}

// addNullable treats an explicit empty string as SQL NULL, clearing the
// column, while nil means the field was absent and is left untouched.
func (b *setBuilder) addNullable(col string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		b.addValue(col, nil)
		return
	}
	b.addValue(col, *v)
}

func (b *setBuilder) addValue(col string, v any) {
	b.cols = append(b.cols, col)
	b.args = append(b.args, v)
}

func (b *setBuilder) empty() bool {
	return len(b.cols) == 0
}

// clause renders "col1 = $1, col2 = $2, ...".
func (b *setBuilder) clause() string {
	parts := make([]string, len(b.cols))
	for i, col := range b.cols {
		parts[i] = col + " = $" + strconv.Itoa(i+1)
	}
	return strings.Join(parts, ", ")
}

// next returns the placeholder following the SET arguments, for the
// WHERE clause.
func (b *setBuilder) next() string {
	return "$" + strconv.Itoa(len(b.args)+1)
}

// withArg appends the WHERE argument to the SET arguments.
func (b *setBuilder) withArg(v any) []any {
	return append(b.args, v)
}
