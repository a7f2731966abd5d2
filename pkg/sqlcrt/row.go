package sqlcrt

// Row is one fetched record: column names and values in result order.
// A Row is never modified after NewRow returns it.
type Row struct {
	columns []string
	values  []any
}

// NewRow copies columns and values into a Row. Extra entries on the longer
// side are dropped.
func NewRow(columns []string, values []any) Row {
	n := min(len(columns), len(values))

	r := Row{
		columns: make([]string, n),
		values:  make([]any, n),
	}

	copy(r.columns, columns[:n])
	copy(r.values, values[:n])

	return r
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.values)
}

// Columns returns a copy of the column names.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)

	return out
}

// Values returns a copy of the values.
func (r Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)

	return out
}

// Index returns the value at position i. It panics when i is out of range.
func (r Row) Index(i int) any {
	return r.values[i]
}

// Get returns the value of the first column called name.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}

	return nil, false
}

// Map returns the row as a name to value map. When a column name repeats the
// first occurrence wins, the same as Get.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))

	for i, c := range r.columns {
		if _, ok := m[c]; !ok {
			m[c] = r.values[i]
		}
	}

	return m
}

// FirstColumn extracts the scalar result of a single-row operation.
// A nil row means no row was produced and yields nil, nil.
func FirstColumn(row *Row) (any, error) {
	if row == nil {
		return nil, nil
	}

	if row.Len() == 0 {
		return nil, ErrNoColumns
	}

	return row.Index(0), nil
}
