package rowexport // import "kastelo.dev/rowexport"

// Value is a single cell value. Exportable dynamic types are nil, string,
// bool, the integer and float types and time.Time.
type Value = any

type Field struct {
	Key   string
	Value Value
}

// Record is a flat field to value mapping that remembers the order in
// which its keys were first set.
type Record struct {
	keys   []string
	values map[string]Value
}

func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set adds key at the end of the record, or replaces the value of an
// existing key in place.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r Record) Len() int {
	return len(r.keys)
}

type RecordSet []Record

// Header returns the column order for rs, which is the key order of the
// first record.
func Header(rs RecordSet) []string {
	if len(rs) == 0 {
		return nil
	}
	return rs[0].Keys()
}

// Row returns the values of rec in header order. Keys missing from rec
// are nil.
func Row(rec Record, header []string) []Value {
	row := make([]Value, len(header))
	for i, h := range header {
		row[i], _ = rec.Get(h)
	}
	return row
}
