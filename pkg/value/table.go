package value

import "math"

// Table is the associative/array container. It has a dense, zero-based
// array part and a mapping part with unique keys. Tables are always
// handled through pointers: any number of Value handles may alias one
// table, and mutation through one handle is visible through all.
//
// Tables are not safe for concurrent use. Execution is single-threaded;
// sharing a table across goroutines needs external synchronization.
type Table struct {
	// Array is the dense part, indexed from zero.
	Array []Value

	hash map[tableKey]pair
}

// pair keeps the original key Value alongside the stored value so the
// mapping can be walked with real keys.
type pair struct {
	key Value
	val Value
}

// tableKey is the comparable hash form of a Value. String tiers
// normalize to their content; float keys compare by bit pattern, so a
// NaN key is a usable, distinct key; tables hash by identity.
type tableKey struct {
	kind Kind
	num  uint64
	str  string
	ref  *Table
}

func keyOf(v Value) tableKey {
	switch v.kind {
	case KindNil:
		return tableKey{kind: KindNil}
	case KindBoolean:
		k := tableKey{kind: KindBoolean}
		if v.b {
			k.num = 1
		}
		return k
	case KindInteger:
		return tableKey{kind: KindInteger, num: uint64(v.i)}
	case KindFloat:
		return tableKey{kind: KindFloat, num: math.Float64bits(v.f)}
	case KindShortString, KindMidString, KindLongString:
		s, _ := v.Text()
		return tableKey{kind: KindShortString, str: s}
	case KindTable:
		return tableKey{kind: KindTable, ref: v.table}
	case KindBuiltin:
		return tableKey{kind: KindBuiltin, num: uint64(v.id)}
	}
	return tableKey{kind: v.kind}
}

// NewTable creates an empty table with capacity hints for the array and
// mapping parts.
func NewTable(narr, nrec int) *Table {
	t := &Table{}
	if narr > 0 {
		t.Array = make([]Value, 0, narr)
	}
	if nrec > 0 {
		t.hash = make(map[tableKey]pair, nrec)
	}
	return t
}

// Get returns the value stored under key, or nil if absent. Integer
// keys inside the array bounds read the array part.
func (t *Table) Get(key Value) Value {
	if key.kind == KindInteger {
		if i := key.i; i >= 0 && i < int64(len(t.Array)) {
			return t.Array[i]
		}
	}
	if t.hash == nil {
		return Nil()
	}
	if p, ok := t.hash[keyOf(key)]; ok {
		return p.val
	}
	return Nil()
}

// Set stores val under key. Integer keys inside the array bounds write
// the array part; the key one past the end appends to it. Everything
// else goes to the mapping part. Storing nil removes a mapping entry.
func (t *Table) Set(key, val Value) {
	if key.kind == KindInteger {
		i := key.i
		switch {
		case i >= 0 && i < int64(len(t.Array)):
			t.Array[i] = val
			return
		case i == int64(len(t.Array)):
			t.Array = append(t.Array, val)
			return
		}
	}
	if val.IsNil() {
		if t.hash != nil {
			delete(t.hash, keyOf(key))
		}
		return
	}
	if t.hash == nil {
		t.hash = make(map[tableKey]pair)
	}
	t.hash[keyOf(key)] = pair{key: key, val: val}
}

// Push appends a value to the array part.
func (t *Table) Push(val Value) {
	t.Array = append(t.Array, val)
}

// ArrayLen returns the length of the dense array part.
func (t *Table) ArrayLen() int {
	return len(t.Array)
}

// MapLen returns the number of entries in the mapping part.
func (t *Table) MapLen() int {
	return len(t.hash)
}

// Keys returns the mapping-part keys in unspecified order.
func (t *Table) Keys() []Value {
	keys := make([]Value, 0, len(t.hash))
	for _, p := range t.hash {
		keys = append(keys, p.key)
	}
	return keys
}
