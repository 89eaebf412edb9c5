// Package store provides access to the target key-value store for Keyscope.
//
// The scan engine only needs a handful of read-only primitives: cursor
// enumeration, type introspection, size and cardinality queries, bounded
// sampling reads, and (for cluster mode) a topology query. They are
// expressed as the Client interface so tests can substitute a fake store.
package store

// KeyType is the value type of a key as reported by the store.
type KeyType string

// The closed set of value types the estimator understands. Anything
// else maps to TypeOther and is skipped during estimation.
const (
	TypeString KeyType = "string"
	TypeList   KeyType = "list"
	TypeSet    KeyType = "set"
	TypeZSet   KeyType = "zset"
	TypeHash   KeyType = "hash"
	TypeStream KeyType = "stream"
	TypeNone   KeyType = "none"
	TypeOther  KeyType = "other"
)

// ParseKeyType maps a TYPE reply to a KeyType. Unknown replies (module
// types and the like) map to TypeOther.
func ParseKeyType(s string) KeyType {
	switch KeyType(s) {
	case TypeString, TypeList, TypeSet, TypeZSet, TypeHash, TypeStream, TypeNone:
		return KeyType(s)
	default:
		return TypeOther
	}
}

// IsCollection reports whether the type holds multiple elements, i.e.
// whether a cardinality query and sampling make sense for it.
func (t KeyType) IsCollection() bool {
	switch t {
	case TypeList, TypeSet, TypeZSet, TypeHash, TypeStream:
		return true
	default:
		return false
	}
}

// RankedTypes returns the value types that appear in reports, in the
// fixed order sections are rendered.
func RankedTypes() []KeyType {
	return []KeyType{TypeString, TypeList, TypeSet, TypeZSet, TypeHash, TypeStream}
}
