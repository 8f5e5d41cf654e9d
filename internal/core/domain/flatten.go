package domain

import (
	"sort"
	"strconv"
)

// FlattenedRecord is a single-level mapping from slash-joined path to
// scalar value, derived from a submission's nested field tree.
type FlattenedRecord map[string]any

// Flatten converts a nested field tree into a FlattenedRecord.
//
// Nested objects contribute a path segment per key. Repeat groups (arrays)
// are expanded with a positional index segment, so a group of length N
// produces N distinct indexed path prefixes. Scalars are kept as-is.
// Flattening is deterministic: the same tree always yields the same record.
func Flatten(fields map[string]any) FlattenedRecord {
	out := make(FlattenedRecord)
	for key, value := range fields {
		flattenValue(out, key, value)
	}
	return out
}

func flattenValue(out FlattenedRecord, path string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, nested := range v {
			flattenValue(out, path+"/"+key, nested)
		}
	case []any:
		for i, item := range v {
			flattenValue(out, path+"/"+strconv.Itoa(i), item)
		}
	default:
		out[path] = v
	}
}

// Paths returns the record's paths in lexical order.
func (r FlattenedRecord) Paths() []string {
	paths := make([]string, 0, len(r))
	for path := range r {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// String returns the value at path as a string, or "" if absent or not
// a string.
func (r FlattenedRecord) String(path string) string {
	val, ok := r[path]
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}
