package keycodec

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
)

// encodeGeneral handles any value the fast path does not: slices/arrays,
// maps, structs, and pointers, by walking them with reflect. Maps and
// structs are sorted (by the string form of the key, and by field name,
// respectively) so the byte encoding never depends on Go's randomized map
// iteration order — this is the "canonical, self-describing binary
// format" spec §4.1 requires of the general path.
func encodeGeneral(buf *bytes.Buffer, v any) error {
	return encodeReflect(buf, reflect.ValueOf(v))
}

func encodeReflect(buf *bytes.Buffer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Invalid:
		buf.WriteByte(tagNil)
		return nil

	case reflect.Pointer:
		if rv.IsNil() {
			buf.WriteByte(tagNil)
			return nil
		}
		buf.WriteByte(tagPtr)
		return encodeReflect(buf, rv.Elem())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			// Same bytes as the fast path's []byte case.
			encodeBytes(buf, rv.Bytes())
			return nil
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			buf.WriteByte(tagNil)
			return nil
		}
		buf.WriteByte(tagSlice)
		writeUvarint(buf, uint64(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			if err := encodeReflect(buf, rv.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		if rv.IsNil() {
			buf.WriteByte(tagNil)
			return nil
		}
		keys := rv.MapKeys()
		sorted := make([]reflect.Value, len(keys))
		copy(sorted, keys)
		sort.Slice(sorted, func(i, j int) bool {
			return fmt.Sprint(sorted[i].Interface()) < fmt.Sprint(sorted[j].Interface())
		})
		buf.WriteByte(tagMap)
		writeUvarint(buf, uint64(len(sorted)))
		for _, k := range sorted {
			if err := encodeReflect(buf, k); err != nil {
				return fmt.Errorf("map key %v: %w", k.Interface(), err)
			}
			if err := encodeReflect(buf, rv.MapIndex(k)); err != nil {
				return fmt.Errorf("map value for key %v: %w", k.Interface(), err)
			}
		}
		return nil

	case reflect.Struct:
		t := rv.Type()
		type field struct {
			name string
			idx  int
		}
		var fields []field
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				fields = append(fields, field{t.Field(i).Name, i})
			}
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
		buf.WriteByte(tagStruct)
		writeUvarint(buf, uint64(len(fields)))
		for _, f := range fields {
			encodeString(buf, f.name)
			if err := encodeReflect(buf, rv.Field(f.idx)); err != nil {
				return fmt.Errorf("field %s: %w", f.name, err)
			}
		}
		return nil

	case reflect.Interface:
		if rv.IsNil() {
			buf.WriteByte(tagNil)
			return nil
		}
		return encodeReflect(buf, rv.Elem())

	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		// Named types over a primitive kind (e.g. `type UserID int64`) land
		// here rather than in the fastpath type switch, which only matches
		// exact primitive types. Re-dispatch through the same fast-path
		// encoders via convertToPrimitive's underlying value so the bytes are
		// identical to what the fast path would have produced for the
		// equivalent unnamed type.
		return encodeValue(buf, convertToPrimitive(rv))

	default:
		return fmt.Errorf("keycodec: unsupported key argument kind %s", rv.Kind())
	}
}

// convertToPrimitive strips a named type down to its underlying primitive
// Go type (e.g. MyInt(5) -> int64(5)) so encodeValue's type switch can
// fast-path it.
func convertToPrimitive(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int:
		return int(rv.Int())
	case reflect.Int8:
		return int8(rv.Int())
	case reflect.Int16:
		return int16(rv.Int())
	case reflect.Int32:
		return int32(rv.Int())
	case reflect.Int64:
		return rv.Int()
	case reflect.Uint:
		return uint(rv.Uint())
	case reflect.Uint8:
		return uint8(rv.Uint())
	case reflect.Uint16:
		return uint16(rv.Uint())
	case reflect.Uint32:
		return uint32(rv.Uint())
	case reflect.Uint64:
		return rv.Uint()
	case reflect.Float32:
		return float32(rv.Float())
	case reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	default:
		return rv.Interface()
	}
}

// sortedKeys returns the keys of a named-argument map in sorted order,
// satisfying spec §3's "named arguments sorted by name".
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
