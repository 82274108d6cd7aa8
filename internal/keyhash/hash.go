package keyhash

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/goccy/go-reflect"
)

// hashers caches the hash function of each key type, keyed by type name.
var hashers sync.Map // map[string]any

// For returns the hash function for keys of type K.
// The returned hashes are non-negative, so they can be used as bucket indexes directly.
func For[K comparable]() func(K) int {
	var zero K
	name := reflect.TypeOf(&zero).String()
	if f, ok := hashers.Load(name); ok {
		// distinct types may share a name; only reuse a hasher of the same type
		if h, ok := f.(func(K) int); ok {
			return h
		}
		return create[K]()
	}
	h := create[K]()
	hashers.LoadOrStore(name, h)
	return h
}

// create builds the hash function for K.
// Unnamed primitive types are encoded directly; every other type, including
// interface key types, is encoded by walking its value.
func create[K comparable]() func(K) int {
	var zero K
	switch any(zero).(type) {
	case string:
		return func(k K) int {
			return sum([]byte(any(k).(string)))
		}
	case int:
		return func(k K) int {
			return sumUint64(uint64(any(k).(int)))
		}
	case int8:
		return func(k K) int {
			return sum([]byte{uint8(any(k).(int8))})
		}
	case int16:
		return func(k K) int {
			return sum(binary.BigEndian.AppendUint16(nil, uint16(any(k).(int16))))
		}
	case int32:
		return func(k K) int {
			return sum(binary.BigEndian.AppendUint32(nil, uint32(any(k).(int32))))
		}
	case int64:
		return func(k K) int {
			return sumUint64(uint64(any(k).(int64)))
		}
	case uint:
		return func(k K) int {
			return sumUint64(uint64(any(k).(uint)))
		}
	case uint8:
		return func(k K) int {
			return sum([]byte{any(k).(uint8)})
		}
	case uint16:
		return func(k K) int {
			return sum(binary.BigEndian.AppendUint16(nil, any(k).(uint16)))
		}
	case uint32:
		return func(k K) int {
			return sum(binary.BigEndian.AppendUint32(nil, any(k).(uint32)))
		}
	case uint64:
		return func(k K) int {
			return sumUint64(any(k).(uint64))
		}
	case float32:
		return func(k K) int {
			return sum(binary.BigEndian.AppendUint32(nil, math.Float32bits(canonicalFloat32(any(k).(float32)))))
		}
	case float64:
		return func(k K) int {
			return sumUint64(math.Float64bits(canonicalFloat64(any(k).(float64))))
		}
	default:
		return func(k K) int {
			b := fmt.Appendf(nil, "%T:", k)
			return sum(appendValue(b, reflect.ValueOf(k)))
		}
	}
}

// appendValue encodes v so that equal keys produce equal bytes.
// Floats are canonicalized because 0 and -0 are equal keys with different bits.
func appendValue(b []byte, v reflect.Value) []byte {
	if !v.IsValid() {
		return append(b, 0)
	}
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return append(b, 1)
		}
		return append(b, 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.BigEndian.AppendUint64(b, uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return binary.BigEndian.AppendUint64(b, v.Uint())
	case reflect.Float32, reflect.Float64:
		return binary.BigEndian.AppendUint64(b, math.Float64bits(canonicalFloat64(v.Float())))
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(canonicalFloat64(real(c))))
		return binary.BigEndian.AppendUint64(b, math.Float64bits(canonicalFloat64(imag(c))))
	case reflect.String:
		s := v.String()
		b = binary.AppendUvarint(b, uint64(len(s)))
		return append(b, s...)
	case reflect.Array:
		for i := range v.Len() {
			b = appendValue(b, v.Index(i))
		}
		return b
	case reflect.Struct:
		for i := range v.NumField() {
			b = appendValue(b, v.Field(i))
		}
		return b
	case reflect.Interface:
		if v.IsNil() {
			return append(b, 0)
		}
		elem := v.Elem()
		b = append(b, elem.Type().String()...)
		return appendValue(b, elem)
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		return binary.BigEndian.AppendUint64(b, uint64(v.Pointer()))
	default:
		// not comparable, so it can never be a map key
		return fmt.Appendf(b, "%v", v)
	}
}

func canonicalFloat64(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

func canonicalFloat32(f float32) float32 {
	if f == 0 {
		return 0
	}
	return f
}

func sumUint64(v uint64) int {
	return sum(binary.BigEndian.AppendUint64(nil, v))
}

// sum computes the FNV-1a hash of b, truncated to a non-negative int.
func sum(b []byte) int {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return int(h.Sum64() & math.MaxInt)
}
