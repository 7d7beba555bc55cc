package dump

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// MarshalCBOR encodes a snapshot value as canonical CBOR. Equal values
// always encode to identical bytes.
func MarshalCBOR(v Value) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalCBOR decodes a snapshot previously written by MarshalCBOR.
func UnmarshalCBOR(data []byte) (Value, error) {
	var raw any
	if err := cborDecMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("dump: unmarshal snapshot: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case uint64:
		if x > 1<<63-1 {
			return nil, fmt.Errorf("dump: integer %d out of range", x)
		}
		return Int(x), nil
	case int64:
		return Int(x), nil
	case []any:
		arr := make(Array, 0, len(x))
		for i, elem := range x {
			v, err := fromRaw(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr = append(arr, v)
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(x))
		for k, elem := range x {
			v, err := fromRaw(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = v
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("dump: unsupported snapshot element %T", raw)
	}
}
