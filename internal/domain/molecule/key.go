package molecule

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NodeKey identifies an atom inside a Graph. Input graphs may use integer or
// string identities; canonical graphs only use the integers 0..n-1.
// NodeKey is comparable and usable as a map key.
type NodeKey struct {
	id    int
	name  string
	named bool
}

// IntKey returns an integer node identity.
func IntKey(id int) NodeKey { return NodeKey{id: id} }

// StringKey returns a string node identity.
func StringKey(name string) NodeKey { return NodeKey{name: name, named: true} }

// Int returns the integer identity and true, or 0 and false for string keys.
func (k NodeKey) Int() (int, bool) {
	if k.named {
		return 0, false
	}
	return k.id, true
}

// IsInt reports whether the key is an integer identity.
func (k NodeKey) IsInt() bool { return !k.named }

func (k NodeKey) String() string {
	if k.named {
		return k.name
	}
	return strconv.Itoa(k.id)
}

// Less orders keys: integers numerically, then strings lexically, integers
// before strings.
func (k NodeKey) Less(o NodeKey) bool {
	if k.named != o.named {
		return !k.named
	}
	if k.named {
		return k.name < o.name
	}
	return k.id < o.id
}

// MarshalJSON encodes integer keys as JSON numbers and string keys as strings.
func (k NodeKey) MarshalJSON() ([]byte, error) {
	if k.named {
		return json.Marshal(k.name)
	}
	return json.Marshal(k.id)
}

// UnmarshalJSON accepts a JSON number (integral) or string.
func (k *NodeKey) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	key, err := KeyOf(v)
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// KeyOf converts a decoded document value into a NodeKey. Integral numbers
// become integer keys; strings become string keys.
func KeyOf(v interface{}) (NodeKey, error) {
	switch t := v.(type) {
	case int:
		return IntKey(t), nil
	case int64:
		return IntKey(int(t)), nil
	case uint64:
		return IntKey(int(t)), nil
	case float64:
		if t != float64(int(t)) {
			return NodeKey{}, fmt.Errorf("node id %v is not integral", t)
		}
		return IntKey(int(t)), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntKey(int(i)), nil
		}
		return StringKey(t.String()), nil
	case string:
		return StringKey(t), nil
	default:
		return NodeKey{}, fmt.Errorf("unsupported node id type %T", v)
	}
}
