package sanitize

import (
	"github.com/goccy/go-json"
)

// Sanitize returns node without its absent branches. The second return value is
// false when nothing is left, that is for Null, for mappings whose values all
// sanitize to absent and for sequences whose elements all sanitize to absent.
//
// Scalars are returned unchanged, including false, 0 and "". The input is
// never modified; mappings and sequences in the result are new values.
func Sanitize(node Node) (Node, bool) {
	switch n := node.(type) {
	case nil, Null:
		return nil, false
	case Scalar:
		if n.Value == nil {
			return nil, false
		}
		return n, true
	case Sequence:
		var result Sequence
		for _, e := range n {
			if c, ok := Sanitize(e); ok {
				result = append(result, c)
			}
		}
		if len(result) == 0 {
			return nil, false
		}
		return result, true
	case Mapping:
		var result Mapping
		for k, v := range n {
			if c, ok := Sanitize(v); ok {
				if result == nil {
					result = make(Mapping, len(n))
				}
				result[k] = c
			}
		}
		if len(result) == 0 {
			return nil, false
		}
		return result, true
	}
	return nil, false
}

// Clean sanitizes a decoded JSON value and returns its plain Go representation,
// or nil if nothing is left.
func Clean(v interface{}) interface{} {
	n, ok := Sanitize(FromInterface(v))
	if !ok {
		return nil
	}
	return n.Interface()
}

// CleanOrEmpty is Clean for response bodies: an absent result becomes an
// empty JSON object.
func CleanOrEmpty(v interface{}) interface{} {
	if c := Clean(v); c != nil {
		return c
	}
	return map[string]interface{}{}
}

// CleanJSON sanitizes a JSON document. An absent result is encoded as {}.
func CleanJSON(data []byte) ([]byte, error) {
	node, err := Decode(data)
	if err != nil {
		return nil, err
	}
	clean, ok := Sanitize(node)
	if !ok {
		return []byte("{}"), nil
	}
	return json.Marshal(clean)
}
