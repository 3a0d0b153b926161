/*
Package sanitize removes absent branches from decoded JSON documents.

Joined records fetched from the database carry null columns and empty
relation lists for every relation that did not match. Sanitize strips those
branches so that only information-bearing values reach the client:

	node, ok := sanitize.Sanitize(sanitize.FromInterface(rows))
	if !ok {
		// nothing left, respond with {}
	}

A document is modelled as a tree of Node values, one concrete type per
variant: Null, Scalar, Sequence and Mapping.
*/
package sanitize

import (
	"bytes"
	"reflect"

	"github.com/goccy/go-json"
)

// Kind is the variant of a Node
type Kind int

// the node variants
const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "unknown"
}

// Node is one value of a JSON document. The interface is sealed, the only
// implementations are Null, Scalar, Sequence and Mapping.
type Node interface {
	Kind() Kind
	// Interface returns the plain Go representation of the node, as produced by
	// a JSON decoder
	Interface() interface{}
	json.Marshaler
	sealed()
}

// Null is an explicit JSON null
type Null struct{}

// Scalar is a string, number or boolean
type Scalar struct {
	Value interface{}
}

// Sequence is an ordered list of nodes
type Sequence []Node

// Mapping is a string keyed collection of nodes
type Mapping map[string]Node

func (Null) sealed()     {}
func (Scalar) sealed()   {}
func (Sequence) sealed() {}
func (Mapping) sealed()  {}

// Kind implements Node
func (Null) Kind() Kind { return KindNull }

// Kind implements Node
func (Scalar) Kind() Kind { return KindScalar }

// Kind implements Node
func (Sequence) Kind() Kind { return KindSequence }

// Kind implements Node
func (Mapping) Kind() Kind { return KindMapping }

// Interface implements Node
func (Null) Interface() interface{} { return nil }

// Interface implements Node
func (s Scalar) Interface() interface{} { return s.Value }

// Interface implements Node
func (s Sequence) Interface() interface{} {
	result := make([]interface{}, len(s))
	for i, n := range s {
		result[i] = interfaceOf(n)
	}
	return result
}

// Interface implements Node
func (m Mapping) Interface() interface{} {
	result := make(map[string]interface{}, len(m))
	for k, n := range m {
		result[k] = interfaceOf(n)
	}
	return result
}

func interfaceOf(n Node) interface{} {
	if n == nil {
		return nil
	}
	return n.Interface()
}

// MarshalJSON implements json.Marshaler
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalJSON implements json.Marshaler
func (s Scalar) MarshalJSON() ([]byte, error) { return json.Marshal(s.Value) }

// MarshalJSON implements json.Marshaler
func (s Sequence) MarshalJSON() ([]byte, error) { return json.Marshal(s.Interface()) }

// MarshalJSON implements json.Marshaler
func (m Mapping) MarshalJSON() ([]byte, error) { return json.Marshal(m.Interface()) }

// FromInterface converts a decoded JSON value into a Node. Slices and maps with
// string keys of any element type become sequences and mappings, nil becomes
// Null, everything else is a Scalar.
func FromInterface(v interface{}) Node {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Node:
		return t
	case []interface{}:
		seq := make(Sequence, len(t))
		for i, e := range t {
			seq[i] = FromInterface(e)
		}
		return seq
	case map[string]interface{}:
		m := make(Mapping, len(t))
		for k, e := range t {
			m[k] = FromInterface(e)
		}
		return m
	case string, bool, float64, json.Number, int, int64:
		return Scalar{Value: t}
	case json.RawMessage:
		n, err := Decode(t)
		if err != nil {
			return Scalar{Value: t}
		}
		return n
	}
	return fromReflection(reflect.ValueOf(v))
}

// fromReflection handles named map and slice types, for example rows returned
// by the store package.
func fromReflection(rv reflect.Value) Node {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null{}
		}
		return FromInterface(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Scalar{Value: rv.Interface()}
		}
		fallthrough
	case reflect.Array:
		seq := make(Sequence, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			seq[i] = FromInterface(rv.Index(i).Interface())
		}
		return seq
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return Null{}
		}
		m := make(Mapping, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = FromInterface(iter.Value().Interface())
		}
		return m
	}
	return Scalar{Value: rv.Interface()}
}

// Decode parses a JSON document into a Node. Numbers are kept as json.Number so
// that their literal representation survives a round trip.
func Decode(data []byte) (Node, error) {
	var v interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	return FromInterface(v), nil
}
