// Package rayci speaks the vendor instrument-control protocol: XML-RPC over
// HTTP against a local RayCi endpoint. Client carries the wire codec and
// transport; Device binds the vendor's method tree to typed camera
// operations.
package rayci

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// methodCall is the wire form of a request.
type methodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Params     []param  `xml:"params>param"`
}

// methodResponse is the wire form of a reply. Exactly one of Params or Fault
// is populated by a conforming server.
type methodResponse struct {
	XMLName xml.Name   `xml:"methodResponse"`
	Params  []param    `xml:"params>param"`
	Fault   *faultBody `xml:"fault"`
}

type param struct {
	Value Value `xml:"value"`
}

type faultBody struct {
	Value Value `xml:"value"`
}

// Value is one XML-RPC value. At most one typed member is set; a bare
// <value>text</value> with no type element is an implicit string carried in
// Raw.
type Value struct {
	Int     *int       `xml:"int"`
	I4      *int       `xml:"i4"`
	Boolean *string    `xml:"boolean"`
	Double  *float64   `xml:"double"`
	Str     *string    `xml:"string"`
	Base64  *string    `xml:"base64"`
	Struct  *xmlStruct `xml:"struct"`
	Array   *xmlArray  `xml:"array"`
	Raw     string     `xml:",chardata"`
}

type xmlStruct struct {
	Members []structMember `xml:"member"`
}

type structMember struct {
	Name  string `xml:"name"`
	Value Value  `xml:"value"`
}

type xmlArray struct {
	Values []Value `xml:"data>value"`
}

// IntVal returns the value as an int when it carries an <int> or <i4>.
func (v Value) IntVal() (int, bool) {
	if v.Int != nil {
		return *v.Int, true
	}
	if v.I4 != nil {
		return *v.I4, true
	}
	return 0, false
}

// FloatVal returns the value as a float64, promoting integers.
func (v Value) FloatVal() (float64, bool) {
	if v.Double != nil {
		return *v.Double, true
	}
	if i, ok := v.IntVal(); ok {
		return float64(i), true
	}
	return 0, false
}

// BoolVal returns the value as a bool when it carries a <boolean>.
func (v Value) BoolVal() (bool, bool) {
	if v.Boolean == nil {
		return false, false
	}
	switch strings.TrimSpace(*v.Boolean) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

// StringVal returns the value as a string, covering both explicit <string>
// elements and bare text content.
func (v Value) StringVal() (string, bool) {
	if v.Str != nil {
		return *v.Str, true
	}
	if v.Int == nil && v.I4 == nil && v.Boolean == nil && v.Double == nil &&
		v.Base64 == nil && v.Struct == nil && v.Array == nil {
		if s := strings.TrimSpace(v.Raw); s != "" {
			return s, true
		}
	}
	return "", false
}

// BytesVal decodes a <base64> payload.
func (v Value) BytesVal() ([]byte, bool) {
	if v.Base64 == nil {
		return nil, false
	}
	// servers commonly wrap base64 payloads in whitespace
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, *v.Base64)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Member looks up a struct member by name.
func (v Value) Member(name string) (Value, bool) {
	if v.Struct == nil {
		return Value{}, false
	}
	for _, m := range v.Struct.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Values returns the items of an <array> value.
func (v Value) Values() []Value {
	if v.Array == nil {
		return nil
	}
	return v.Array.Values
}

// IntValue builds an <int> value.
func IntValue(i int) Value {
	return Value{Int: &i}
}

// DoubleValue builds a <double> value.
func DoubleValue(f float64) Value {
	return Value{Double: &f}
}

// BoolValue builds a <boolean> value.
func BoolValue(b bool) Value {
	s := "0"
	if b {
		s = "1"
	}
	return Value{Boolean: &s}
}

// StringValue builds a <string> value.
func StringValue(s string) Value {
	return Value{Str: &s}
}

// Base64Value builds a <base64> value from raw bytes.
func Base64Value(b []byte) Value {
	s := base64.StdEncoding.EncodeToString(b)
	return Value{Base64: &s}
}

// ArrayValue builds an <array> value.
func ArrayValue(vs ...Value) Value {
	return Value{Array: &xmlArray{Values: vs}}
}

// StructValue builds a <struct> value. Members marshal in sorted name order
// so encoded output is deterministic.
func StructValue(members map[string]Value) Value {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &xmlStruct{}
	for _, name := range names {
		s.Members = append(s.Members, structMember{Name: name, Value: members[name]})
	}
	return Value{Struct: s}
}

// encodeArg converts a Go argument to its wire value.
func encodeArg(arg interface{}) (Value, error) {
	switch a := arg.(type) {
	case Value:
		return a, nil
	case int:
		return IntValue(a), nil
	case int64:
		return IntValue(int(a)), nil
	case bool:
		return BoolValue(a), nil
	case float64:
		return DoubleValue(a), nil
	case string:
		return StringValue(a), nil
	case []byte:
		return Base64Value(a), nil
	default:
		return Value{}, fmt.Errorf("unsupported argument type %T", arg)
	}
}

// marshalCall renders a complete request document.
func marshalCall(method string, args ...interface{}) ([]byte, error) {
	call := methodCall{MethodName: method}
	for i, arg := range args {
		v, err := encodeArg(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, method, err)
		}
		call.Params = append(call.Params, param{Value: v})
	}

	body, err := xml.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", method, err)
	}
	return append([]byte(xml.Header), body...), nil
}

// parseResponse decodes a reply document, returning the single result value
// or the fault the server raised.
func parseResponse(method string, body []byte) (Value, error) {
	var resp methodResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return Value{}, fmt.Errorf("%w: malformed response for %s: %v", ErrUnavailable, method, err)
	}

	if resp.Fault != nil {
		f := &Fault{Method: method, Code: -1}
		if code, ok := resp.Fault.Value.Member("faultCode"); ok {
			if i, ok := code.IntVal(); ok {
				f.Code = i
			}
		}
		if msg, ok := resp.Fault.Value.Member("faultString"); ok {
			if s, ok := msg.StringVal(); ok {
				f.Message = s
			}
		}
		return Value{}, f
	}

	if len(resp.Params) == 0 {
		return Value{}, nil
	}
	return resp.Params[0].Value, nil
}
