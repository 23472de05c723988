package oruby

// #include "go-mrb.h"
import "C"
import (
	"reflect"
	"unicode"
)

// SnakeCase converts a string into Ruby standard snake_case
// ideas based on stoewer/go-strcase, but using unicode package
func SnakeCase(s string) string {
	buffer := make([]rune, 0, len(s)+5)

	var prev, curr rune
	for _, next := range s {
		switch {
		case unicode.IsUpper(curr):
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
				buffer = append(buffer, '_')
			}
			buffer = append(buffer, unicode.ToLower(curr))
		case curr != 0:
			buffer = append(buffer, curr)
		}
		prev, curr = curr, next
	}

	if curr != 0 {
		if unicode.IsUpper(curr) && unicode.IsLower(prev) {
			buffer = append(buffer, '_')
		}
		buffer = append(buffer, unicode.ToLower(curr))
	}

	return string(buffer)
}

// CamelCase converts underscore delimited string to CamelCase
func CamelCase(s string) string {
	buffer := make([]rune, 0, len(s))

	upper := true
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			buffer = append(buffer, unicode.ToUpper(r))
		} else {
			buffer = append(buffer, unicode.ToLower(r))
		}
		upper = false
	}

	return string(buffer)
}

// callFunc calls Go function with oruby arguments. When recv is valid it is
// passed as first parameter. Trailing error result is split from returned results.
func (mrb *MrbState) callFunc(fn, recv reflect.Value, args []Value) ([]reflect.Value, error) {
	ft := fn.Type()

	params := make([]reflect.Value, 0, ft.NumIn())
	if recv.IsValid() {
		params = append(params, recv)
	}

	req := ft.NumIn() - len(params)
	if ft.IsVariadic() {
		req--
	}

	switch {
	case ft.IsVariadic() && len(args) < req:
		return nil, EArgumentError("wrong number of arguments (given %d, expected %d+)", len(args), req)
	case !ft.IsVariadic() && len(args) != req:
		return nil, EArgumentError("wrong number of arguments (given %d, expected %d)", len(args), req)
	}

	for _, arg := range args {
		in := len(params)
		var t reflect.Type
		if ft.IsVariadic() && in >= ft.NumIn()-1 {
			t = ft.In(ft.NumIn() - 1).Elem()
		} else {
			t = ft.In(in)
		}

		p, err := mrb.goValue(arg, t)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	results := fn.Call(params)

	if n := len(results); n > 0 && ft.Out(n-1) == errorType {
		last := results[n-1]
		results = results[:n-1]
		if !last.IsNil() {
			return results, last.Interface().(error)
		}
	}

	return results, nil
}

// goValue converts oruby value to Go value of type t
func (mrb *MrbState) goValue(v Value, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		if !v.IsString() {
			return reflect.Value{}, mrb.argTypeError(v, "String")
		}
		return reflect.ValueOf(mrb.String(v)).Convert(t), nil

	case reflect.Bool:
		switch v.Type() {
		case MrbTTTrue:
			return reflect.ValueOf(true).Convert(t), nil
		case MrbTTFalse:
			return reflect.ValueOf(false).Convert(t), nil
		}
		return reflect.Value{}, mrb.argTypeError(v, "true or false")

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !v.IsInteger() {
			return reflect.Value{}, mrb.argTypeError(v, "Integer")
		}
		i := int64(C._mrb_integer(v.v))
		rv := reflect.New(t).Elem()
		if rv.OverflowInt(i) {
			return reflect.Value{}, EError("RangeError", "integer %d out of range of %v", i, t)
		}
		rv.SetInt(i)
		return rv, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !v.IsInteger() {
			return reflect.Value{}, mrb.argTypeError(v, "Integer")
		}
		i := int64(C._mrb_integer(v.v))
		rv := reflect.New(t).Elem()
		if i < 0 || rv.OverflowUint(uint64(i)) {
			return reflect.Value{}, EError("RangeError", "integer %d out of range of %v", i, t)
		}
		rv.SetUint(uint64(i))
		return rv, nil

	case reflect.Float32, reflect.Float64:
		if !v.IsFloat() && !v.IsInteger() {
			return reflect.Value{}, mrb.argTypeError(v, "Float")
		}
		return reflect.ValueOf(mrb.Intf(v)).Convert(t), nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if !v.IsString() {
				return reflect.Value{}, mrb.argTypeError(v, "String")
			}
			return reflect.ValueOf([]byte(mrb.String(v))).Convert(t), nil
		}
	}

	if t == reflect.TypeOf(Value{}) {
		return reflect.ValueOf(v), nil
	}

	intf := mrb.Intf(v)
	if intf == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, mrb.argTypeError(v, t.String())
	}

	rv := reflect.ValueOf(intf)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, mrb.argTypeError(v, t.String())
	}
	return rv, nil
}

func (mrb *MrbState) argTypeError(v Value, expected string) error {
	name := mrb.ObjClassname(v)
	switch v.Type() {
	case MrbTTNil:
		name = "nil"
	case MrbTTTrue:
		name = "true"
	case MrbTTFalse:
		name = "false"
	}
	return ETypeError("wrong argument type %v (expected %v)", name, expected)
}
