package oruby

import (
	"errors"
	"fmt"
	"testing"
)

func TestRaiseError_Mapping(t *testing.T) {
	mrb := MrbOpen()
	defer mrb.Close()

	tests := []struct {
		err   error
		class string
	}{
		{ERuntimeError("x"), "RuntimeError"},
		{ETypeError("x"), "TypeError"},
		{EArgumentError("x"), "ArgumentError"},
		{ENameError("x"), "NameError"},
		{ENoMethodError("x"), "NoMethodError"},
		{ELoadError("x"), "LoadError"},
		{ENotImplementedError("x"), "NotImplementedError"},
		{EError("KeyError", "x"), "KeyError"},
		{EError("NoSuchError", "x"), "StandardError"},
		{EError("String", "x"), "StandardError"},
		{EError("lowercase", "x"), "StandardError"},
		{fmt.Errorf("wrapped: %w", ETypeError("x")), "TypeError"},
		{errors.New("x"), "StandardError"},
		{&Exception{Class: "IndexError", Message: "x"}, "IndexError"},
	}

	for _, tt := range tests {
		exc := mrb.RaiseError(tt.err)
		mrb.ExcClear()
		ExpectEql(t, mrb.ObjClassname(exc), tt.class)
	}
}

func TestException(t *testing.T) {
	e := &Exception{Class: "TypeError", Message: "bad"}
	ExpectEql(t, e.Error(), "bad (TypeError)")
	Expect(t, IsTypeError(e), "should be TypeError")
	Expect(t, !IsArgumentError(e), "should not be ArgumentError")

	ExpectEql(t, (&Exception{Class: "RuntimeError"}).Error(), "RuntimeError")
	ExpectEql(t, (&Exception{Class: "RuntimeError", Message: "RuntimeError"}).Error(), "RuntimeError")

	err := ETypeError("wrong %v", 1)
	ExpectEql(t, err.Error(), "wrong 1")
	Expect(t, IsTypeError(err), "should be TypeError")
}

func TestRaise_RoundTrip(t *testing.T) {
	mrb := MrbOpen()
	defer mrb.Close()

	mrb.KernelModule().DefineMethod("go_raise", func(mrb *MrbState, self Value) MrbValue {
		return mrb.RaiseError(EError("KeyError", "missing key"))
	}, ArgsNone())

	_, err := mrb.Eval(`go_raise`)
	ExpectEql(t, err.Error(), "missing key (KeyError)")

	v, err := mrb.Eval(`begin; go_raise; rescue IndexError => e; e.class.to_s; end`)
	ExpectNilError(t, err)
	ExpectEql(t, mrb.String(v), "KeyError")
}
