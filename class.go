package oruby

// #include "go-mrb.h"
import "C"
import (
	"fmt"
	"unsafe"
)

// RClass is oruby class or module
type RClass struct {
	p   *C.struct_RClass
	mrb *MrbState
}

// Value implements MrbValue interface
func (c RClass) Value() Value {
	if c.p == nil {
		return Value{C._mrb_nil_value()}
	}
	return Value{C._mrb_obj_value(unsafe.Pointer(c.p))}
}

// Type for MrbValue interface
func (c RClass) Type() int { return c.Value().Type() }

// IsNil check for MrbValue interface
func (c RClass) IsNil() bool { return c.p == nil }

// Mrb returns oruby state
func (c RClass) Mrb() *MrbState { return c.mrb }

// Name returns name of oruby class
func (c RClass) Name() string {
	if c.p == nil {
		return ""
	}
	return C.GoString(C.mrb_class_name(c.mrb.p, c.p))
}

// String implements fmt.Stringer
func (c RClass) String() string { return c.Name() }

// New creates new object instance
func (c RClass) New(args ...interface{}) (Value, error) {
	if c.p == nil {
		return c.mrb.NilValue(), fmt.Errorf("creation failed, class is nil")
	}
	return c.mrb.Funcall(c, "new", args...)
}

// DefineMethod on class via MrbFuncT type function
func (c RClass) DefineMethod(name string, f MrbFuncT, aspec MrbAspec) {
	c.mrb.DefineMethod(c, name, f, aspec)
}

// DefineClassMethod defines class method
func (c RClass) DefineClassMethod(name string, f MrbFuncT, aspec MrbAspec) {
	c.mrb.DefineClassMethod(c, name, f, aspec)
}

// DefineClassUnder defines class under module or class, descending from super
func (c RClass) DefineClassUnder(name string, super RClass) RClass {
	return c.mrb.DefineClassUnder(c, name, super)
}

// DefineModuleUnder defines module under module or class
func (c RClass) DefineModuleUnder(name string) RClass {
	return c.mrb.DefineModuleUnder(c, name)
}

// Const creates new oruby class const
func (c RClass) Const(name string, value interface{}) {
	c.mrb.DefineConst(c, name, c.mrb.Value(value))
}

// ConstDefinedAt check if const is defined in module/class,
// does not check super modules/classes
func (c RClass) ConstDefinedAt(name string) bool {
	return C.mrb_const_defined_at(c.mrb.p, c.Value().v, C.mrb_sym(c.mrb.Intern(name))) != 0
}

// ConstGet returns oruby class const by name, nil if it is not defined
func (c RClass) ConstGet(name string) Value {
	if !c.ConstDefinedAt(name) {
		return c.mrb.NilValue()
	}
	return Value{C.mrb_const_get(c.mrb.p, c.Value().v, C.mrb_sym(c.mrb.Intern(name)))}
}

// Call shortcut for mrb.Call(klass, method, args)
func (c RClass) Call(name string, args ...interface{}) Value {
	return c.mrb.Call(c, name, args...)
}

// Raise prepares exception of this class, see MrbState.Raise
func (c RClass) Raise(msg string) Value {
	return c.mrb.Raise(c, msg)
}

// Raisef prepares exception of this class with formatted message
func (c RClass) Raisef(format string, args ...interface{}) Value {
	return c.mrb.Raise(c, fmt.Sprintf(format, args...))
}
