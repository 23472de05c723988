package oruby

// #include "go-mrb.h"
import "C"
import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

var eRuntimeError = errors.New("RuntimeError")
var eTypeError = errors.New("TypeError")
var eArgumentError = errors.New("ArgumentError")
var eNameError = errors.New("NameError")
var eNoMethodError = errors.New("NoMethodError")
var eLoadError = errors.New("LoadError")
var eNotImplementedError = errors.New("NotImplementedError")

// ERuntimeError returns error raised as RuntimeError in oruby
func ERuntimeError(format string, args ...interface{}) error {
	return Raisef(eRuntimeError, format, args...)
}

// ETypeError returns error raised as TypeError in oruby
func ETypeError(format string, args ...interface{}) error { return Raisef(eTypeError, format, args...) }

// EArgumentError returns error raised as ArgumentError in oruby
func EArgumentError(format string, args ...interface{}) error {
	return Raisef(eArgumentError, format, args...)
}

// ENameError returns error raised as NameError in oruby
func ENameError(format string, args ...interface{}) error { return Raisef(eNameError, format, args...) }

// ENoMethodError returns error raised as NoMethodError in oruby
func ENoMethodError(format string, args ...interface{}) error {
	return Raisef(eNoMethodError, format, args...)
}

// ELoadError returns error raised as LoadError in oruby
func ELoadError(format string, args ...interface{}) error { return Raisef(eLoadError, format, args...) }

// ENotImplementedError returns error raised as NotImplementedError in oruby
func ENotImplementedError(format string, args ...interface{}) error {
	return Raisef(eNotImplementedError, format, args...)
}

// EError returns error raised as exception class name in oruby
func EError(name, format string, args ...interface{}) error {
	return Raisef(errors.New(name), format, args...)
}

// RaiseError containing error type and message
type RaiseError struct {
	err error
	msg string
}

// Raise returns error which is raised as err exception class
func Raise(err error, msg string) error {
	return &RaiseError{err, msg}
}

// Raisef returns error with formatted message
func Raisef(err error, format string, args ...interface{}) error {
	return Raise(err, fmt.Sprintf(format, args...))
}

// Error implements error interface
func (e *RaiseError) Error() string {
	return e.msg
}

// Unwrap returns inner error
func (e *RaiseError) Unwrap() error {
	return e.err
}

// Exception is oruby exception returned to Go
type Exception struct {
	Class   string
	Message string
}

// Error implements error interface, formatted as Exception#inspect
func (e *Exception) Error() string {
	if e.Message == "" || e.Message == e.Class {
		return e.Class
	}
	return fmt.Sprintf("%v (%v)", e.Message, e.Class)
}

// Is matches oruby exceptions against the error sentinels by class name
func (e *Exception) Is(target error) bool {
	switch target {
	case eRuntimeError, eTypeError, eArgumentError, eNameError, eNoMethodError, eLoadError, eNotImplementedError:
		return e.Class == target.Error()
	}
	return false
}

// IsTypeError reports whether err is oruby TypeError
func IsTypeError(err error) bool { return errors.Is(err, eTypeError) }

// IsArgumentError reports whether err is oruby ArgumentError
func IsArgumentError(err error) bool { return errors.Is(err, eArgumentError) }

// IsLoadError reports whether err is oruby LoadError
func IsLoadError(err error) bool { return errors.Is(err, eLoadError) }

func (mrb *MrbState) exception(exc Value) error {
	e := &Exception{Class: mrb.ObjClassname(exc)}

	msg, err := mrb.Funcall(exc, "message")
	if err == nil && msg.IsString() {
		e.Message = mrb.String(msg)
	}

	return e
}

// ERuntimeError returns RuntimeError class
func (mrb *MrbState) ERuntimeError() RClass { return mrb.ExcGet("RuntimeError") }

// ETypeError returns TypeError class
func (mrb *MrbState) ETypeError() RClass { return mrb.ExcGet("TypeError") }

// EArgumentError returns ArgumentError class
func (mrb *MrbState) EArgumentError() RClass { return mrb.ExcGet("ArgumentError") }

// ENameError returns NameError class
func (mrb *MrbState) ENameError() RClass { return mrb.ExcGet("NameError") }

// ENoMethodError returns NoMethodError class
func (mrb *MrbState) ENoMethodError() RClass { return mrb.ExcGet("NoMethodError") }

// ELoadError returns LoadError class
func (mrb *MrbState) ELoadError() RClass { return mrb.ExcGet("LoadError") }

// ENotImplementedError returns NotImplementedError class
func (mrb *MrbState) ENotImplementedError() RClass { return mrb.ExcGet("NotImplementedError") }

// ExcNew creates new exception object
func (mrb *MrbState) ExcNew(c RClass, msg string) Value {
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	return Value{C.mrb_exc_new(mrb.p, c.p, cmsg, C.size_t(len(msg)))}
}

// Raise prepares exception of err class. It is raised on C side, once the
// Go function defined as oruby method returns. Use it as:
//
//     return mrb.Raise(mrb.EArgumentError(), "Something went wrong")
//
// MRuby API C.mrb_raise() is never called from Go, since Go does not
// support C style longjmp across Go stack.
func (mrb *MrbState) Raise(err RClass, msg string) Value {
	if err.IsNil() {
		err = mrb.EStandardErrorClass()
	}

	exc := mrb.ExcNew(err, msg)
	C._mrb_exc_set(mrb.p, exc.v)

	return exc
}

// Raisef exception with formated message
func (mrb *MrbState) Raisef(c RClass, format string, args ...interface{}) Value {
	return mrb.Raise(c, fmt.Sprintf(format, args...))
}

// RaiseError prepares exception from err. If err is one of predefined
// oruby errors then coresponding ruby exception is raised. For example:
//
//    err := oruby.EArgumentError("Unknown argument %v", someArg)
//    return mrb.RaiseError(err)
//
func (mrb *MrbState) RaiseError(err error) Value {
	return mrb.Raise(mrb.getErrorKlass(err), err.Error())
}

func (mrb *MrbState) getErrorKlass(err error) RClass {
	var exc *Exception
	if errors.As(err, &exc) {
		return mrb.excByName(exc.Class)
	}

	var re *RaiseError
	if errors.As(err, &re) && re.err != nil {
		return mrb.excByName(re.err.Error())
	}

	return mrb.EStandardErrorClass()
}

func (mrb *MrbState) excByName(name string) RClass {
	// Class name should be non-empty, uppercase starting string, without whitespace
	if name == "" || name[0] < 'A' || name[0] > 'Z' || strings.ContainsAny(name, " \t\r\n") {
		return mrb.EStandardErrorClass()
	}

	c := mrb.ExcGet(name)
	isExc, err := mrb.Funcall(c, "<=", mrb.EExceptionClass())
	if err != nil || isExc.Type() != MrbTTTrue {
		return mrb.EStandardErrorClass()
	}

	return c
}
