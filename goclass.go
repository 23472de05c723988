package oruby

// #include "go-mrb.h"
import "C"
import (
	"fmt"
	"reflect"
	"sort"
)

// GoMethods maps oruby method names to Go functions. The first parameter
// of every function is the receiver, the Go value behind the oruby object,
// so method expressions can be used directly:
//
//     oruby.GoMethods{
//         "greet": (*World).Greet,
//         "set":   (*World).Set,
//     }
type GoMethods map[string]interface{}

// GoCall describes call of Go class method made from oruby
type GoCall struct {
	Class    string
	Method   string
	Receiver interface{}
	Args     []interface{}
	Results  []interface{}
	Err      error
}

type goClass struct {
	class RClass
	name  string
	ctor  reflect.Value
	rtype reflect.Type
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// DefineGoClass defines top level Go class, see DefineGoClassUnder
func (mrb *MrbState) DefineGoClass(name string, constructor interface{}, methods GoMethods) (RClass, error) {
	return mrb.DefineGoClassUnder(mrb.ObjectClass(), name, constructor, methods)
}

// DefineGoClassUnder defines oruby class under outer, whose instances hold Go
// values. On "initialize" the constructor is called with oruby arguments and
// its first result is stored in the object. Constructor may return an error as
// second result, which is raised. Every method in methods is defined on the class.
func (mrb *MrbState) DefineGoClassUnder(outer RClass, name string, constructor interface{}, methods GoMethods) (RClass, error) {
	ctor := reflect.ValueOf(constructor)
	if ctor.Kind() != reflect.Func {
		return RClass{}, fmt.Errorf("%v: constructor must be func, got %T", name, constructor)
	}

	ct := ctor.Type()
	if ct.NumOut() == 0 || ct.NumOut() > 2 || (ct.NumOut() == 2 && ct.Out(1) != errorType) {
		return RClass{}, fmt.Errorf("%v: constructor must return value and optional error, got %v", name, ct)
	}
	rtype := ct.Out(0)

	for mname, f := range methods {
		fv := reflect.ValueOf(f)
		if fv.Kind() != reflect.Func {
			return RClass{}, fmt.Errorf("%v#%v: method must be func, got %T", name, mname, f)
		}
		if fv.Type().NumIn() == 0 || !rtype.AssignableTo(fv.Type().In(0)) {
			return RClass{}, fmt.Errorf("%v#%v: first parameter must accept %v", name, mname, rtype)
		}
	}

	if outer.ConstDefinedAt(name) {
		return RClass{}, fmt.Errorf("%v: constant already defined in %v", name, outer.Name())
	}

	if _, exists := mrb.goClassOf(rtype); exists {
		return RClass{}, fmt.Errorf("%v: Go type %v already registered", name, rtype)
	}

	c := mrb.DefineClassUnder(outer, name, mrb.ObjectClass())
	C._mrb_set_data_class(c.p)

	gc := &goClass{class: c, name: c.Name(), ctor: ctor, rtype: rtype}

	mrb.Lock()
	mrb.goclasses[c.p] = gc
	mrb.Unlock()

	mrb.DefineMethod(c, "initialize", gc.initialize, ArgsAny())
	mrb.DefineMethod(c, "initialize_copy", gc.initializeCopy, ArgsReq(1))

	names := make([]string, 0, len(methods))
	for mname := range methods {
		names = append(names, mname)
	}
	sort.Strings(names)

	for _, mname := range names {
		mrb.DefineMethod(c, mname, gc.method(mname, reflect.ValueOf(methods[mname])), ArgsAny())
	}

	return c, nil
}

// OnGoCall adds hook called after every Go class method call
func (mrb *MrbState) OnGoCall(hook func(GoCall)) {
	mrb.Lock()
	defer mrb.Unlock()
	mrb.callHooks = append(mrb.callHooks, hook)
}

// DataValue converts Go value of registered Go class type to oruby object.
// A pointer already held by a live oruby object returns that object, so a
// Go method returning its receiver returns self. Otherwise new object is
// created, "initialize" is not called. Returns false if type is not registered.
func (mrb *MrbState) DataValue(obj interface{}) (Value, bool) {
	if obj == nil {
		return mrb.NilValue(), false
	}

	gc, ok := mrb.goClassOf(reflect.TypeOf(obj))
	if !ok {
		return mrb.NilValue(), false
	}

	if v, ok := mrb.dataObject(obj); ok {
		return v, true
	}

	return mrb.DataWrap(gc.class, obj), true
}

func (mrb *MrbState) goClassOf(t reflect.Type) (*goClass, bool) {
	mrb.Lock()
	defer mrb.Unlock()

	for _, gc := range mrb.goclasses {
		if gc.rtype == t {
			return gc, true
		}
	}
	return nil, false
}

func (mrb *MrbState) notify(call GoCall) {
	mrb.Lock()
	hooks := make([]func(GoCall), len(mrb.callHooks))
	copy(hooks, mrb.callHooks)
	mrb.Unlock()

	for _, hook := range hooks {
		hook(call)
	}
}

func (gc *goClass) initialize(mrb *MrbState, self Value) MrbValue {
	results, err := mrb.callFunc(gc.ctor, reflect.Value{}, mrb.GetArgs())
	if err != nil {
		return mrb.RaiseError(err)
	}

	if err := mrb.DataSetInterface(self, results[0].Interface()); err != nil {
		return mrb.Raise(mrb.ETypeError(), err.Error())
	}

	return self
}

// initializeCopy backs dup and clone. Copy holds a shallow copy of the Go
// value, pointed to struct is copied, so the copies do not share state.
func (gc *goClass) initializeCopy(mrb *MrbState, self Value) MrbValue {
	orig := mrb.GetArgsFirst()
	if mrb.ClassOf(orig).p != mrb.ClassOf(self).p {
		return mrb.Raise(mrb.ETypeError(), "initialize_copy should take same class object")
	}

	src := mrb.Data(orig)
	if src == nil {
		return mrb.Raisef(mrb.ETypeError(), "uninitialized %v", gc.name)
	}

	if err := mrb.DataSetInterface(self, copyValue(src)); err != nil {
		return mrb.Raise(mrb.ETypeError(), err.Error())
	}

	return self
}

// copyValue returns shallow copy of v. Pointers get a new pointee,
// other values are copied by assignment.
func copyValue(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return v
	}

	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface()
}

func (gc *goClass) method(name string, fn reflect.Value) MrbFuncT {
	return func(mrb *MrbState, self Value) MrbValue {
		recv := mrb.Data(self)
		if recv == nil {
			return mrb.Raisef(mrb.ETypeError(), "uninitialized %v", gc.name)
		}

		args := mrb.GetArgs()
		results, err := mrb.callFunc(fn, reflect.ValueOf(recv), args)

		call := GoCall{
			Class:    gc.name,
			Method:   name,
			Receiver: recv,
			Args:     make([]interface{}, len(args)),
			Results:  make([]interface{}, len(results)),
			Err:      err,
		}
		for i := range args {
			call.Args[i] = mrb.Intf(args[i])
		}
		for i := range results {
			call.Results[i] = results[i].Interface()
		}
		mrb.notify(call)

		if err != nil {
			return mrb.RaiseError(err)
		}

		switch len(results) {
		case 0:
			return mrb.NilValue()
		case 1:
			return mrb.Value(call.Results[0])
		default:
			items := make([]MrbValue, len(results))
			for i := range call.Results {
				items[i] = mrb.Value(call.Results[i])
			}
			return mrb.ArrayValue(items...)
		}
	}
}
