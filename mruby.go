package oruby

// #cgo CFLAGS: -I${SRCDIR}/vendor/mruby/include
// #cgo LDFLAGS: -L${SRCDIR}/vendor/mruby/build/host/lib
// #cgo linux   LDFLAGS: -lmruby -lm
// #cgo darwin  LDFLAGS: -lmruby -lm
// #cgo windows LDFLAGS: -lmruby -lm -lws2_32
// #include "go-mrb.h"
import "C"
import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"
	"unsafe"
)

// MrbAspec alias for mrb_aspec which specifies arguments of a function
type MrbAspec uint32

// MrbFuncT is default oruby function type mrb_func_t
type MrbFuncT func(mrb *MrbState, self Value) MrbValue

type goFunc struct {
	fn    MrbFuncT
	aspec MrbAspec
}

// MrbState is main oruby context for running code
type MrbState struct {
	p *C.mrb_state

	sync.Mutex
	funcs     []goFunc
	goclasses map[*C.struct_RClass]*goClass
	objects   map[interface{}]dataRef // Go pointer to its oruby object
	features  map[string]struct{} // require stash
	callHooks []func(GoCall)
	stdout    io.Writer
	nilValue  Value // cached nil Value
}

// NewCore create state is MrbState without gems,
// leaving user to init subset of available gems
func NewCore() (*MrbState, error) {
	cmrb := C.mrb_open()
	if cmrb == nil {
		return nil, errors.New("error creating oruby state")
	}

	mrb := &MrbState{
		p:         cmrb,
		funcs:     make([]goFunc, 0, 64),
		goclasses: make(map[*C.struct_RClass]*goClass),
		objects:   make(map[interface{}]dataRef),
		features:  make(map[string]struct{}),
		stdout:    os.Stdout,
		nilValue:  Value{C._mrb_nil_value()},
	}

	// Store *MrbState pointer so it can be retrieved it from C callbacks
	registerState(mrb)

	if !mrb.ClassDefined("LoadError") {
		mrb.DefineClass("LoadError", mrb.ExcGet("ScriptError"))
	}
	mrb.DefineMethod(mrb.KernelModule(), "require", kernelRequire, ArgsReq(1))

	return mrb, nil
}

// New oruby state with all gems
func New() (*MrbState, error) {
	mrb, err := NewCore()
	if err != nil {
		return mrb, err
	}

	for _, name := range Gems() {
		if _, err := mrb.Require(name); err != nil {
			mrb.Close()
			return nil, err
		}
	}

	return mrb, nil
}

// MrbOpen opens state with all gems, panics on failure
func MrbOpen() *MrbState {
	mrb, err := New()
	if err != nil {
		panic(err)
	}
	return mrb
}

// Close oruby state. Go values referenced from oruby objects are released.
func (mrb *MrbState) Close() {
	if mrb.p == nil {
		return
	}

	idx := int(C._mrb_get_idx(mrb.p))
	C.mrb_close(mrb.p)
	removeStateIndex(idx)
	mrb.p = nil
}

// SetStdout sets writer used by Kernel#print, #puts and #p
func (mrb *MrbState) SetStdout(w io.Writer) {
	mrb.Lock()
	defer mrb.Unlock()
	mrb.stdout = w
}

// Stdout returns writer used for oruby output
func (mrb *MrbState) Stdout() io.Writer {
	mrb.Lock()
	defer mrb.Unlock()
	return mrb.stdout
}

// MrbValue is interface type which can return oruby value
type MrbValue interface {
	Value() Value
	Type() int
	IsNil() bool
}

// Value encapsulates oruby value type
type Value struct{ v C.mrb_value }

// Value kinds returned by Value.Type
const (
	MrbTTNil       = int(C.GO_KIND_NIL)
	MrbTTFalse     = int(C.GO_KIND_FALSE)
	MrbTTTrue      = int(C.GO_KIND_TRUE)
	MrbTTInteger   = int(C.GO_KIND_INTEGER)
	MrbTTFloat     = int(C.GO_KIND_FLOAT)
	MrbTTString    = int(C.GO_KIND_STRING)
	MrbTTSymbol    = int(C.GO_KIND_SYMBOL)
	MrbTTArray     = int(C.GO_KIND_ARRAY)
	MrbTTHash      = int(C.GO_KIND_HASH)
	MrbTTData      = int(C.GO_KIND_DATA)
	MrbTTClass     = int(C.GO_KIND_CLASS)
	MrbTTModule    = int(C.GO_KIND_MODULE)
	MrbTTException = int(C.GO_KIND_EXCEPTION)
	MrbTTObject    = int(C.GO_KIND_OBJECT)
)

// Value implements MrbValue interface for oruby Value
func (v Value) Value() Value { return v }

// Type returns kind of value
func (v Value) Type() int { return int(C._mrb_kind(v.v)) }

// IsNil Checks if oruby value is nil value
func (v Value) IsNil() bool { return C._mrb_is_nil(v.v) != 0 }

// IsString checks if oruby value is String value
func (v Value) IsString() bool { return v.Type() == MrbTTString }

// IsInteger checks if oruby value is Integer value
func (v Value) IsInteger() bool { return v.Type() == MrbTTInteger }

// IsFloat checks if oruby value is Float value
func (v Value) IsFloat() bool { return v.Type() == MrbTTFloat }

// IsData checks if oruby value is RData value
func (v Value) IsData() bool { return v.Type() == MrbTTData }

// IsArray checks if oruby value is Array value
func (v Value) IsArray() bool { return v.Type() == MrbTTArray }

// NilValue returns nil
func (mrb *MrbState) NilValue() Value { return mrb.nilValue }

// TrueValue returns true
func (mrb *MrbState) TrueValue() Value { return Value{C._mrb_bool_value(1)} }

// FalseValue returns false
func (mrb *MrbState) FalseValue() Value { return Value{C._mrb_bool_value(0)} }

// BoolValue converts Go bool
func (mrb *MrbState) BoolValue(b bool) Value {
	if b {
		return mrb.TrueValue()
	}
	return mrb.FalseValue()
}

// FixnumValue converts Go int
func (mrb *MrbState) FixnumValue(i int64) Value {
	return Value{C._mrb_int_value(mrb.p, C.mrb_int(i))}
}

// uintValue converts unsigned Go integer, values above the Integer range
// become Float as mruby does on Integer overflow
func (mrb *MrbState) uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return mrb.FloatValue(float64(u))
	}
	return mrb.FixnumValue(int64(u))
}

// FloatValue converts Go float
func (mrb *MrbState) FloatValue(f float64) Value {
	return Value{C._mrb_float_value(mrb.p, C.mrb_float(f))}
}

// StringValue creates oruby String with copy of s
func (mrb *MrbState) StringValue(s string) Value {
	p := (*C.char)(unsafe.Pointer(unsafe.StringData(s)))
	return Value{C._mrb_str_new(mrb.p, p, C.size_t(len(s)))}
}

// BytesValue creates oruby String with copy of b
func (mrb *MrbState) BytesValue(b []byte) Value {
	p := (*C.char)(unsafe.Pointer(unsafe.SliceData(b)))
	return Value{C._mrb_str_new(mrb.p, p, C.size_t(len(b)))}
}

// ArrayValue creates oruby Array from values
func (mrb *MrbState) ArrayValue(items ...MrbValue) Value {
	ary := C._mrb_ary_new(mrb.p, C.mrb_int(len(items)))
	for _, item := range items {
		C._mrb_ary_push(mrb.p, ary, item.Value().v)
	}
	return Value{ary}
}

// String returns Go string for oruby value. Strings are returned as they
// are, nil as empty string, and other values are converted with to_s.
func (mrb *MrbState) String(o MrbValue) string {
	v := o.Value()
	switch v.Type() {
	case MrbTTNil:
		return ""
	case MrbTTString:
		return C.GoStringN(C._rstring_ptr(v.v), C.int(C._rstring_len(v.v)))
	case MrbTTSymbol:
		return mrb.SymString(MrbSym(C._mrb_symbol(v.v)))
	}

	s, err := mrb.Funcall(v, "to_s")
	if err != nil || !s.IsString() {
		return fmt.Sprintf("#<%v>", mrb.ObjClassname(v))
	}
	return C.GoStringN(C._rstring_ptr(s.v), C.int(C._rstring_len(s.v)))
}

// Intf converts oruby value to Go interface
func (mrb *MrbState) Intf(o MrbValue) interface{} {
	if o == nil {
		return nil
	}

	v := o.Value()
	switch v.Type() {
	case MrbTTNil:
		return nil
	case MrbTTFalse:
		return false
	case MrbTTTrue:
		return true
	case MrbTTInteger:
		return int(C._mrb_integer(v.v))
	case MrbTTFloat:
		return float64(C._mrb_float(v.v))
	case MrbTTString, MrbTTSymbol:
		return mrb.String(v)
	case MrbTTArray:
		l := int(C._rarray_len(v.v))
		ret := make([]interface{}, l)
		for i := 0; i < l; i++ {
			ret[i] = mrb.Intf(Value{C._rarray_ref(v.v, C.mrb_int(i))})
		}
		return ret
	case MrbTTData:
		if data := mrb.Data(v); data != nil {
			return data
		}
	}

	return v
}

// Value converts Go interface to oruby value
func (mrb *MrbState) Value(o interface{}) Value {
	switch v := o.(type) {
	case nil:
		return mrb.NilValue()
	case MrbValue:
		return v.Value()
	case bool:
		return mrb.BoolValue(v)
	case string:
		return mrb.StringValue(v)
	case []byte:
		return mrb.BytesValue(v)
	case int:
		return mrb.FixnumValue(int64(v))
	case int8:
		return mrb.FixnumValue(int64(v))
	case int16:
		return mrb.FixnumValue(int64(v))
	case int32:
		return mrb.FixnumValue(int64(v))
	case int64:
		return mrb.FixnumValue(v)
	case uint:
		return mrb.uintValue(uint64(v))
	case uint8:
		return mrb.FixnumValue(int64(v))
	case uint16:
		return mrb.FixnumValue(int64(v))
	case uint32:
		return mrb.FixnumValue(int64(v))
	case uint64:
		return mrb.uintValue(v)
	case float32:
		return mrb.FloatValue(float64(v))
	case float64:
		return mrb.FloatValue(v)
	case []interface{}:
		items := make([]MrbValue, len(v))
		for i := range v {
			items[i] = mrb.Value(v[i])
		}
		return mrb.ArrayValue(items...)
	case []string:
		items := make([]MrbValue, len(v))
		for i := range v {
			items[i] = mrb.StringValue(v[i])
		}
		return mrb.ArrayValue(items...)
	case error:
		return mrb.StringValue(v.Error())
	}

	// Go values of registered Go classes become instances of that class
	if v, ok := mrb.DataValue(o); ok {
		return v
	}

	if s, ok := o.(fmt.Stringer); ok {
		return mrb.StringValue(s.String())
	}

	return mrb.StringValue(fmt.Sprint(o))
}

// LoadString evaluates code and returns result of last expression
func (mrb *MrbState) LoadString(code string) (Value, error) {
	return mrb.load(code, "-e")
}

// LoadFile evaluates file content with file name set for backtraces
func (mrb *MrbState) LoadFile(name string) (Value, error) {
	code, err := os.ReadFile(name)
	if err != nil {
		return mrb.NilValue(), err
	}
	return mrb.load(string(code), name)
}

// Eval evaluates code string and returns calculated result
func (mrb *MrbState) Eval(code string) (Value, error) {
	return mrb.load(code, "(eval)")
}

func (mrb *MrbState) load(code, filename string) (Value, error) {
	ccode := C.CString(code)
	defer C.free(unsafe.Pointer(ccode))
	cname := C.CString(filename)
	defer C.free(unsafe.Pointer(cname))

	v := Value{C._mrb_load_string(mrb.p, ccode, C.size_t(len(code)), cname)}
	if err := mrb.Err(); err != nil {
		return mrb.NilValue(), err
	}

	return v, nil
}

// Exc returns pending oruby exception or nil value
func (mrb *MrbState) Exc() Value {
	return Value{C._mrb_exc(mrb.p)}
}

// ExcClear clear last exception
func (mrb *MrbState) ExcClear() {
	C._mrb_exc_clear(mrb.p)
}

// Err returns pending oruby exception as Go error and clears it
func (mrb *MrbState) Err() error {
	exc := mrb.Exc()
	if exc.IsNil() {
		return nil
	}

	mrb.ExcClear()
	return mrb.exception(exc)
}

// ObjectClass in state
func (mrb *MrbState) ObjectClass() RClass { return RClass{mrb.p.object_class, mrb} }

// KernelModule in state
func (mrb *MrbState) KernelModule() RClass { return RClass{mrb.p.kernel_module, mrb} }

// EExceptionClass returns Exception class
func (mrb *MrbState) EExceptionClass() RClass { return RClass{mrb.p.eException_class, mrb} }

// EStandardErrorClass returns StandardError class
func (mrb *MrbState) EStandardErrorClass() RClass {
	return RClass{mrb.p.eStandardError_class, mrb}
}

// DefineClass defines new oruby class
func (mrb *MrbState) DefineClass(name string, parent RClass) RClass {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return RClass{C.mrb_define_class(mrb.p, cname, parent.p), mrb}
}

// DefineModule defines new oruby module
func (mrb *MrbState) DefineModule(name string) RClass {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return RClass{C.mrb_define_module(mrb.p, cname), mrb}
}

// DefineClassUnder defines class under module or class, descending from super
func (mrb *MrbState) DefineClassUnder(outer RClass, name string, super RClass) RClass {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return RClass{C.mrb_define_class_under(mrb.p, outer.p, cname, super.p), mrb}
}

// DefineModuleUnder defines module under outer module or class
func (mrb *MrbState) DefineModuleUnder(outer RClass, name string) RClass {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return RClass{C.mrb_define_module_under(mrb.p, outer.p, cname), mrb}
}

// ClassDefined checks if top level class exists
func (mrb *MrbState) ClassDefined(name string) bool {
	_, ok := mrb.constGet(mrb.ObjectClass(), name, MrbTTClass)
	return ok
}

// ClassGet returns top level class, nil class if it does not exist
func (mrb *MrbState) ClassGet(name string) RClass {
	return mrb.ClassGetUnder(mrb.ObjectClass(), name)
}

// ClassGetUnder returns class defined under outer, nil class if it does not exist
func (mrb *MrbState) ClassGetUnder(outer RClass, name string) RClass {
	v, ok := mrb.constGet(outer, name, MrbTTClass)
	if !ok {
		return RClass{nil, mrb}
	}
	return RClass{C._mrb_class_ptr(v.v), mrb}
}

// ModuleGet returns top level module, nil module if it does not exist
func (mrb *MrbState) ModuleGet(name string) RClass {
	return mrb.ModuleGetUnder(mrb.ObjectClass(), name)
}

// ModuleGetUnder returns module defined under outer, nil module if it does not exist
func (mrb *MrbState) ModuleGetUnder(outer RClass, name string) RClass {
	v, ok := mrb.constGet(outer, name, MrbTTModule)
	if !ok {
		return RClass{nil, mrb}
	}
	return RClass{C._mrb_class_ptr(v.v), mrb}
}

func (mrb *MrbState) constGet(outer RClass, name string, kind int) (Value, bool) {
	if !outer.ConstDefinedAt(name) {
		return mrb.NilValue(), false
	}

	v := outer.ConstGet(name)
	return v, v.Type() == kind
}

// ExcGet returns exception class by name, StandardError if not defined
func (mrb *MrbState) ExcGet(name string) RClass {
	c := mrb.ClassGet(name)
	if c.IsNil() {
		return mrb.EStandardErrorClass()
	}
	return c
}

// ClassOf returns class of the value
func (mrb *MrbState) ClassOf(v MrbValue) RClass {
	return RClass{C.mrb_obj_class(mrb.p, v.Value().v), mrb}
}

// ObjClassname returns class name of the value
func (mrb *MrbState) ObjClassname(v MrbValue) string {
	return C.GoString(C.mrb_obj_classname(mrb.p, v.Value().v))
}

// DefineMethod for class
func (mrb *MrbState) DefineMethod(klass RClass, name string, f MrbFuncT, aspec MrbAspec) {
	// function reference is set as oruby function env
	idx := mrb.registerFunc(f, aspec)
	C._mrb_define_go_method(mrb.p, klass.p, C.mrb_sym(mrb.Intern(name)), C.mrb_int(idx))
}

// DefineClassMethod creates new oruby class method
func (mrb *MrbState) DefineClassMethod(klass RClass, name string, f MrbFuncT, aspec MrbAspec) {
	idx := mrb.registerFunc(f, aspec)
	C._mrb_define_go_class_method(mrb.p, klass.p, C.mrb_sym(mrb.Intern(name)), C.mrb_int(idx))
}

// DefineConst creates new oruby class const
func (mrb *MrbState) DefineConst(klass RClass, name string, value MrbValue) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	C.mrb_define_const(mrb.p, klass.p, cname, value.Value().v)
}

// DefineGlobalConst defines constant on Object
func (mrb *MrbState) DefineGlobalConst(name string, value MrbValue) {
	mrb.DefineConst(mrb.ObjectClass(), name, value)
}

// SetGV sets global variable
func (mrb *MrbState) SetGV(name string, value interface{}) {
	C.mrb_gv_set(mrb.p, C.mrb_sym(mrb.Intern(name)), mrb.Value(value).v)
}

// GetGV returns global variable
func (mrb *MrbState) GetGV(name string) Value {
	return Value{C.mrb_gv_get(mrb.p, C.mrb_sym(mrb.Intern(name)))}
}

// ArgsReq specifies number of required arguments
func ArgsReq(n uint32) MrbAspec { return MrbAspec((n & 0x1f) << 18) }

// ArgsOpt specifies number of optional arguments
func ArgsOpt(n uint32) MrbAspec { return MrbAspec((n & 0x1f) << 13) }

// ArgsArg specifies number of required and optional arguments
func ArgsArg(req, opt uint32) MrbAspec { return ArgsReq(req) | ArgsOpt(opt) }

// ArgsRest accepts rest arguments
func ArgsRest() MrbAspec { return MrbAspec(1 << 12) }

// ArgsAny accepts any number of arguments
func ArgsAny() MrbAspec { return ArgsRest() }

// ArgsNone accepts no arguments
func ArgsNone() MrbAspec { return MrbAspec(0) }

// ArgsReq specifies number of required arguments
func (mrb *MrbState) ArgsReq(n uint32) MrbAspec { return ArgsReq(n) }

// ArgsOpt specifies number of optional arguments
func (mrb *MrbState) ArgsOpt(n uint32) MrbAspec { return ArgsOpt(n) }

// ArgsArg specifies number of required and optional arguments
func (mrb *MrbState) ArgsArg(req, opt uint32) MrbAspec { return ArgsArg(req, opt) }

// ArgsAny accepts any number of arguments
func (mrb *MrbState) ArgsAny() MrbAspec { return ArgsAny() }

// ArgsNone accepts no arguments
func (mrb *MrbState) ArgsNone() MrbAspec { return ArgsNone() }

func (a MrbAspec) check(argc int) error {
	req := int((a >> 18) & 0x1f)
	opt := int((a >> 13) & 0x1f)
	rest := a&ArgsRest() != 0

	switch {
	case argc < req && opt == 0 && !rest:
		return EArgumentError("wrong number of arguments (given %d, expected %d)", argc, req)
	case argc < req && rest:
		return EArgumentError("wrong number of arguments (given %d, expected %d+)", argc, req)
	case argc < req:
		return EArgumentError("wrong number of arguments (given %d, expected %d..%d)", argc, req, req+opt)
	case !rest && argc > req+opt && opt == 0:
		return EArgumentError("wrong number of arguments (given %d, expected %d)", argc, req)
	case !rest && argc > req+opt:
		return EArgumentError("wrong number of arguments (given %d, expected %d..%d)", argc, req, req+opt)
	}
	return nil
}

// GetArgsCount returns number of arguments passed to current method
func (mrb *MrbState) GetArgsCount() int {
	return int(C.mrb_get_argc(mrb.p))
}

// GetArgs returns arguments passed to current method
func (mrb *MrbState) GetArgs() []Value {
	argc := mrb.GetArgsCount()
	if argc == 0 {
		return nil
	}

	argv := unsafe.Slice(C.mrb_get_argv(mrb.p), argc)
	args := make([]Value, argc)
	for i := range argv {
		args[i] = Value{argv[i]}
	}
	return args
}

// GetArgsFirst returns first argument, nil if there is none
func (mrb *MrbState) GetArgsFirst() Value {
	if mrb.GetArgsCount() == 0 {
		return mrb.NilValue()
	}
	return Value{*C.mrb_get_argv(mrb.p)}
}

// GetMID get method symbol
func (mrb *MrbState) GetMID() MrbSym {
	return MrbSym(C.mrb_get_mid(mrb.p))
}

// Call oruby function, in case of error, Call returns nil and drops the error
func (mrb *MrbState) Call(self MrbValue, name string, args ...interface{}) Value {
	result, _ := mrb.Funcall(self, name, args...)
	return result
}

// Funcall calls oruby method. Exceptions raised by the method are returned as error.
func (mrb *MrbState) Funcall(self MrbValue, name string, args ...interface{}) (Value, error) {
	argv := make([]C.mrb_value, len(args))
	for i := range args {
		argv[i] = mrb.Value(args[i]).v
	}

	var argp *C.mrb_value
	if len(argv) > 0 {
		argp = &argv[0]
	}

	v := Value{C._mrb_funcall_argv(
		mrb.p,
		self.Value().v,
		C.mrb_sym(mrb.Intern(name)),
		C.mrb_int(len(argv)),
		argp,
	)}
	runtime.KeepAlive(argv)

	if err := mrb.Err(); err != nil {
		return mrb.NilValue(), err
	}
	return v, nil
}

// RespondTo checks if object responds to method
func (mrb *MrbState) RespondTo(obj MrbValue, name string) bool {
	return C.mrb_respond_to(mrb.p, obj.Value().v, C.mrb_sym(mrb.Intern(name))) != 0
}

// MrbSym direct alias to mrb_sym uint32 value
type MrbSym uint32

// Intern returns symbol for name
func (mrb *MrbState) Intern(name string) MrbSym {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return MrbSym(C.mrb_intern(mrb.p, cname, C.size_t(len(name))))
}

// SymString returns symbol name
func (mrb *MrbState) SymString(sym MrbSym) string {
	return C.GoString(C.mrb_sym_name(mrb.p, C.mrb_sym(sym)))
}

func (mrb *MrbState) registerFunc(f MrbFuncT, aspec MrbAspec) int {
	mrb.Lock()
	defer mrb.Unlock()

	mrb.funcs = append(mrb.funcs, goFunc{f, aspec})
	return len(mrb.funcs) - 1
}

func (mrb *MrbState) getFunc(idx int) (goFunc, bool) {
	mrb.Lock()
	defer mrb.Unlock()

	if idx < 0 || idx >= len(mrb.funcs) {
		return goFunc{}, false
	}
	return mrb.funcs[idx], true
}

//export go_method_callback
func go_method_callback(cmrb *C.mrb_state, idx C.mrb_int, self, ret *C.mrb_value) {
	mrb := getMrbState(cmrb)

	// panic must not unwind through C frames
	defer func() {
		if r := recover(); r != nil {
			*ret = mrb.Raisef(mrb.ERuntimeError(), "%v", r).v
		}
	}()

	f, ok := mrb.getFunc(int(idx))
	if !ok {
		method := mrb.SymString(mrb.GetMID())
		*ret = mrb.Raisef(mrb.ERuntimeError(), "go_method_callback: Function '%v' reference not found.", method).v
		return
	}

	if err := f.aspec.check(mrb.GetArgsCount()); err != nil {
		*ret = mrb.RaiseError(err).v
		return
	}

	result := f.fn(mrb, Value{*self})
	if result == nil {
		*ret = C._mrb_nil_value()
		return
	}
	*ret = result.Value().v
}
