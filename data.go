package oruby

// #include "go-mrb.h"
import "C"
import (
	"errors"
	"reflect"
	"runtime/cgo"
	"sync/atomic"
)

// Go values are never stored in C memory. RData holds a cgo.Handle and
// the handle is deleted when mruby frees the object. Pointer values are
// tracked per state, so the same Go pointer maps back to the same object.

// number of Go values referenced from oruby objects, in all states
var liveData int64

func newDataHandle(v interface{}) cgo.Handle {
	atomic.AddInt64(&liveData, 1)
	return cgo.NewHandle(v)
}

func releaseDataHandle(h cgo.Handle) {
	h.Delete()
	atomic.AddInt64(&liveData, -1)
}

//export go_data_release
func go_data_release(cmrb *C.mrb_state, h C.uintptr_t) {
	if mrb, ok := findMrbState(cmrb); ok {
		mrb.untrackData(cgo.Handle(h))
	}
	releaseDataHandle(cgo.Handle(h))
}

// dataRef links pointer Go value to the oruby object holding it
type dataRef struct {
	h   cgo.Handle
	obj C.mrb_value
}

// dataKey returns v as identity key, only non-nil pointers have identity
func dataKey(v interface{}) (interface{}, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, false
	}
	return v, true
}

func (mrb *MrbState) trackData(v interface{}, h cgo.Handle, obj Value) {
	key, ok := dataKey(v)
	if !ok {
		return
	}

	mrb.Lock()
	defer mrb.Unlock()
	mrb.objects[key] = dataRef{h, obj.v}
}

func (mrb *MrbState) untrackData(h cgo.Handle) {
	key, ok := dataKey(h.Value())
	if !ok {
		return
	}

	mrb.Lock()
	defer mrb.Unlock()
	if ref, exists := mrb.objects[key]; exists && ref.h == h {
		delete(mrb.objects, key)
	}
}

// dataObject returns live oruby object holding v
func (mrb *MrbState) dataObject(v interface{}) (Value, bool) {
	key, ok := dataKey(v)
	if !ok {
		return mrb.NilValue(), false
	}

	mrb.Lock()
	ref, exists := mrb.objects[key]
	mrb.Unlock()

	// object may be unreachable but not swept yet
	if !exists || C._mrb_is_dead(mrb.p, ref.obj) != 0 {
		return mrb.NilValue(), false
	}
	return Value{ref.obj}, true
}

// Data returns underlying Go value of oruby object, nil if there is none
func (mrb *MrbState) Data(obj MrbValue) interface{} {
	h := C._go_data_handle(mrb.p, obj.Value().v)
	if h == 0 {
		return nil
	}
	return cgo.Handle(h).Value()
}

// DataWrap creates new object of klass holding Go value,
// "initialize" is not called
func (mrb *MrbState) DataWrap(klass RClass, v interface{}) Value {
	h := newDataHandle(v)
	obj := Value{C._go_data_wrap(mrb.p, klass.p, C.uintptr_t(h))}
	mrb.trackData(v, h, obj)
	return obj
}

// DataSetInterface sets Go value of RData object, releasing previous one
func (mrb *MrbState) DataSetInterface(obj Value, v interface{}) error {
	if !obj.IsData() {
		return errors.New("object is not RData type")
	}

	if h := C._go_data_handle(mrb.p, obj.v); h != 0 {
		C._go_data_clear(obj.v)
		mrb.untrackData(cgo.Handle(h))
		releaseDataHandle(cgo.Handle(h))
	}

	if v == nil {
		return nil
	}

	h := newDataHandle(v)
	C._go_data_init(obj.v, C.uintptr_t(h))
	mrb.trackData(v, h, obj)
	return nil
}
