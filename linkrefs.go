package oruby

// #include "go-mrb.h"
import "C"
import "sync"

var mu sync.Mutex
var states []*MrbState

func init() {
	// index 0 is never used, so a zeroed ud is never a valid state
	states = make([]*MrbState, 1, 10)
}

// getMrbState returns Go MrbState from C.mrb_state reference
func getMrbState(cmrb *C.mrb_state) *MrbState {
	idx := int(C._mrb_get_idx(cmrb))

	mu.Lock()
	defer mu.Unlock()

	if idx <= 0 || idx >= len(states) {
		panic("State index is out of range")
	}

	if states[idx] == nil {
		panic("State does not exists")
	}

	return states[idx]
}

// findMrbState is getMrbState for callbacks which must not panic
func findMrbState(cmrb *C.mrb_state) (*MrbState, bool) {
	idx := int(C._mrb_get_idx(cmrb))

	mu.Lock()
	defer mu.Unlock()

	if idx <= 0 || idx >= len(states) || states[idx] == nil {
		return nil, false
	}
	return states[idx], true
}

func registerState(mrb *MrbState) {
	mu.Lock()
	defer mu.Unlock()

	for idx := 1; idx < len(states); idx++ {
		if states[idx] == nil {
			states[idx] = mrb
			C._mrb_set_idx(mrb.p, C.mrb_int(idx))
			return
		}
	}

	states = append(states, mrb)
	C._mrb_set_idx(mrb.p, C.mrb_int(len(states)-1))
}

func removeStateIndex(index int) {
	mu.Lock()
	defer mu.Unlock()

	if index > 0 && index < len(states) {
		states[index] = nil
	}
}
