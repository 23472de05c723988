package oruby

// #include "go-mrb.h"
import "C"

// GCArenaSave saves arena index. Objects created from Go stay referenced by
// the arena until it is restored.
func (mrb *MrbState) GCArenaSave() int { return int(C._mrb_gc_arena_save(mrb.p)) }

// GCArenaRestore restores arena index
func (mrb *MrbState) GCArenaRestore(n int) { C._mrb_gc_arena_restore(mrb.p, C.int(n)) }

// FullGC runs full garbage collection
func (mrb *MrbState) FullGC() { C.mrb_full_gc(mrb.p) }

// GCDisable disables garbage collector
func (mrb *MrbState) GCDisable() { C._mrb_gc_disable(mrb.p, 1) }

// GCEnable enables garbage collector
func (mrb *MrbState) GCEnable() { C._mrb_gc_disable(mrb.p, 0) }

// IsDead checks if value is garbage collected. Immediate values, like
// integers, symbols and booleans, are not subject to GC and are always "alive"
func (mrb *MrbState) IsDead(o MrbValue) bool {
	return C._mrb_is_dead(mrb.p, o.Value().v) != 0
}
