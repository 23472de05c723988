package oruby

import (
	"sort"
	"sync"
)

var (
	gemsMu sync.Mutex
	gems   = make(map[string]func(*MrbState) error)
)

// Gem register makes a gem available by the provided name.
// If Gem is called twice with the same name it panics.
func Gem(name string, initFn func(*MrbState) error) {
	if name == "" {
		panic("error - empty name not allowed")
	}
	if initFn == nil {
		panic("gem register called with nil init for gem " + name)
	}

	gemsMu.Lock()
	defer gemsMu.Unlock()

	if _, dup := gems[name]; dup {
		panic("gem register called twice for gem " + name)
	}
	gems[name] = initFn
}

// GemExists checks if gem is registered
func GemExists(name string) bool {
	gemsMu.Lock()
	defer gemsMu.Unlock()

	_, exists := gems[name]
	return exists
}

// Gems returns names of registered Go gems, sorted
func Gems() []string {
	gemsMu.Lock()
	defer gemsMu.Unlock()

	names := make([]string, 0, len(gems))
	for name := range gems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require inits gem from available Go gems if not already initialized.
// Returns true if gem was loaded by this call.
func (mrb *MrbState) Require(name string) (bool, error) {
	if name == "" {
		return false, ELoadError("cannot load such file -- ")
	}

	if mrb.featureLoaded(name) {
		return false, nil
	}

	gemsMu.Lock()
	initFn, exists := gems[name]
	gemsMu.Unlock()

	if !exists {
		return false, ELoadError("cannot load such file -- %v", name)
	}

	if err := initFn(mrb); err != nil {
		return false, err
	}

	mrb.FeatureAdd(name)
	return true, nil
}

// FeatureAdd sets feature as loaded
func (mrb *MrbState) FeatureAdd(name string) {
	mrb.Lock()
	defer mrb.Unlock()
	mrb.features[name] = struct{}{}
}

// FeatureExists checks if feature is available, either loaded or as registered gem
func (mrb *MrbState) FeatureExists(name string) bool {
	return GemExists(name) || mrb.featureLoaded(name)
}

func (mrb *MrbState) featureLoaded(name string) bool {
	mrb.Lock()
	defer mrb.Unlock()
	_, loaded := mrb.features[name]
	return loaded
}

// kernelRequire implements Kernel#require for Go gems
func kernelRequire(mrb *MrbState, self Value) MrbValue {
	name := mrb.GetArgsFirst()
	if !name.IsString() {
		return mrb.Raisef(mrb.ETypeError(), "wrong argument type %v (expected String)", mrb.ObjClassname(name))
	}

	loaded, err := mrb.Require(mrb.String(name))
	if err != nil {
		return mrb.RaiseError(err)
	}

	return mrb.BoolValue(loaded)
}
