// Package world exposes the World holder to oruby as a gem.
//
// Gem name is set at build time:
//
//     go build -ldflags "-X github.com/oruby/world/gem/world.ModuleName=my_world"
//
// and the gem defines module CamelCase(ModuleName) holding class World:
//
//     require "world_module"
//     w = WorldModule::World.new
//     w.set "howdy"
//     w.greet # => "howdy"
package world

import (
	"fmt"

	oruby "github.com/oruby/world"
)

// ModuleName is gem name, module is named by its CamelCase form
var ModuleName = "world_module"

// ClassName is oruby class name of World
const ClassName = "World"

// World holds one text value
type World struct {
	text string
}

// New creates empty World
func New() *World {
	return &World{}
}

// Set replaces the text
func (w *World) Set(msg string) {
	w.text = msg
}

// Greet returns the text last set, empty if it was never set
func (w *World) Greet() string {
	return w.text
}

// Version returns "major.minor" of mruby World is built with
func (w *World) Version() string {
	return oruby.MRubyVersion()
}

// Methods maps oruby method names to World methods
var Methods = oruby.GoMethods{
	"greet":   (*World).Greet,
	"set":     (*World).Set,
	"version": (*World).Version,
}

// Register defines the module and World class in the state
func Register(mrb *oruby.MrbState) (oruby.RClass, error) {
	name := oruby.CamelCase(ModuleName)
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return oruby.RClass{}, fmt.Errorf("world: invalid module name %q", ModuleName)
	}

	object := mrb.ObjectClass()
	if object.ConstDefinedAt(name) && mrb.ModuleGet(name).IsNil() {
		return oruby.RClass{}, fmt.Errorf("world: %v is already defined and is not a module", name)
	}

	m := mrb.DefineModule(name)
	return mrb.DefineGoClassUnder(m, ClassName, New, Methods)
}

func init() {
	oruby.Gem(ModuleName, func(mrb *oruby.MrbState) error {
		_, err := Register(mrb)
		return err
	})
}
