// Package oruby embeds mruby in Go and exposes Go types to it.
//
// A state (oruby.MrbState) is obtained with New(), which opens mruby and
// loads every Go gem registered with Gem():
//
//     mrb, err := oruby.New()
//     if err != nil {
//         ...
//     }
//     defer mrb.Close()
//
// Go types are exposed as oruby classes with DefineGoClassUnder. The
// constructor is called on "initialize" and each GoMethods entry becomes
// a method whose receiver is the Go value held by the oruby object:
//
//     m := mrb.DefineModule("WorldModule")
//     mrb.DefineGoClassUnder(m, "World", world.New, oruby.GoMethods{
//         "greet": (*world.World).Greet,
//         "set":   (*world.World).Set,
//     })
//
// is used from ruby as:
//
//     w = WorldModule::World.new
//     w.set "howdy"
//     w.greet # => "howdy"
//
// Arguments are converted to Go parameter types. Wrong number of arguments
// raises ArgumentError, wrong argument type raises TypeError, and a non-nil
// trailing error result is raised as exception mapped from the error, see
// RaiseError.
//
// ORuby uses Go naming (CamelCase) for method names, while mruby C API uses
// snake_case, so mrb_define_module(mrb, "SomeModule") becomes
// mrb.DefineModule("SomeModule").
//
// A state must not be used from more than one goroutine at a time, mruby
// is single threaded.
package oruby
