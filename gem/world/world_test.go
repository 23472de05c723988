package world

import (
	"regexp"
	"testing"

	oruby "github.com/oruby/world"
)

var versionRe = regexp.MustCompile(`^\d+\.\d+$`)

func TestWorld(t *testing.T) {
	for _, text := range []string{"", "hello", "howdy partner", "здраво свете", "こんにちは", "a\x00b"} {
		w := New()
		w.Set(text)
		if got := w.Greet(); got != text {
			t.Errorf("Greet() = %q, expected %q", got, text)
		}
	}
}

func TestWorld_Fresh(t *testing.T) {
	if got := New().Greet(); got != "" {
		t.Errorf("fresh Greet() = %q, expected empty", got)
	}
}

func TestWorld_LastWriteWins(t *testing.T) {
	w := New()
	w.Set("a")
	w.Set("b")
	if got := w.Greet(); got != "b" {
		t.Errorf("Greet() = %q, expected \"b\"", got)
	}
}

func TestWorld_Isolation(t *testing.T) {
	h1, h2 := New(), New()
	h1.Set("x")
	if got := h2.Greet(); got != "" {
		t.Errorf("h2.Greet() = %q, expected empty", got)
	}
}

func TestWorld_Version(t *testing.T) {
	v := New().Version()
	if !versionRe.MatchString(v) {
		t.Errorf("Version() = %q, does not match %v", v, versionRe)
	}
	if v != New().Version() || v != oruby.MRubyVersion() {
		t.Errorf("Version() not constant")
	}
}

func TestMethods(t *testing.T) {
	for _, name := range []string{"greet", "set", "version"} {
		if _, ok := Methods[name]; !ok {
			t.Errorf("method %v not in method table", name)
		}
	}
	if len(Methods) != 3 {
		t.Errorf("method table has %v entries, expected 3", len(Methods))
	}
}

func testWorld(t *testing.T, ruby string) string {
	t.Helper()

	mrb := oruby.MrbOpen()
	defer mrb.Close()

	v, err := mrb.Eval(ruby)
	if err != nil {
		t.Fatal(err)
	}
	return mrb.String(v)
}

func testWorldErr(t *testing.T, ruby string) error {
	t.Helper()

	mrb := oruby.MrbOpen()
	defer mrb.Close()

	_, err := mrb.Eval(ruby)
	if err == nil {
		t.Fatalf("expected error for: %v", ruby)
	}
	return err
}

func TestGem_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		ruby   string
		result string
	}{
		{"fresh", `WorldModule::World.new.greet`, ""},
		{"set greet", `w = WorldModule::World.new; w.set "hello"; w.greet`, "hello"},
		{"last write wins", `w = WorldModule::World.new; w.set "a"; w.set "b"; w.greet`, "b"},
		{"isolation", `h1 = WorldModule::World.new; h2 = WorldModule::World.new; h1.set "x"; h2.greet`, ""},
		{"multibyte", `w = WorldModule::World.new; w.set "здраво 世界"; w.greet`, "здраво 世界"},
		{"set returns nil", `WorldModule::World.new.set("x").inspect`, "nil"},
		{"dup copies text", `w = WorldModule::World.new; w.set "a"; w.dup.greet`, "a"},
		{"dup is independent", `w = WorldModule::World.new; w.set "a"; d = w.dup; d.set "b"; w.greet + d.greet`, "ab"},
		{"clone is independent", `w = WorldModule::World.new; c = w.clone; c.set "c"; w.greet + c.greet`, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mrb := oruby.MrbOpen()
			defer mrb.Close()

			v, err := mrb.Eval(tt.ruby)
			if err != nil {
				t.Fatal(err)
			}
			if !v.IsString() {
				t.Fatalf("expected String, got %v", mrb.ObjClassname(v))
			}
			if got := mrb.String(v); got != tt.result {
				t.Errorf("got %q, expected %q", got, tt.result)
			}
		})
	}
}

func TestGem_Require(t *testing.T) {
	mrb, err := oruby.NewCore()
	if err != nil {
		t.Fatal(err)
	}
	defer mrb.Close()

	if !oruby.GemExists(ModuleName) {
		t.Fatalf("gem %v not registered", ModuleName)
	}

	v, err := mrb.Eval(`require "world_module"`)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type() != oruby.MrbTTTrue {
		t.Errorf("first require should return true")
	}

	v, err = mrb.Eval(`require "world_module"`)
	if err != nil {
		t.Fatal(err)
	}
	if v.Type() != oruby.MrbTTFalse {
		t.Errorf("second require should return false")
	}

	v, err = mrb.Eval(`WorldModule::World.new.class.to_s`)
	if err != nil {
		t.Fatal(err)
	}
	if got := mrb.String(v); got != "WorldModule::World" {
		t.Errorf("class name = %q", got)
	}
}

func TestGem_Version(t *testing.T) {
	v := testWorld(t, `
		a = WorldModule::World.new
		b = WorldModule::World.new
		[a.version, a.version, b.version].uniq.size
	`)
	if v != "1" {
		t.Errorf("version differs across calls or instances")
	}

	v = testWorld(t, `WorldModule::World.new.version`)
	if !versionRe.MatchString(v) {
		t.Errorf("version %q does not match %v", v, versionRe)
	}
	if v != oruby.MRubyVersion() {
		t.Errorf("version %q, expected %q", v, oruby.MRubyVersion())
	}
}

func TestGem_Errors(t *testing.T) {
	tests := []struct {
		name  string
		ruby  string
		check func(error) bool
		msg   string
	}{
		{"set wrong type", `WorldModule::World.new.set 1`, oruby.IsTypeError,
			"wrong argument type Integer (expected String) (TypeError)"},
		{"set nil", `WorldModule::World.new.set nil`, oruby.IsTypeError,
			"wrong argument type nil (expected String) (TypeError)"},
		{"set no args", `WorldModule::World.new.set`, oruby.IsArgumentError,
			"wrong number of arguments (given 0, expected 1) (ArgumentError)"},
		{"greet with args", `WorldModule::World.new.greet 1`, oruby.IsArgumentError,
			"wrong number of arguments (given 1, expected 0) (ArgumentError)"},
		{"new with args", `WorldModule::World.new 1`, oruby.IsArgumentError,
			"wrong number of arguments (given 1, expected 0) (ArgumentError)"},
		{"uninitialized", `WorldModule::World.allocate.greet`, oruby.IsTypeError,
			"uninitialized WorldModule::World (TypeError)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testWorldErr(t, tt.ruby)
			if !tt.check(err) {
				t.Errorf("unexpected error kind: %v", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("error = %q, expected %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestGem_RescueInRuby(t *testing.T) {
	v := testWorld(t, `
		begin
			WorldModule::World.new.set 42
			"no error"
		rescue TypeError => e
			e.class.to_s
		end
	`)
	if v != "TypeError" {
		t.Errorf("rescued %q, expected TypeError", v)
	}
}

func TestGem_GoValue(t *testing.T) {
	mrb := oruby.MrbOpen()
	defer mrb.Close()

	v, err := mrb.Eval(`$w = WorldModule::World.new; $w.set "from ruby"; $w`)
	if err != nil {
		t.Fatal(err)
	}

	w, ok := mrb.Data(v).(*World)
	if !ok {
		t.Fatalf("expected *World, got %T", mrb.Data(v))
	}
	if w.Greet() != "from ruby" {
		t.Errorf("Greet() = %q", w.Greet())
	}

	w.Set("from go")
	v, err = mrb.Eval(`$w.greet`)
	if err != nil {
		t.Fatal(err)
	}
	if got := mrb.String(v); got != "from go" {
		t.Errorf("greet = %q, expected \"from go\"", got)
	}
}

func TestRegister_Twice(t *testing.T) {
	mrb := oruby.MrbOpen()
	defer mrb.Close()

	if _, err := Register(mrb); err == nil {
		t.Errorf("second Register should fail, World already defined")
	}
}
