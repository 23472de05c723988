package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oruby "github.com/oruby/world"
	"github.com/oruby/world/internal/config"
	"github.com/oruby/world/internal/journal"
)

func runOruby(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.EnvVar, "")

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"oruby"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Eval(t *testing.T) {
	code, stdout, stderr := runOruby(t, "-e", `w = WorldModule::World.new; w.set "howdy"; puts w.greet`)

	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "howdy\n", stdout)
	assert.Empty(t, stderr)
}

func TestRun_MultipleEval(t *testing.T) {
	code, stdout, _ := runOruby(t, "-e", `w = WorldModule::World.new`, "-e", `w.set "a"; w.set "b"`, "-e", `print w.greet`)

	assert.Equal(t, 0, code)
	assert.Equal(t, "b", stdout)
}

func TestRun_ProgramFile(t *testing.T) {
	path := writeFile(t, "hello.rb", `
		w = WorldModule::World.new
		w.set ARGV.join(" ")
		puts w.greet
		puts $0
	`)

	code, stdout, stderr := runOruby(t, path, "hello", "there")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "hello there\n"+path+"\n", stdout)
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runOruby(t, "--version")

	assert.Equal(t, 0, code)
	assert.Regexp(t, regexp.MustCompile(`^mruby \d+\.\d+\.\d+ .*\[\S+-\S+\]\n$`), stdout)
}

func TestRun_Copyright(t *testing.T) {
	code, stdout, _ := runOruby(t, "--copyright")

	assert.Equal(t, 0, code)
	assert.Equal(t, oruby.MRubyCopyright()+"\n", stdout)
}

func TestRun_Verbose(t *testing.T) {
	code, stdout, _ := runOruby(t, "-v", "-e", `WorldModule::World.new.version`)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, oruby.MRubyDescription())
	assert.Contains(t, stdout, ` => "`+oruby.MRubyVersion()+`"`)
}

func TestRun_VersionOnly(t *testing.T) {
	code, stdout, _ := runOruby(t, "-v")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, oruby.MRubyDescription())
}

func TestRun_Debug(t *testing.T) {
	code, stdout, _ := runOruby(t, "-d", "-e", `p $DEBUG`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "true\n", stdout)

	code, stdout, _ = runOruby(t, "-e", `p $DEBUG`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "false\n", stdout)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"script error", []string{"-e", `raise "boom"`}, "boom (RuntimeError)"},
		{"type error", []string{"-e", `WorldModule::World.new.set 1`}, "wrong argument type Integer (expected String) (TypeError)"},
		{"syntax error", []string{"-e", `def x(`}, "SyntaxError"},
		{"missing program", []string{filepath.Join(os.TempDir(), "missing-oruby-program.rb")}, "no such file"},
		{"unknown library", []string{"-r", "no_such_gem", "-e", "1"}, "cannot load such file -- no_such_gem"},
		{"empty library", []string{"-r", "", "-e", "1"}, "No library specified for -r"},
		{"unknown flag", []string{"-x"}, "flag provided but not defined"},
		{"dump without journal", []string{"-journal-dump", "-e", "1"}, "-journal-dump requires a journal"},
		{"no program", nil, "Usage:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runOruby(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

func TestRun_RequireFile(t *testing.T) {
	lib := writeFile(t, "lib.rb", `
		def make_world(text)
			w = WorldModule::World.new
			w.set text
			w
		end
	`)

	code, stdout, stderr := runOruby(t, "-r", "world_module", "-r", lib, "-e", `puts make_world("from lib").greet`)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "from lib\n", stdout)
}

func TestRun_Journal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.db")

	code, stdout, stderr := runOruby(t, "-journal", path, "-journal-dump", "-e", `
		w = WorldModule::World.new
		w.set "hello"
		w.greet
		begin
			w.set 1
		rescue TypeError
		end
	`)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `WorldModule::World#set("hello")`)
	assert.Contains(t, stdout, `WorldModule::World#greet() => "hello"`)
	assert.Contains(t, stdout, `WorldModule::World#set("1") raised wrong argument type`)

	j, err := journal.Open(context.Background(), path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Entries(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "set", entries[0].Method)
	assert.Equal(t, []string{"hello"}, entries[0].Args)
	assert.Equal(t, "greet", entries[1].Method)
	assert.Equal(t, "hello", entries[1].Result)
	assert.Equal(t, entries[0].Receiver, entries[1].Receiver)

	assert.Equal(t, []string{"1"}, entries[2].Args)
	assert.Equal(t, "wrong argument type Integer (expected String)", entries[2].Error)
}

func TestRun_Config(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "calls.db")
	cfgPath := writeFile(t, "oruby.yaml", "require:\n  - world_module\njournal: "+journalPath+"\ndebug: true\n")

	code, stdout, stderr := runOruby(t, "-config", cfgPath, "-e", `WorldModule::World.new.set "cfg"; p $DEBUG`)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "true\n", stdout)

	j, err := journal.Open(context.Background(), journalPath)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"cfg"}, entries[0].Args)
}

func TestRun_ConfigEnv(t *testing.T) {
	cfgPath := writeFile(t, "oruby.yaml", "verbose: true\n")

	var stdout, stderr bytes.Buffer
	t.Setenv(config.EnvVar, cfgPath)
	code := run([]string{"oruby", "-e", `1 + 1`}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, " => 2\n", stdout.String())
}

func TestRun_ConfigOverride(t *testing.T) {
	cfgPath := writeFile(t, "oruby.yaml", "verbose: true\ndebug: true\n")

	code, stdout, stderr := runOruby(t, "-config", cfgPath, "--verbose=false", "-d=false", "-e", `print $DEBUG`)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "false", stdout)

	code, stdout, stderr = runOruby(t, "-config", cfgPath, "-e", `print $DEBUG`)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "true => nil\n", stdout)
}

func TestRun_ConfigInvalid(t *testing.T) {
	cfgPath := writeFile(t, "oruby.yaml", "unknown: true\n")

	code, _, stderr := runOruby(t, "-config", cfgPath, "-e", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config")
}

func TestEntryOf(t *testing.T) {
	recv := &struct{ text string }{}
	e := entryOf(oruby.GoCall{
		Class:    "WorldModule::World",
		Method:   "set",
		Receiver: recv,
		Args:     []interface{}{"x"},
	})

	assert.Equal(t, "WorldModule::World", e.Class)
	assert.Equal(t, []string{"x"}, e.Args)
	assert.Empty(t, e.Result)
	assert.Regexp(t, `@0x[0-9a-f]+$`, e.Receiver)
	assert.Equal(t, e.Receiver, receiverID(recv))
}
