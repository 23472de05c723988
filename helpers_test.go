package oruby

import (
	"reflect"
	"testing"
)

// Expect is simple testing function which raises error if condition is not met
func Expect(t *testing.T, condition bool, eformat string, args ...interface{}) {
	t.Helper()
	if !condition {
		t.Errorf(eformat, args...)
	}
}

// ExpectEql expects both arguments to be equal
// Internaly it uses reflection.DeepEqual to perform test
func ExpectEql(t *testing.T, v1, v2 interface{}) {
	t.Helper()
	Expect(t, reflect.DeepEqual(v1, v2), "Expected '%v' to equal '%v'", v1, v2)
}

// ExpectNilError should be used to check returned Go error.
// Test fails if there is error.
func ExpectNilError(t *testing.T, err error) {
	t.Helper()
	Expect(t, err == nil, "Error: %v", err)
}

// ExpectErr should be used to check if Go error is raised.
// Test fails if there is no error.
func ExpectErr(t *testing.T, err error, eformat string, args ...interface{}) {
	t.Helper()
	Expect(t, err != nil, eformat, args...)
}

// evalString evaluates code in new state and returns result as string
func evalString(t *testing.T, code string) string {
	t.Helper()

	mrb := MrbOpen()
	defer mrb.Close()

	v, err := mrb.Eval(code)
	if err != nil {
		t.Fatal(err)
	}
	return mrb.String(v)
}
