package oruby

// #include "go-mrb.h"
import "C"
import "fmt"

// MRubyCopyright returns mruby copyright line
func MRubyCopyright() string {
	return C.GoString(C._MRUBY_COPYRIGHT())
}

// MRubyDescription returns mruby description line, like "mruby 3.2.0 (2023-02-24)"
func MRubyDescription() string {
	return C.GoString(C._MRUBY_DESCRIPTION())
}

// MRubyReleaseDate returns mruby release date
func MRubyReleaseDate() string {
	return C.GoString(C._MRUBY_RELEASE_DATE())
}

// MRubyRelease returns major, minor and teeny mruby release numbers
func MRubyRelease() (int, int, int) {
	return int(C.MRUBY_RELEASE_MAJOR), int(C.MRUBY_RELEASE_MINOR), int(C.MRUBY_RELEASE_TEENY)
}

// MRubyVersion returns "major.minor" mruby version oruby is built with
func MRubyVersion() string {
	major, minor, _ := MRubyRelease()
	return fmt.Sprintf("%d.%d", major, minor)
}
