//go:build linux || darwin || freebsd

package platform

import "golang.org/x/sys/unix"

func uname() (machine, system string, ok bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", "", false
	}
	return unix.ByteSliceToString(uts.Machine[:]), unix.ByteSliceToString(uts.Sysname[:]), true
}
