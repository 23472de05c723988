//go:build !linux && !darwin && !freebsd

package platform

func uname() (machine, system string, ok bool) {
	return "", "", false
}
