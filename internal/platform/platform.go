// Package platform names the platform oruby runs on, as shown in version banner.
package platform

import (
	"runtime"
	"strings"
)

// Name returns "<machine>-<os>", like "x86_64-linux"
func Name() string {
	machine, system, ok := uname()
	if !ok || machine == "" || system == "" {
		return runtime.GOARCH + "-" + runtime.GOOS
	}
	return machine + "-" + strings.ToLower(system)
}
