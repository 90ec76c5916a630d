//go:build linux

package configuration

import "golang.org/x/sys/unix"

// kernelRelease returns the running kernel release string, or "" when
// it cannot be read.
func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}
