//go:build !linux

package configuration

// kernelRelease is only implemented on Linux.
func kernelRelease() string {
	return ""
}
