//go:build unix

package cleanup

import "golang.org/x/sys/unix"

func hostOSVersion() OSVersion {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return OSVersion{}
	}
	v, err := ParseOSVersion(unix.ByteSliceToString(uts.Release[:]))
	if err != nil {
		return OSVersion{}
	}
	return v
}
