//go:build windows

package cleanup

import "golang.org/x/sys/windows"

// RtlGetVersion reports the real version whatever the manifest says.
func hostOSVersion() OSVersion {
	info := windows.RtlGetVersion()
	return OSVersion{
		Major: int(info.MajorVersion),
		Minor: int(info.MinorVersion),
		Build: int(info.BuildNumber),
	}
}
