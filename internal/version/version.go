// Package version provides SDK version information.
package version

import (
	"fmt"
	"runtime"
)

// SDK version constants
const (
	// Version is the current SDK version.
	Version = "1.2.0"

	// SDKName is the name of the SDK.
	SDKName = "assemblyai-go"

	// Language is reported to the API in the SDK language header.
	Language = "go"
)

// UserAgent returns the default user agent string for the SDK.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s; %s)", SDKName, Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// ShortUserAgent returns a shorter user agent string.
func ShortUserAgent() string {
	return fmt.Sprintf("%s/%s", SDKName, Version)
}

// ExtendUserAgent appends a caller-supplied integration name to the default
// user agent, e.g. "assemblyai-go/1.2.0 (...) my-app/2.1".
func ExtendUserAgent(integration string) string {
	if integration == "" {
		return UserAgent()
	}
	return UserAgent() + " " + integration
}
