package issue

import "strings"

// Platform identifies the mobile platform a snapshot and its issues came
// from. Some evidence correlations only hold on one platform (force-quit
// suspension semantics differ between the two).
type Platform string

const (
	PlatformUnknown Platform = ""
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// ParsePlatform normalizes a raw platform string. Unrecognized values map
// to PlatformUnknown; callers that require a known platform check the
// result themselves.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return PlatformAndroid
	case "ios":
		return PlatformIOS
	default:
		return PlatformUnknown
	}
}
