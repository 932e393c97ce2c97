// Package device derives human-readable device descriptions from User-Agent
// strings for audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent turns a raw User-Agent header into a short display name such
// as "Chrome on Mac OS X". Unparseable input yields "Unknown Device".
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()

	platform := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}

	switch {
	case browser != "" && platform != "":
		return browser + " on " + platform
	case browser != "":
		return browser
	case platform != "":
		return platform
	default:
		return unknownDevice
	}
}
