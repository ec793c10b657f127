package schema

import (
	"fmt"
	"strings"
)

// Platform identifies the advertising platform that produced a dataset.
type Platform string

// Supported platforms. The order of Platforms is the detection tie-break priority.
const (
	PlatformGoogleAds Platform = "google_ads"
	PlatformMeta      Platform = "meta"
	PlatformTikTok    Platform = "tiktok"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformUnknown   Platform = "unknown"
)

// Platforms lists the known platforms in priority order.
var Platforms = []Platform{PlatformGoogleAds, PlatformMeta, PlatformTikTok, PlatformLinkedIn}

var displayNames = map[Platform]string{
	PlatformGoogleAds: "Google Ads",
	PlatformMeta:      "Meta",
	PlatformTikTok:    "TikTok",
	PlatformLinkedIn:  "LinkedIn",
	PlatformUnknown:   "Unknown",
}

// platformAliases maps normalized keys of names seen in exports to platforms.
var platformAliases = map[string]Platform{
	"googleads":     PlatformGoogleAds,
	"google":        PlatformGoogleAds,
	"adwords":       PlatformGoogleAds,
	"googleadwords": PlatformGoogleAds,
	"meta":          PlatformMeta,
	"metaads":       PlatformMeta,
	"facebook":      PlatformMeta,
	"facebookads":   PlatformMeta,
	"instagram":     PlatformMeta,
	"tiktok":        PlatformTikTok,
	"tiktokads":     PlatformTikTok,
	"linkedin":      PlatformLinkedIn,
	"linkedinads":   PlatformLinkedIn,
	"unknown":       PlatformUnknown,
}

// DisplayName returns the human readable platform name used in records and reports.
func (p Platform) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// IsKnown reports whether p is one of the supported platforms.
func (p Platform) IsKnown() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePlatform resolves a platform identifier or a display name such as "Meta Ads".
func ParsePlatform(s string) (Platform, error) {
	key := NormalizeKey(s)
	if key == "" {
		return PlatformUnknown, nil
	}
	if p, ok := platformAliases[key]; ok {
		return p, nil
	}
	return PlatformUnknown, fmt.Errorf("unknown platform %q", s)
}

// CanonicalPlatformName maps a platform value found in a data column to its display name.
// Values that match no alias are returned trimmed.
func CanonicalPlatformName(value string) string {
	value = strings.TrimSpace(value)
	if p, ok := platformAliases[NormalizeKey(value)]; ok && p != PlatformUnknown {
		return p.DisplayName()
	}
	return value
}
