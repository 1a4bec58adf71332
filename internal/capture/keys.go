// File: internal/capture/keys.go
package capture

import "time"

// TimestampLayout renders the UTC second-resolution stamp used in artifact keys.
const TimestampLayout = "20060102T150405Z"

// failedNamespace separates diagnostic captures from regular artifacts.
const failedNamespace = "failed/"

// ArtifactKey returns "<prefix><UTC timestamp>.png". Keys have one-second
// resolution: two captures within the same second under the same prefix collide
// and the later write replaces the earlier one.
func ArtifactKey(prefix string, t time.Time) string {
	return prefix + t.UTC().Format(TimestampLayout) + ".png"
}

// FailureArtifactKey returns "<prefix>failed/<UTC timestamp>.png".
func FailureArtifactKey(prefix string, t time.Time) string {
	return ArtifactKey(prefix+failedNamespace, t)
}
