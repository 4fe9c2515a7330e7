// Package semver compares release version strings for the updater and the
// in-app update hint.
package semver

import (
	"strconv"
	"strings"
)

// IsNewer returns true if latest is a newer semver than current. A leading
// "v" is ignored and missing components count as zero.
func IsNewer(latest, current string) bool {
	lMaj, lMin, lPatch := parse(latest)
	cMaj, cMin, cPatch := parse(current)
	if lMaj != cMaj {
		return lMaj > cMaj
	}
	if lMin != cMin {
		return lMin > cMin
	}
	return lPatch > cPatch
}

func parse(v string) (maj, min, patch int) {
	v = strings.TrimPrefix(v, "v")
	parts := strings.SplitN(v, ".", 3)
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s) //nolint:errcheck // zero-value on parse failure is desired
		return n
	}
	if len(parts) > 0 {
		maj = atoi(parts[0])
	}
	if len(parts) > 1 {
		min = atoi(parts[1])
	}
	if len(parts) > 2 {
		patch = atoi(parts[2])
	}
	return maj, min, patch
}
