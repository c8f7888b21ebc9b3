//go:build !windows

package idle

// osIdleMillis has no portable equivalent of GetLastInputInfo outside
// Windows; non-Windows callers can still inject a reader for tests, but
// the production default is "always active", matching original_source's
// non-Windows fallback.
func osIdleMillis() (uint64, bool) {
	return 0, false
}
