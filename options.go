package nc4

// Option configures a FileWriter at Create time.
type Option func(*FileWriter)

// WithOverwrite permits Create to truncate an existing file at path
// instead of failing. Off by default.
func WithOverwrite() Option {
	return func(fw *FileWriter) { fw.allowOverwrite = true }
}

// WithModTime fixes the timestamp recorded in every object header's
// access/modify/change/birth fields and modification-time messages, overriding the
// default of the time Create is called. unixMillis is milliseconds since
// the Unix epoch; zero means "use the time Create is called," matching
// the default. The on-disk object-header field only has second
// resolution, so unixMillis is truncated to seconds before storage.
// Mainly useful for reproducible test fixtures.
func WithModTime(unixMillis int64) Option {
	return func(fw *FileWriter) {
		if unixMillis == 0 {
			return
		}
		fw.openTime = uint32(unixMillis / 1000) //nolint:gosec // epoch seconds fit uint32 until 2106
	}
}
