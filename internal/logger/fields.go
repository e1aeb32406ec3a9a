package logger

import "log/slog"

// Standard field keys for structured logging. Use these keys consistently
// across load, cache, and backend log statements so that logs from the
// provider, backends, and the ops API can be correlated.
const (
	KeyPath     = "path"      // Logical resource path
	KeyType     = "type"      // Requested resource type
	KeyBackend  = "backend"   // Backend name: local, remote
	KeyStore    = "store"     // Remote store type: s3, memory
	KeyIdentity = "identity"  // Remote content identity
	KeyFormat   = "format"    // Export format used for the fetch
	KeySize     = "size"      // Byte count involved in the operation
	KeyCacheHit = "cache_hit" // Whether the load was served from the disk cache
	KeyProgress = "progress"  // Aggregate load progress

	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// Path returns a slog.Attr for a logical resource path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Type returns a slog.Attr for a resource type
func Type(t string) slog.Attr {
	return slog.String(KeyType, t)
}

// Backend returns a slog.Attr for a backend name
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// Identity returns a slog.Attr for a remote content identity
func Identity(id string) slog.Attr {
	return slog.String(KeyIdentity, id)
}

// Size returns a slog.Attr for a byte count
func Size(n int) slog.Attr {
	return slog.Int(KeySize, n)
}

// CacheHit returns a slog.Attr indicating a disk-cache hit
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
