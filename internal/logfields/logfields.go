package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyResource    = "resource"
	KeyIdentifier  = "identifier"
	KeyPath        = "path"
	KeyOutput      = "output"
	KeyProcessor   = "processor"
	KeyTransformer = "transformer"
	KeyTag         = "tag"
	KeyBytes       = "bytes"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyURL         = "url"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Resource(id string) slog.Attr    { return slog.String(KeyResource, id) }
func Identifier(id string) slog.Attr  { return slog.String(KeyIdentifier, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Processor(n string) slog.Attr    { return slog.String(KeyProcessor, n) }
func Transformer(n string) slog.Attr  { return slog.String(KeyTransformer, n) }
func Tag(n string) slog.Attr          { return slog.String(KeyTag, n) }
func Bytes(n int) slog.Attr           { return slog.Int(KeyBytes, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
