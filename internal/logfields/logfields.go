package logfields

import "log/slog"

// Canonical log field names shared by every package.
const (
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeyAction     = "action"
	KeyArtifact   = "artifact"
	KeyForce      = "force"
	KeyDurationMS = "duration_ms"
	KeyDriver     = "driver"
	KeyMode       = "mode"
	KeyVariable   = "variable"
	KeyError      = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Action(a string) slog.Attr       { return slog.String(KeyAction, a) }
func Artifact(kind string) slog.Attr  { return slog.String(KeyArtifact, kind) }
func Force(f bool) slog.Attr          { return slog.Bool(KeyForce, f) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Driver(d string) slog.Attr       { return slog.String(KeyDriver, d) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Variable(name string) slog.Attr  { return slog.String(KeyVariable, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
