package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyPhase     = "phase"
	KeyFrom      = "from"
	KeyTo        = "to"
	KeySessionID = "session_id"
	KeySession   = "session_name"
	KeyRemaining = "remaining_s"
	KeyKind      = "kind"
	KeyGen       = "generation"
	KeyPath      = "path"
	KeyError     = "error"
)

func Phase(p string) slog.Attr { return slog.String(KeyPhase, p) }
func From(p string) slog.Attr { return slog.String(KeyFrom, p) }
func To(p string) slog.Attr { return slog.String(KeyTo, p) }
func SessionID(id string) slog.Attr { return slog.String(KeySessionID, id) }
func Session(name string) slog.Attr { return slog.String(KeySession, name) }
func Remaining(s int) slog.Attr { return slog.Int(KeyRemaining, s) }
func Kind(k string) slog.Attr { return slog.String(KeyKind, k) }
func Generation(g uint64) slog.Attr { return slog.Uint64(KeyGen, g) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
