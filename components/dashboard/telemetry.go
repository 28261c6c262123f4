package dashboard

import (
	"context"

	"github.com/rs/zerolog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// LogTelemetry writes telemetry events as debug log lines.
type LogTelemetry struct {
	Logger zerolog.Logger
}

// Record implements Telemetry.
func (t LogTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.Logger.Debug().Str("event", event).Fields(payload).Msg("dashboard telemetry")
}
