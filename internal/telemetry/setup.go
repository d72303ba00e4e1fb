package telemetry

import (
	"context"
	"fmt"

	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/internal/history"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/psantana5/capctl/pkg/shutdown"
	"github.com/psantana5/capctl/pkg/tracing"
)

// Setup builds the recorder for cfg and registers whatever needs flushing or
// closing with sd. Sinks that cannot be initialised are skipped with a DEBUG
// log line; Setup itself never fails.
func Setup(ctx context.Context, cfg *config.Config, logger *logging.Logger, sd *shutdown.Manager) *Recorder {
	logger = logger.WithField("component", "telemetry")
	machine := MachineID()

	var sinks []Sink
	var env Environment

	if cfg.Telemetry.Enabled {
		env = DetectEnvironment(ctx)

		if cfg.Telemetry.Endpoint != "" {
			sinks = append(sinks, NewHTTPSink(cfg.Telemetry.Endpoint, nil))
		}

		if cfg.Telemetry.OTLPEndpoint != "" {
			provider, err := tracing.InitTracer(ctx, tracing.Config{
				ServiceName:    cfg.CLI.Name,
				ServiceVersion: cfg.CLI.Version,
				Environment:    env.OS,
				OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
				Insecure:       cfg.Telemetry.OTLPInsecure,
				Enabled:        true,
			})
			if err != nil {
				logger.Debug(fmt.Sprintf("tracing disabled: %v", err))
			} else {
				sinks = append(sinks, NewSpanSink(provider))
			}
		}

		if cfg.Telemetry.Textfile != "" || cfg.Telemetry.Pushgateway != "" {
			sinks = append(sinks, NewMetricsSink(MetricsOptions{
				Textfile:    cfg.Telemetry.Textfile,
				Pushgateway: cfg.Telemetry.Pushgateway,
				Instance:    machine,
			}))
		}
	}

	// Local history is not usage reporting and has its own switch.
	if cfg.History.DSN != "" {
		store, err := history.Open(ctx, cfg.History.DSN)
		if err != nil {
			logger.Debug(fmt.Sprintf("history disabled: %v", err))
		} else {
			sinks = append(sinks, NewHistorySink(store))
			sd.Register("history", shutdown.CloseResource(store, "history"))
		}
	}

	sink := Multi(sinks...)
	if f, ok := sink.(Flusher); ok {
		sd.Register("telemetry", f.Flush)
	}

	logger.Debug(fmt.Sprintf("telemetry ready with %d sink(s)", len(sinks)))
	return NewRecorder(sink, logger, WithEnvironment(env), WithMachineID(machine))
}
