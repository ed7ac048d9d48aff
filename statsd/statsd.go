// Package statsd wraps the metric and trace emission used around ticks. It
// hides the datadog dependency so a future backend change stays inside this
// file; with no addresses configured every emission is a no-op.
package statsd

import (
	"strings"
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

var (
	client  ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}
	tracing bool
)

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitTickStat emits the elapsed time of one tick stage.
func EmitTickStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("tick", duration, []string{"stage:" + stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit tick stat: %v", err)
	}
}

// EmitSystemStat emits the run duration of a single system.
func EmitSystemStat(start time.Time, system string) {
	duration := time.Since(start)
	err := Client().Timing("system", duration, []string{"system:" + system}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit system stat: %v", err)
	}
}

// Init dials the statsd client and, when traceAddress is set, starts the
// tracer. Tags are "key:value" strings applied to both.
func Init(statsdAddress, traceAddress string, tags []string) error {
	if statsdAddress == "" && traceAddress == "" {
		return eris.New("at least one of the statsd and trace addresses must be set")
	}
	if statsdAddress != "" {
		opts := []ddstatsd.Option{
			// The statsd namespace is the prefix of all metrics.
			ddstatsd.WithNamespace("fragment"),
		}
		if len(tags) > 0 {
			opts = append(opts, ddstatsd.WithTags(tags))
		}
		newClient, err := ddstatsd.New(statsdAddress, opts...)
		if err != nil {
			return eris.Wrap(err, "failed to dial statsd")
		}
		client = newClient
	}
	if traceAddress != "" {
		opts := []tracer.StartOption{
			tracer.WithAgentAddr(traceAddress),
			tracer.WithService("fragment"),
		}
		for _, tag := range tags {
			if key, value, ok := strings.Cut(tag, ":"); ok {
				opts = append(opts, tracer.WithGlobalTag(key, value))
			}
		}
		tracer.Start(opts...)
		tracing = true
	}
	return nil
}

// Close flushes and discards the client and stops the tracer.
func Close() error {
	if tracing {
		tracer.Stop()
		tracing = false
	}
	err := client.Close()
	client = &ddstatsd.NoOpClient{}
	if err != nil {
		return eris.Wrap(err, "failed to close statsd client")
	}
	return nil
}
