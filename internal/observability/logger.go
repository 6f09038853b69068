package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ComponentLogger tags events with a component name. Each event is built
// from the current global logger, so components created before logging is
// configured still follow the configured output.
type ComponentLogger struct {
	name string
}

func Component(name string) ComponentLogger {
	return ComponentLogger{name: name}
}

// Logger returns a child of the current global logger.
func (c ComponentLogger) Logger() zerolog.Logger {
	return log.With().Str("component", c.name).Logger()
}

func (c ComponentLogger) Debug() *zerolog.Event {
	l := c.Logger()
	return l.Debug()
}

func (c ComponentLogger) Info() *zerolog.Event {
	l := c.Logger()
	return l.Info()
}

func (c ComponentLogger) Warn() *zerolog.Event {
	l := c.Logger()
	return l.Warn()
}

func (c ComponentLogger) Error() *zerolog.Event {
	l := c.Logger()
	return l.Error()
}
