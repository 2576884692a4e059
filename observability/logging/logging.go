package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

const levelEnv = "CURIO_LOG_LEVEL"

// Setup installs a JSON slog handler as the process default and returns it.
// Every line carries the service name, and the environment when provided.
// Values under credential-looking attribute keys are masked before they
// reach the sink. The level comes from CURIO_LOG_LEVEL; default is info.
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "timestamp"
			case slog.LevelKey:
				attr = slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "message"
			default:
				attr = maskAttr(attr)
			}
			return attr
		},
	})

	base := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		base = append(base, slog.String("env", env))
	}
	tagged := handler.WithAttrs(base)

	logger := slog.New(tagged)
	slog.SetDefault(logger)

	// Route the standard library logger through the same handler so no
	// package writes unstructured lines beside the JSON stream.
	bridge := slog.NewLogLogger(tagged, slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(levelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
