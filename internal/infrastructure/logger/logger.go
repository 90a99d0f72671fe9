package logger

import (
	"os"
	"strings"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"

	// registers the "logfmt" encoder
	_ "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
)

// New builds the service logger. Unknown levels fall back to info,
// unknown formats to logfmt.
func New(service string, cfg *config.StkPushConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	switch strings.ToLower(cfg.LogConfig.LogFormat) {
	case "json":
		zc.Encoding = "json"
	case "console":
		zc.Encoding = "console"
	default:
		zc.Encoding = "logfmt"
	}

	if err := zc.Level.UnmarshalText([]byte(cfg.LogConfig.LogLevel)); err != nil {
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	output := cfg.LogConfig.LogOutput
	if output == "" {
		output = "stdout"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	zc.InitialFields = make(map[string]any)
	zc.InitialFields["host"], _ = os.Hostname()
	zc.InitialFields["service"] = service
	zc.InitialFields["env"] = cfg.Env

	return zc.Build()
}
