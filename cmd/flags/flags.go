package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/tee-contact-attestor/api"
	"github.com/ruteri/tee-contact-attestor/common"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		CORSAllowedOrigins:       cCtx.StringSlice(CorsOriginFlag.Name),
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// WithConfigFile lets every altsrc flag in fs be set from the YAML file named
// by --config. Values given on the command line take precedence.
func WithConfigFile(fs []cli.Flag) cli.BeforeFunc {
	return func(cCtx *cli.Context) error {
		if cCtx.String(ConfigFileFlag.Name) == "" {
			return nil
		}
		return altsrc.InitInputSourceWithContext(fs, altsrc.NewYamlSourceFromFlagFunc(ConfigFileFlag.Name))(cCtx)
	}
}

var ConfigFileFlag = &cli.StringFlag{
	Name:    "config",
	EnvVars: []string{"CONFIG_FILE"},
	Usage:   "optional YAML file providing values for the other flags",
}

var LogJsonFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
})
var LogDebugFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
})
var LogUidFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
})

var LogServiceFlagFn = func(service string) *altsrc.StringFlag {
	return altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	})
}

var PprofFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
})
var DrainSecondsFlag = altsrc.NewInt64Flag(&cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
})
var MetricsAddrFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
})
var CorsOriginFlag = altsrc.NewStringSliceFlag(&cli.StringSliceFlag{
	Name:  "cors-origin",
	Value: cli.NewStringSlice("http://localhost:3001"),
	Usage: "browser origins allowed to call the API",
})

var CommonFlags = []cli.Flag{
	ConfigFileFlag,
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
	CorsOriginFlag,
}
