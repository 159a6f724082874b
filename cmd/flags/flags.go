package flags

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/ruteri/ra-quote-explorer/admission"
	"github.com/ruteri/ra-quote-explorer/api"
	"github.com/ruteri/ra-quote-explorer/common"
	"github.com/ruteri/ra-quote-explorer/upload"
	"github.com/urfave/cli/v2"
)

// LoadDotEnv loads environment files into the process environment before
// flags are parsed. Variables already set take precedence and missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

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

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		LegacyHost:               cCtx.String(LegacyHostFlag.Name),
		CanonicalHost:            cCtx.String(CanonicalHostFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             cCtx.Duration(VerifierTimeoutFlag.Name) + 30*time.Second,
	}
}

// LimitsFromFlags reads the admission limits. Unset flags keep the defaults.
func LimitsFromFlags(cCtx *cli.Context) admission.Limits {
	return admission.Limits{
		MaxRequestsPerWindow: cCtx.Int(MaxRequestsFlag.Name),
		RequestWindow:        cCtx.Duration(RequestWindowFlag.Name),
		MaxErrors:            cCtx.Int(MaxErrorsFlag.Name),
		ErrorWindow:          cCtx.Duration(ErrorWindowFlag.Name),
		BlockDuration:        cCtx.Duration(BlockDurationFlag.Name),
	}
}

var ApiPrefixFlag = &cli.StringFlag{
	Name:     "api-prefix",
	EnvVars:  []string{"API_PREFIX"},
	Required: true,
	Usage:    "base URL of the attestation verification backend",
}

var RedisURLFlag = &cli.StringFlag{
	Name:     "redis-url",
	EnvVars:  []string{"REDIS_URL"},
	Required: true,
	Usage:    "abuse ledger location, redis://[user:pass@]host:port/db or memory:// for local development",
}

var ReportBaseURLFlag = &cli.StringFlag{
	Name:    "report-base-url",
	EnvVars: []string{"REPORT_BASE_URL"},
	Value:   "https://proof.t16z.com/reports",
	Usage:   "prefix of the report url added to verification results",
}

var VerifierTimeoutFlag = &cli.DurationFlag{
	Name:    "verifier-timeout",
	EnvVars: []string{"VERIFIER_TIMEOUT"},
	Value:   30 * time.Second,
	Usage:   "timeout of requests to the verification backend",
}

var ArchiveURIFlag = &cli.StringFlag{
	Name:    "archive-uri",
	EnvVars: []string{"ARCHIVE_URI"},
	Usage:   "comma-separated quote archive locations (file://, s3://, ipfs://); empty disables archiving",
}

var MaxRequestsFlag = &cli.IntFlag{
	Name:    "max-requests",
	EnvVars: []string{"MAX_REQUESTS_PER_WINDOW"},
	Value:   admission.DefaultLimits().MaxRequestsPerWindow,
	Usage:   "submissions admitted per client per request window",
}

var RequestWindowFlag = &cli.DurationFlag{
	Name:    "request-window",
	EnvVars: []string{"REQUEST_WINDOW"},
	Value:   admission.DefaultLimits().RequestWindow,
	Usage:   "length of the request rate window",
}

var MaxErrorsFlag = &cli.IntFlag{
	Name:    "max-errors",
	EnvVars: []string{"MAX_ERRORS_PER_IP"},
	Value:   admission.DefaultLimits().MaxErrors,
	Usage:   "validation errors per error window before a client is blocked",
}

var ErrorWindowFlag = &cli.DurationFlag{
	Name:    "error-window",
	EnvVars: []string{"ERROR_WINDOW"},
	Value:   admission.DefaultLimits().ErrorWindow,
	Usage:   "length of the validation error window",
}

var BlockDurationFlag = &cli.DurationFlag{
	Name:    "block-duration",
	EnvVars: []string{"BLOCK_DURATION"},
	Value:   admission.DefaultLimits().BlockDuration,
	Usage:   "how long a blocked client stays blocked",
}

var MaxFileSizeFlag = &cli.IntFlag{
	Name:    "max-file-size",
	EnvVars: []string{"MAX_FILE_SIZE"},
	Value:   upload.DefaultMaxFileSize,
	Usage:   "largest accepted quote in bytes",
}

var AcceptHexFlag = &cli.BoolFlag{
	Name:    "accept-hex",
	EnvVars: []string{"ACCEPT_HEX"},
	Value:   true,
	Usage:   "accept hex encoded quotes in the 'hex' form field",
}

var LegacyHostFlag = &cli.StringFlag{
	Name:    "legacy-host",
	EnvVars: []string{"LEGACY_HOST"},
	Usage:   "retired host name whose page requests are redirected to --canonical-host",
}

var CanonicalHostFlag = &cli.StringFlag{
	Name:    "canonical-host",
	EnvVars: []string{"CANONICAL_HOST"},
	Usage:   "host name legacy page requests are redirected to",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	EnvVars: []string{"LISTEN_ADDR"},
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:    "metrics-addr",
	EnvVars: []string{"METRICS_ADDR"},
	Value:   "127.0.0.1:8090",
	Usage:   "address to listen on for Prometheus metrics, empty disables the metrics server",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
