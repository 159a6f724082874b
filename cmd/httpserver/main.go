package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ruteri/ra-quote-explorer/admission"
	"github.com/ruteri/ra-quote-explorer/api/clients"
	"github.com/ruteri/ra-quote-explorer/api/reporthandler"
	"github.com/ruteri/ra-quote-explorer/api/servers"
	"github.com/ruteri/ra-quote-explorer/api/uploadhandler"
	"github.com/ruteri/ra-quote-explorer/cmd/flags"
	"github.com/ruteri/ra-quote-explorer/common"
	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/ruteri/ra-quote-explorer/ledger"
	"github.com/ruteri/ra-quote-explorer/metrics"
	"github.com/ruteri/ra-quote-explorer/storage"
	"github.com/urfave/cli/v2"
)

var cliFlags = append([]cli.Flag{
	flags.ApiPrefixFlag,
	flags.RedisURLFlag,
	flags.ReportBaseURLFlag,
	flags.VerifierTimeoutFlag,
	flags.ArchiveURIFlag,
	flags.MaxRequestsFlag,
	flags.RequestWindowFlag,
	flags.MaxErrorsFlag,
	flags.ErrorWindowFlag,
	flags.BlockDurationFlag,
	flags.MaxFileSizeFlag,
	flags.AcceptHexFlag,
	flags.LegacyHostFlag,
	flags.CanonicalHostFlag,
	flags.ListenAddrFlag,
	flags.LogServiceFlagFn("ra-quote-explorer"),
}, flags.CommonFlags...)

func main() {
	if err := flags.LoadDotEnv(); err != nil {
		log.Fatal(fmt.Errorf("could not load .env: %w", err))
	}

	app := &cli.App{
		Name:   "httpserver",
		Usage:  "Serve the RA quote upload gateway in front of the attestation verification backend",
		Flags:  cliFlags,
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	limits := flags.LimitsFromFlags(cCtx)
	if err := limits.Validate(); err != nil {
		logger.Error("Invalid admission limits", "err", err)
		return err
	}

	maxFileSize := cCtx.Int(flags.MaxFileSizeFlag.Name)
	if maxFileSize <= 0 {
		return fmt.Errorf("invalid max-file-size: %d", maxFileSize)
	}

	abuseLedger, err := ledger.Open(cCtx.String(flags.RedisURLFlag.Name), logger)
	if err != nil {
		logger.Error("Failed to open abuse ledger", "err", err)
		return err
	}
	if closer, ok := abuseLedger.(io.Closer); ok {
		defer closer.Close()
	}

	pingCtx, cancel := context.WithTimeout(cCtx.Context, 5*time.Second)
	err = abuseLedger.Ping(pingCtx)
	cancel()
	if err != nil {
		logger.Error("Abuse ledger unreachable", "err", err)
		return err
	}

	cfg := flags.ConfigureServer(cCtx, logger)

	var metricsSrv *metrics.MetricsServer
	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		metricsSrv, err = metrics.New(common.MetricsNamespace, cfg.MetricsAddr)
		if err != nil {
			logger.Error("Failed to create metrics server", "err", err)
			return err
		}
		m = metricsSrv.Metrics
	}

	var archive interfaces.QuoteArchive
	if uri := strings.TrimSpace(cCtx.String(flags.ArchiveURIFlag.Name)); uri != "" {
		archive, err = storage.NewArchiveFactory(logger).ArchiveForList(uri)
		if err != nil {
			logger.Error("Failed to create quote archive", "err", err)
			return err
		}
		if !archive.Available(cCtx.Context) {
			logger.Warn("Quote archive is not reachable, admitted quotes may not be archived", "location", archive.LocationURI())
		}
		logger.Info("Archiving admitted quotes", "backend", archive.Name())
	}

	apiPrefix := cCtx.String(flags.ApiPrefixFlag.Name)
	verifier := clients.NewVerifierClient(apiPrefix, cCtx.Duration(flags.VerifierTimeoutFlag.Name))
	logger.Info("Using verification backend", "apiPrefix", apiPrefix)

	gate := admission.NewGate(abuseLedger, limits, logger)
	uploads := uploadhandler.NewHandler(gate, verifier, archive, m, uploadhandler.Config{
		MaxFileSize:   maxFileSize,
		AcceptHex:     cCtx.Bool(flags.AcceptHexFlag.Name),
		ReportBaseURL: cCtx.String(flags.ReportBaseURLFlag.Name),
	}, logger)
	reports := reporthandler.NewHandler(verifier, archive, m, logger)

	server, err := servers.New(cfg, metricsSrv, abuseLedger.Ping, uploads, reports)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}
