package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/ra-quote-explorer/api/mockverifier"
	"github.com/ruteri/ra-quote-explorer/api/servers"
	"github.com/ruteri/ra-quote-explorer/cmd/flags"
	"github.com/urfave/cli/v2"
)

var verifyCollateralFlag = &cli.BoolFlag{
	Name:  "verify-collateral",
	Value: false,
	Usage: "verify TDX quotes against Intel PCS collateral (needs network access)",
}

func main() {
	app := &cli.App{
		Name:  "mock-verifier",
		Usage: "Serve an in-memory stand-in for the attestation verification backend",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  flags.ListenAddrFlag.Name,
				Value: "127.0.0.1:9000",
				Usage: "address to listen on for API",
			},
			verifyCollateralFlag,
			flags.LogServiceFlagFn("mock-verifier"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger)

			handler := mockverifier.NewHandler(cCtx.Bool(verifyCollateralFlag.Name), logger)
			server, err := servers.New(cfg, nil, nil, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit

			server.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
