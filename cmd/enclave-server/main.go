package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/tee-contact-attestor/api/attestationhandler"
	"github.com/ruteri/tee-contact-attestor/api/contactshandler"
	"github.com/ruteri/tee-contact-attestor/api/server"
	"github.com/ruteri/tee-contact-attestor/cmd/flags"
	"github.com/ruteri/tee-contact-attestor/cryptoutils"
	"github.com/ruteri/tee-contact-attestor/enclave"
	"github.com/ruteri/tee-contact-attestor/intent"
	"github.com/ruteri/tee-contact-attestor/kms"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

var ListenAddrFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "listen-addr",
	Value: "0.0.0.0:3000",
	Usage: "address to listen on for API",
})
var MaxBodyBytesFlag = altsrc.NewInt64Flag(&cli.Int64Flag{
	Name:  "max-body-bytes",
	Value: contactshandler.DefaultMaxBodyBytes,
	Usage: "reject request bodies larger than this",
})
var SignatureSchemeFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "signature-scheme",
	Value: kms.SchemeEd25519,
	Usage: fmt.Sprintf("ephemeral signing key algorithm, one of %v", kms.SupportedSchemes),
})
var AttestationTypeFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "attestation-type",
	Value: "dummy",
	Usage: "how to attest the signing key: 'dummy', 'dcap' (local TDX guest) or 'remote' (quote provider over HTTP)",
})
var RemoteAttestationProviderFlag = altsrc.NewStringFlag(&cli.StringFlag{
	Name:  "remote-attestation-provider",
	Value: "http://127.0.0.1:8080",
	Usage: "quote provider base URL, used with --attestation-type=remote",
})

var serverFlags = append([]cli.Flag{
	ListenAddrFlag,
	MaxBodyBytesFlag,
	SignatureSchemeFlag,
	AttestationTypeFlag,
	RemoteAttestationProviderFlag,
	flags.LogServiceFlagFn("enclave"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:   "enclave-server",
		Usage:  "Hash and sign contact lists inside a TEE",
		Flags:  serverFlags,
		Before: flags.WithConfigFile(serverFlags),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			attester, err := newAttestationProvider(cCtx.String(AttestationTypeFlag.Name), cCtx.String(RemoteAttestationProviderFlag.Name))
			if err != nil {
				logger.Error("Failed to configure attestation", "err", err)
				return err
			}

			// The key lives only in this process; a restart produces a new
			// key that must be attested again.
			signer, err := kms.NewEphemeralKey(cCtx.String(SignatureSchemeFlag.Name))
			if err != nil {
				logger.Error("Failed to generate signing key", "err", err)
				return err
			}
			logger.Info("Generated ephemeral signing key", "scheme", signer.Scheme(), "attestationType", attester.AttestationType())

			processor := enclave.NewProcessor(signer, intent.SystemClock{})

			srv, err := server.New(
				flags.ConfigureServer(cCtx, logger, cCtx.String(ListenAddrFlag.Name)),
				attestationhandler.NewHandler(signer, attester, logger),
				contactshandler.NewHandler(processor, cCtx.Int64(MaxBodyBytesFlag.Name), logger),
			)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			srv.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newAttestationProvider(attestationType, remoteAddr string) (cryptoutils.AttestationProvider, error) {
	switch attestationType {
	case "dummy":
		return cryptoutils.DummyAttestationProvider{}, nil
	case "dcap":
		return cryptoutils.DCAPAttestationProvider{}, nil
	case "remote":
		return &cryptoutils.RemoteAttestationProvider{Address: remoteAddr}, nil
	default:
		return nil, fmt.Errorf("unsupported attestation type %q", attestationType)
	}
}
