package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ruteri/tee-contact-attestor/api/attestationhandler"
	"github.com/ruteri/tee-contact-attestor/api/contactshandler"
	"github.com/ruteri/tee-contact-attestor/cmd/flags"
	"github.com/ruteri/tee-contact-attestor/contacts"
	"github.com/ruteri/tee-contact-attestor/intent"
	"github.com/urfave/cli/v2"
)

var flagEnclaveAddr = &cli.StringFlag{
	Name:  "enclave-addr",
	Value: "http://127.0.0.1:3000",
	Usage: "enclave server address",
}

var flagFile = &cli.StringFlag{
	Name:  "file",
	Value: "-",
	Usage: "CSV file to upload, '-' for stdin",
}

var flagMaxAge = &cli.DurationFlag{
	Name:  "max-age",
	Usage: "reject envelopes whose timestamp is further than this from local time. Zero disables the check",
}

var flagAllowDummy = &cli.BoolFlag{
	Name:  "allow-dummy-attestation",
	Usage: "accept a dummy attestation, for local testing only",
}

var flagExpectPubkey = &cli.StringFlag{
	Name:  "expect-pubkey",
	Usage: "hex-encoded public key the enclave must have attested",
}

func main() {
	app := &cli.App{
		Name:  "contacts-client",
		Usage: "Upload contacts to the enclave and verify its signed answers",
		Flags: []cli.Flag{
			flagEnclaveAddr,
			flagAllowDummy,
			flagExpectPubkey,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
			flags.LogServiceFlagFn("contacts-client"),
		},
		Commands: []*cli.Command{
			{
				Name:  "attestation",
				Usage: "fetch and verify the enclave attestation, print the attested key and measurements",
				Action: func(cCtx *cli.Context) error {
					attested, err := attestedKey(cCtx, flags.SetupLogger(cCtx))
					if err != nil {
						return err
					}
					return printJSON(map[string]any{
						"public_key":       hex.EncodeToString(attested.PublicKey),
						"signature_scheme": attested.SignatureScheme,
						"attestation_type": attested.AttestationType.String(),
						"measurements":     attested.Measurements,
					})
				},
			},
			{
				Name:  "process",
				Usage: "upload a CSV file and print the verified signed batch",
				Flags: []cli.Flag{flagFile, flagMaxAge},
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)

					csv, err := readInput(cCtx.String(flagFile.Name))
					if err != nil {
						return err
					}

					attested, err := attestedKey(cCtx, logger)
					if err != nil {
						return err
					}

					env, err := contactshandler.ProcessData(cCtx.String(flagEnclaveAddr.Name), csv)
					if err != nil {
						return err
					}

					err = intent.Verify(env, intent.VerifyOptions{
						Scope:     intent.ScopeProcessData,
						PublicKey: attested.PublicKey,
						MaxAge:    cCtx.Duration(flagMaxAge.Name),
					})
					if err != nil {
						return err
					}

					logger.Debug("Verified signed batch", "records", len(env.Payload.Contacts), "timestampMs", env.TimestampMs)
					return printJSON(env)
				},
			},
			{
				Name:      "phone-hash",
				Usage:     "ask the enclave for the signed digest of a phone number",
				ArgsUsage: "<phone>",
				Flags:     []cli.Flag{flagMaxAge},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return cli.Exit("expected exactly one phone number", 1)
					}
					logger := flags.SetupLogger(cCtx)

					attested, err := attestedKey(cCtx, logger)
					if err != nil {
						return err
					}

					env, err := contactshandler.PhoneHash(cCtx.String(flagEnclaveAddr.Name), cCtx.Args().First())
					if err != nil {
						return err
					}

					err = intent.Verify(env, intent.VerifyOptions{
						Scope:     intent.ScopePhoneDigest,
						PublicKey: attested.PublicKey,
						MaxAge:    cCtx.Duration(flagMaxAge.Name),
					})
					if err != nil {
						return err
					}
					return printJSON(env)
				},
			},
			{
				Name:      "hash",
				Usage:     "compute a phone digest locally, to match against enclave output",
				ArgsUsage: "<phone>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return cli.Exit("expected exactly one phone number", 1)
					}
					digest, err := contacts.DigestPhone(cCtx.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(hex.EncodeToString(digest[:]))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func attestedKey(cCtx *cli.Context, logger *slog.Logger) (*attestationhandler.AttestedKey, error) {
	attResp, err := attestationhandler.GetAttestation(cCtx.String(flagEnclaveAddr.Name))
	if err != nil {
		return nil, err
	}

	attested, err := attestationhandler.VerifyAttestation(attResp, cCtx.Bool(flagAllowDummy.Name))
	if err != nil {
		return nil, err
	}

	if expected := cCtx.String(flagExpectPubkey.Name); expected != "" {
		if expected != hex.EncodeToString(attested.PublicKey) {
			return nil, attestationhandler.ErrUnexpectedKey
		}
	}

	logger.Debug("Verified enclave attestation", "attestationType", attested.AttestationType, "scheme", attested.SignatureScheme)
	return attested, nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
