package main

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const secretBytes = 32

// NewSecretCmd creates the secret subcommand, which prints a value suitable for JWT_SECRET.
func NewSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Print a random token signing secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := generateSecret(rand.Reader)
			if err != nil {
				return err
			}
			cmd.Println(secret)
			return nil
		},
	}
}

func generateSecret(r io.Reader) (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", oops.Code("SECRET_GENERATION_FAILED").Wrapf(err, "read random bytes")
	}
	return hex.EncodeToString(buf), nil
}
