package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sibank/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the server key fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := serverPassphrase()
			if err != nil {
				return err
			}
			if !full {
				fp, err := wire.Identity.Fingerprint(pass)
				if err != nil {
					return err
				}
				fmt.Printf("Fingerprint: %s\n", fp)
				return nil
			}
			anchor, err := wire.Identity.Load(pass)
			if err != nil {
				return err
			}
			cert := anchor.Certificate()
			fmt.Printf("Identity:    %s\nFingerprint: %s\nPublic key:  %s\nSignature:   %s\n",
				anchor.Identity(), anchor.Fingerprint(), crypto.Hex(cert.PublicKey), crypto.Hex(cert.Signature))
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "also print the certificate key and signature")
	return cmd
}
