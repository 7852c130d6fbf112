package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sibank/internal/services/identity"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate the server signing key and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := serverPassphrase()
			if err != nil {
				return err
			}
			if !force {
				_, err := wire.Identity.Load(pass)
				switch {
				case err == nil:
					return fmt.Errorf("a server key already exists in %s (use --force to rotate)", wire.Keys.Path())
				case !errors.Is(err, identity.ErrNoIdentity):
					return err
				}
			}
			anchor, err := wire.Identity.Generate(pass)
			if err != nil {
				return err
			}
			fmt.Printf("Server key created for %q.\nFingerprint: %s\n", anchor.Identity(), anchor.Fingerprint())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing key")
	return cmd
}
