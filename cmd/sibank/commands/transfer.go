package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sibank/internal/domain"
)

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <to-account-id> <amount>",
		Short: "Send money to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := domain.AccountID(args[0])
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			c, done, err := signIn(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			name, ok, err := c.CheckAccountID(cmd.Context(), to)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no account %s", to)
			}
			ok, err = c.DoTransaction(cmd.Context(), to, amount)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("transfer rejected")
			}
			fmt.Printf("Sent %d to %s (%s).\n", amount, name, to)
			printUser(c.State().User)
			return nil
		},
	}
	userFlags(cmd)
	return cmd
}
