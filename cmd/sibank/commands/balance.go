package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Balance operations",
	}
	add := &cobra.Command{
		Use:   "add <amount>",
		Short: "Credit your own account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			c, done, err := signIn(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			balance, ok, err := c.AddBalance(cmd.Context(), amount)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("credit rejected")
			}
			fmt.Printf("Balance: %d\n", balance)
			return nil
		},
	}
	userFlags(add)
	cmd.AddCommand(add)
	return cmd
}
