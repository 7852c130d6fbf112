package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sibank/internal/domain"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your transactions, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := signIn(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			txs, err := c.GetTransactions(cmd.Context())
			if err != nil {
				return err
			}
			printHistory(c.State().AccountID(), txs)
			return nil
		},
	}
	userFlags(cmd)
	return cmd
}

func printHistory(me domain.AccountID, txs []domain.Transaction) {
	if len(txs) == 0 {
		fmt.Println("No transactions.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFROM\tTO\tAMOUNT")
	for _, tx := range txs {
		amount := tx.Amount
		if tx.From.AccountID == me {
			amount = -amount
		}
		fmt.Fprintf(tw, "%s\t%s (%s)\t%s (%s)\t%+d\n",
			tx.Date.Local().Format(time.DateTime),
			tx.From.Name, tx.From.AccountID,
			tx.To.Name, tx.To.AccountID,
			amount)
	}
	_ = tw.Flush()
}
