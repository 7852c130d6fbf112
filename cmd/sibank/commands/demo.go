package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sibank/internal/app"
	"sibank/internal/config"
	"sibank/internal/domain"
	"sibank/internal/protocol/trust"
	"sibank/internal/services/client"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the two-user walkthrough on a scratch ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.MkdirTemp("", "sibank-demo-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
			return runDemo(cmd.Context(), dir)
		},
	}
}

func runDemo(ctx context.Context, dir string) error {
	scratch := *cfg
	scratch.DataDir = dir
	scratch.Server.KeyDir = dir
	scratch.Ledger = config.Ledger{Backend: config.BackendBolt, Path: filepath.Join(dir, "ledger.db")}
	scratch.Throttle.Backend = config.ThrottleMemory
	scratch.Metrics.Enable = false

	w, err := app.NewWire(ctx, &scratch, app.Options{})
	if err != nil {
		return err
	}
	defer w.Close()

	anchor, err := trust.Generate(scratch.Server.Identity)
	if err != nil {
		return err
	}
	fmt.Printf("server %q, fingerprint %s\n", anchor.Identity(), anchor.Fingerprint())
	a := app.New(w, anchor)
	defer a.Wait()

	alice, aliceSession, err := a.Connect(ctx)
	if err != nil {
		return err
	}
	defer closeSession(aliceSession)
	bob, bobSession, err := a.Connect(ctx)
	if err != nil {
		return err
	}
	defer closeSession(bobSession)

	steps := []struct {
		name string
		run  func() error
	}{
		{"alice signs up as account 1001", func() error {
			return expectOK(alice.SignUp(ctx, domain.User{AccountID: "1001", Username: "alice", Password: "alice-pw", Name: "Alice"}))
		}},
		{"bob signs up as account 2002", func() error {
			return expectOK(bob.SignUp(ctx, domain.User{AccountID: "2002", Username: "bob", Password: "bob-pw", Name: "Bob"}))
		}},
		{"alice adds 100", func() error {
			_, ok, err := alice.AddBalance(ctx, 100)
			return expectOK(ok, err)
		}},
		{"alice looks up 2002", func() error {
			name, ok, err := alice.CheckAccountID(ctx, "2002")
			if err := expectOK(ok, err); err != nil {
				return err
			}
			fmt.Printf("    2002 belongs to %s\n", name)
			return nil
		}},
		{"alice sends 30 to bob", func() error {
			return expectOK(alice.DoTransaction(ctx, "2002", 30))
		}},
		{"bob refreshes", func() error {
			_, err := bob.Refresh(ctx)
			return err
		}},
	}
	for i, s := range steps {
		fmt.Printf("%d. %s\n", i+1, s.name)
		if err := s.run(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	for _, c := range []*client.Client{alice, bob} {
		u := c.State().User
		fmt.Printf("\n%s (%s) balance %d\n", u.Name, u.AccountID, u.Balance)
		txs, err := c.GetTransactions(ctx)
		if err != nil {
			return err
		}
		printHistory(u.AccountID, txs)
	}
	return nil
}

func expectOK(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("rejected")
	}
	return nil
}
