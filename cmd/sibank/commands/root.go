package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sibank/internal/app"
	"sibank/internal/config"
	"sibank/internal/services/client"
	"sibank/internal/services/session"
)

var (
	configPath string
	home       string
	passphrase string

	cfg  *config.Config
	wire *app.Wire
)

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:          "sibank",
		Short:        "Simple internet banking over an authenticated encrypted channel",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
				return err
			}
			wire, err = app.NewWire(cmd.Context(), cfg, app.Options{})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.sibank)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the server key")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		signupCmd(),
		signinCmd(),
		balanceCmd(),
		accountCmd(),
		transferCmd(),
		historyCmd(),
		demoCmd(),
	)
	return root.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	var b []byte
	if configPath != "" {
		var err error
		if b, err = os.ReadFile(configPath); err != nil {
			return nil, err
		}
	}
	c, err := config.Parse(b)
	if err != nil {
		return nil, err
	}
	if home != "" {
		c.DataDir = home
	}
	if err := c.FixupAndValidate(); err != nil {
		return nil, err
	}
	return c, nil
}

// serverPassphrase resolves the key passphrase from the flag, the
// configured environment variable or the terminal, in that order.
func serverPassphrase() (string, error) {
	if passphrase != "" {
		return passphrase, nil
	}
	if p, ok := cfg.Passphrase(); ok && p != "" {
		return p, nil
	}
	return prompt("Server key passphrase: ")
}

func prompt(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal: pass the secret by flag or environment")
	}
	fmt.Fprint(os.Stderr, label)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("password cannot be empty")
	}
	s := string(raw)
	clear(raw)
	return s, nil
}

// connect loads the server key, starts the server endpoint and opens a
// client session to it. The returned func closes the session and waits for
// the server side to finish.
func connect(ctx context.Context) (*client.Client, func(), error) {
	pass, err := serverPassphrase()
	if err != nil {
		return nil, nil, err
	}
	anchor, err := wire.Identity.Load(pass)
	if err != nil {
		return nil, nil, err
	}
	a := app.New(wire, anchor)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		if err := a.ServeMetrics(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "metrics: %v\n", err)
		}
	}()

	c, sess, err := a.Connect(ctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return c, func() { closeSession(sess); a.Wait(); cancel() }, nil
}

func closeSession(s *session.Client) {
	if err := s.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close session: %v\n", err)
	}
}
