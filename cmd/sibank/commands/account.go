package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sibank/internal/domain"
	"sibank/internal/services/client"
)

var (
	username string
	password string
)

var errBadCredentials = errors.New("invalid username or password")

func userFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&username, "username", "u", "", "your username")
	cmd.Flags().StringVar(&password, "password", "", "your password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
}

func userPassword() (string, error) {
	if password != "" {
		return password, nil
	}
	return prompt("Password: ")
}

// signIn opens a session and signs in with the --username flag.
func signIn(ctx context.Context) (*client.Client, func(), error) {
	pw, err := userPassword()
	if err != nil {
		return nil, nil, err
	}
	c, done, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	u, err := c.SignIn(ctx, domain.Username(username), pw)
	if err == nil && u == nil {
		err = errBadCredentials
	}
	if err != nil {
		done()
		return nil, nil, err
	}
	return c, done, nil
}

func printUser(u *domain.User) {
	fmt.Printf("Account: %s\nName:    %s\nBalance: %d\n", u.AccountID, u.Name, u.Balance)
}

func signupCmd() *cobra.Command {
	var accountID, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Open an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := userPassword()
			if err != nil {
				return err
			}
			c, done, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			ok, err := c.SignUp(cmd.Context(), domain.User{
				AccountID: domain.AccountID(accountID),
				Username:  domain.Username(username),
				Password:  pw,
				Name:      name,
			})
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("sign-up rejected: account id or username taken, or invalid input")
			}
			printUser(c.State().User)
			return nil
		},
	}
	userFlags(cmd)
	cmd.Flags().StringVar(&accountID, "account-id", "", "account id to open")
	cmd.Flags().StringVar(&name, "name", "", "account holder name")
	_ = cmd.MarkFlagRequired("account-id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func signinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Check credentials and show the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := signIn(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			printUser(c.State().User)
			return nil
		},
	}
	userFlags(cmd)
	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account lookups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <account-id>",
		Short: "Show the holder name of an account id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			name, ok, err := c.CheckAccountID(cmd.Context(), domain.AccountID(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no account %s", args[0])
			}
			fmt.Println(name)
			return nil
		},
	})
	return cmd
}
