package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/identity"
)

func registerParams() api.RegisterParams {
	return api.RegisterParams{Username: authUsername, Password: authPassword, Email: authEmail}
}

var (
	authUsername string
	authPassword string
	authEmail    string
)

// loginCmd exchanges credentials for a token and stores the session.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authUsername == "" || authPassword == "" {
			return fmt.Errorf("both --username and --password are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		csrf, err := a.API.Csrf(ctx)
		if err != nil {
			return err
		}
		token, err := a.API.CreateToken(ctx, authUsername, authPassword, csrf)
		if err != nil {
			return err
		}

		a.Session.Login(token, identity.Identity{Username: authUsername})
		fmt.Printf("logged in as %s\n", authUsername)
		return nil
	},
}

// registerCmd creates a new account. It does not log in.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authUsername == "" || authPassword == "" {
			return fmt.Errorf("both --username and --password are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		csrf, err := a.API.Csrf(ctx)
		if err != nil {
			return err
		}
		if err := a.API.Register(ctx, registerParams(), csrf); err != nil {
			return err
		}

		fmt.Printf("account %s created, run 'konnect login' next\n", authUsername)
		return nil
	},
}

// logoutCmd drops the stored session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Session.Logout()
		fmt.Println("logged out")
		return nil
	},
}

// whoamiCmd prints the restored session, if any.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		cred := a.Session.Credential()
		if !cred.Present() {
			fmt.Println("not logged in")
			return nil
		}

		fmt.Printf("username: %s\n", cred.Identity.Username)
		if cred.Identity.UserID != "" {
			fmt.Printf("user id:  %s\n", cred.Identity.UserID)
		}
		if cred.Identity.Email != "" {
			fmt.Printf("email:    %s\n", cred.Identity.Email)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVarP(&authUsername, "username", "u", "", "account username")
		cmd.Flags().StringVarP(&authPassword, "password", "p", "", "account password")
	}
	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email (optional)")
}
