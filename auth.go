package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
	"github.com/buzzheavier/buzzheavier-go/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <account-id>",
		Short: "Authenticate with an account ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated account and storage quota",
		RunE:  runWhoami,
	}
}

func newLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the server's storage locations",
		RunE:  runLocations,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	acct, err := a.sess.Login(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredential) {
			return fmt.Errorf("login failed: invalid account ID")
		}

		return fmt.Errorf("login failed: %w", err)
	}

	statusf("Logged in as %s.\n", acct.ID)

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.sess.Logout(); err != nil {
		return err
	}

	statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	Plan         string `json:"plan,omitempty"`
	StorageUsed  uint64 `json:"storage_used,omitempty"`
	StorageTotal uint64 `json:"storage_total,omitempty"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	acct, err := a.client.Account(cmd.Context())
	if err != nil {
		return friendlyErr(err)
	}

	if flagJSON {
		out := whoamiOutput{
			ID:    acct.ID,
			Email: acct.Email,
			Plan:  acct.Plan,
		}
		if acct.Storage != nil {
			out.StorageUsed = acct.Storage.Used
			out.StorageTotal = acct.Storage.Total
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	printAccountText(acct)

	return nil
}

func printAccountText(acct *api.Account) {
	fmt.Printf("Account: %s\n", acct.ID)

	if acct.Email != "" {
		fmt.Printf("Email:   %s\n", acct.Email)
	}

	if acct.Plan != "" {
		fmt.Printf("Plan:    %s\n", acct.Plan)
	}

	if acct.Storage != nil {
		fmt.Printf("Storage: %s / %s\n",
			formatSize(acct.Storage.Used),
			formatSize(acct.Storage.Total),
		)
	}
}

func runLocations(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	locations, err := a.client.Locations(cmd.Context())
	if err != nil {
		return friendlyErr(err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(locations)
	}

	rows := make([][]string, 0, len(locations))
	for _, loc := range locations {
		rows = append(rows, []string{loc.ID, loc.Name, loc.Country})
	}

	printTable(os.Stdout, []string{"ID", "NAME", "COUNTRY"}, rows)

	return nil
}
