// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage your business's users",
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users of your business",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
			Users   []struct {
				UID         string `json:"uid"`
				Email       string `json:"email"`
				DisplayName string `json:"displayName"`
				Role        string `json:"role"`
				BusinessID  string `json:"businessId"`
			} `json:"users"`
		}

		if err := callAPI(http.MethodGet, "/api/users/list-auth", nil, &resp); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if resp.Message != "" {
			fmt.Fprintln(os.Stderr, resp.Message)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "UID\tEMAIL\tNAME\tROLE\tBUSINESS")
		for _, u := range resp.Users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.UID, u.Email, u.DisplayName, u.Role, u.BusinessID)
		}
		w.Flush()
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create [email] [display-name] [role]",
	Short: "Create a user in your business",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{
			"email":       args[0],
			"displayName": args[1],
			"role":        args[2],
		}

		var resp struct {
			UID string `json:"uid"`
		}
		if err := callAPI(http.MethodPost, "/api/users/create", body, &resp); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("Created user %s\n", resp.UID)
		return nil
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete [uid]",
	Short: "Delete a user from your business",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := callAPI(http.MethodDelete, "/api/users/delete", map[string]string{"uid": args[0]}, nil); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		fmt.Println("User deleted")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [uid]",
	Short: "Create a password reset link for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			ResetLink string `json:"resetLink"`
		}
		if err := callAPI(http.MethodPost, "/api/users/reset-password", map[string]string{"uid": args[0]}, &resp); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}

		fmt.Println(resp.ResetLink)
		return nil
	},
}

var updateRoleCmd = &cobra.Command{
	Use:   "update-role [uid] [role]",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Message string `json:"message"`
		}
		body := map[string]string{"uid": args[0], "role": args[1]}
		if err := callAPI(http.MethodPost, "/api/users/update-role", body, &resp); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		fmt.Println(resp.Message)
		return nil
	},
}

// callAPI issues an authenticated JSON request against the admin API and
// decodes the response envelope into out.
func callAPI(method, path string, body any, out any) error {
	endpoint := strings.TrimSuffix(httpEndpoint, "/")
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "http://" + endpoint
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Message != "" {
			return fmt.Errorf("%s: %s", envelope.Error, envelope.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func init() {
	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(createUserCmd)
	usersCmd.AddCommand(deleteUserCmd)
	usersCmd.AddCommand(resetPasswordCmd)
	usersCmd.AddCommand(updateRoleCmd)

	rootCmd.AddCommand(usersCmd)
}
