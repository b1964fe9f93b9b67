package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Server    string    `json:"server"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// usableFor reports whether the stored token belongs to server and has not expired.
func (c *credentials) usableFor(server string) bool {
	return c.Token != "" &&
		strings.TrimSuffix(c.Server, "/") == strings.TrimSuffix(server, "/") &&
		time.Now().Before(c.ExpiresAt)
}

// prompt reads one line from in after printing label, unless value is already set.
func prompt(cmd *cobra.Command, in *bufio.Reader, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), label+": ")
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func newRegisterCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username, err = prompt(cmd, in, "Username", username); err != nil {
				return err
			}
			if email, err = prompt(cmd, in, "Email", email); err != nil {
				return err
			}
			if password, err = prompt(cmd, in, "Password", password); err != nil {
				return err
			}

			resp, err := client.Post("/auth/api/register", map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			})
			if err != nil {
				return describe("register", err)
			}
			var u struct {
				Username string `json:"username"`
				Role     string `json:"role"`
			}
			if err := json.Unmarshal(resp.Data, &u); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (role %s). Log in with: showrunner-cli login\n", u.Username, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (prompted if omitted)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a bearer token",
		Long:  "Exchange credentials for a bearer token and store it for later calls.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username, err = prompt(cmd, in, "Username", username); err != nil {
				return err
			}
			if password, err = prompt(cmd, in, "Password", password); err != nil {
				return err
			}

			resp, err := client.Post("/auth/api/login", map[string]string{
				"username": username,
				"password": password,
			})
			if err != nil {
				return describe("login", err)
			}
			var data struct {
				Token     string    `json:"token"`
				ExpiresAt time.Time `json:"expires_at"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			if data.Token == "" {
				return fmt.Errorf("login: server returned no token")
			}

			credPath, err := saveCredentials(credentials{
				Server:    flagServer,
				Username:  username,
				Token:     data.Token,
				ExpiresAt: data.ExpiresAt,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s until %s\n", username, data.ExpiresAt.Local().Format(time.RFC1123))
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", credPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/auth/api/logout", nil); err != nil {
				logger.Warn("server logout failed", "error", err)
			}
			credPath, err := credentialsPath()
			if err != nil {
				return err
			}
			if err := os.Remove(credPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove credentials: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// credentialsPath returns the path to the credentials file (~/.showrunner/credentials.json).
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".showrunner", credentialsFileName), nil
}

func saveCredentials(creds credentials) (string, error) {
	credPath, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(credPath), 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	return credPath, nil
}

func loadCredentials() (*credentials, error) {
	p, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &creds, nil
}
