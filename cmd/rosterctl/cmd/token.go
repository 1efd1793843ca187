package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-yellow-bee/rostergrid/internal/api/auth"
)

const envJWTSecret = "ROSTERGRID_JWT_SECRET"

var (
	tokenEditor string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token",
	Long: `Mint a bearer token for the rostergrid JSON API.

The signing secret is read from ROSTERGRID_JWT_SECRET, or prompted for
when unset. The editor name is used as the default volunteer for
"roster assign" and appears in server logs.

Example:
  export ROSTERCTL_TOKEN=$(rosterctl token --editor "Ann")`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(tokenEditor) == "" {
			return fmt.Errorf("--editor is required")
		}

		secret := os.Getenv(envJWTSecret)
		if secret == "" {
			var err error
			secret, err = promptSecret("JWT secret: ")
			if err != nil {
				return fmt.Errorf("read secret: %w", err)
			}
		}
		if len(secret) < 32 {
			return fmt.Errorf("secret must be at least 32 bytes")
		}

		tok, err := auth.NewJWTService([]byte(secret), tokenTTL).GenerateToken(tokenEditor)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenEditor, "editor", "", "editor name carried by the token (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

// promptSecret prompts for a secret without echoing to the terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := syscall.Stdin
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Fallback for piped input
	reader := bufio.NewReader(os.Stdin)
	secret, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(secret), nil
}
