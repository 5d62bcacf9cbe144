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

	"github.com/otherjamesbrown/recap-cli/credentials"
)

// Auth command flags.
var (
	authTenantID       string
	authClientID       string
	authClientSecret   string
	authRefreshToken   string
	authNonInteractive bool
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API credentials",
		Long: `Manage credentials for the remote calendar service.

Credentials are stored encrypted at rest in ~/.recap/credentials.yaml.

Two authentication modes are supported:
  - Client secret: application permissions via the client-credentials grant
  - Refresh token: delegated permissions on behalf of a signed-in user

A stored refresh token takes precedence over a client secret.`,
	}

	cmd.AddCommand(newAuthSetCommand())
	cmd.AddCommand(newAuthShowCommand())
	cmd.AddCommand(newAuthClearCommand())

	return cmd
}

func newAuthSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store API credentials",
		Long: `Store credentials for the remote calendar service.

Examples:
  # Interactive (prompts for the secret, hidden input)
  recap auth set --tenant-id <tenant> --client-id <client>

  # Non-interactive with a client secret
  recap auth set --tenant-id <tenant> --client-id <client> --client-secret <secret>

  # Delegated access with a refresh token
  recap auth set --tenant-id <tenant> --client-id <client> --refresh-token <token>`,
		RunE: runAuthSet,
	}

	cmd.Flags().StringVar(&authTenantID, "tenant-id", "", "Directory tenant ID")
	cmd.Flags().StringVar(&authClientID, "client-id", "", "Application client ID")
	cmd.Flags().StringVar(&authClientSecret, "client-secret", "", "Application client secret")
	cmd.Flags().StringVar(&authRefreshToken, "refresh-token", "", "Delegated-user refresh token")
	cmd.Flags().BoolVar(&authNonInteractive, "non-interactive", false, "Fail instead of prompting for input")

	return cmd
}

func newAuthShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (secrets masked)",
		RunE:  runAuthShow,
	}
}

func newAuthClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Remove stored credentials",
		Aliases: []string{"logout"},
		RunE:    runAuthClear,
	}
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	creds := &credentials.Credentials{
		TenantID:     authTenantID,
		ClientID:     authClientID,
		ClientSecret: authClientSecret,
		RefreshToken: authRefreshToken,
		LastUpdated:  time.Now().UTC(),
	}

	reader := bufio.NewReader(os.Stdin)

	if creds.TenantID == "" {
		if authNonInteractive {
			return fmt.Errorf("--tenant-id is required with --non-interactive")
		}
		creds.TenantID, err = promptLine(reader, "Tenant ID: ")
		if err != nil {
			return err
		}
	}
	if creds.ClientID == "" {
		if authNonInteractive {
			return fmt.Errorf("--client-id is required with --non-interactive")
		}
		creds.ClientID, err = promptLine(reader, "Client ID: ")
		if err != nil {
			return err
		}
	}

	if creds.ClientSecret == "" && creds.RefreshToken == "" {
		if authNonInteractive {
			return fmt.Errorf("one of --client-secret or --refresh-token is required with --non-interactive")
		}
		creds.ClientSecret, err = promptSecret(reader, "Client secret (hidden): ")
		if err != nil {
			return err
		}
	}

	if creds.TenantID == "" || creds.ClientID == "" {
		return fmt.Errorf("tenant ID and client ID are required")
	}
	if creds.ClientSecret == "" && creds.RefreshToken == "" {
		return fmt.Errorf("a client secret or refresh token is required")
	}

	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Println("Credentials stored.")
	fmt.Printf("  Tenant ID: %s\n", creds.TenantID)
	fmt.Printf("  Client ID: %s\n", creds.ClientID)
	if creds.RefreshToken != "" {
		fmt.Printf("  Refresh token: %s\n", credentials.MaskSecret(creds.RefreshToken))
	} else {
		fmt.Printf("  Client secret: %s\n", credentials.MaskSecret(creds.ClientSecret))
	}
	fmt.Printf("  Encryption key: %s\n", store.KeyDescription())

	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	if !store.Exists() {
		fmt.Println("No credentials stored. Run 'recap auth set' to add some.")
		return nil
	}

	creds, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Printf("Tenant ID:     %s\n", creds.TenantID)
	fmt.Printf("Client ID:     %s\n", creds.ClientID)
	if creds.ClientSecret != "" {
		fmt.Printf("Client secret: %s\n", credentials.MaskSecret(creds.ClientSecret))
	}
	if creds.RefreshToken != "" {
		fmt.Printf("Refresh token: %s\n", credentials.MaskSecret(creds.RefreshToken))
	}
	fmt.Printf("Last updated:  %s\n", creds.LastUpdated.Format(time.RFC3339))

	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	if !store.Exists() {
		fmt.Println("No credentials stored.")
		return nil
	}

	if err := store.Delete(); err != nil {
		return fmt.Errorf("removing credentials: %w", err)
	}

	fmt.Println("Credentials removed.")
	return nil
}

// promptLine reads one trimmed line from stdin.
func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads hidden input, falling back to a plain line when no
// terminal is attached.
func promptSecret(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return promptLine(reader, "")
	}
	return strings.TrimSpace(string(secret)), nil
}
