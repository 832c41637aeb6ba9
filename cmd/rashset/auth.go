package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"rashset/pkg/auth"
	"rashset/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API credentials",
	Long: `Manage API credentials outside the configuration file.

Secrets are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
Environment variables are read but never written.

Known secrets: ` + strings.Join(auth.SecretNames, ", "),
}

var authSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a secret",
	Long:  `Prompt for a secret value without echo and store it.`,
	Example: `  rashset auth set bing_api_key
  rashset auth set reddit_password`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: auth.SecretNames,
	Run:       runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:       "delete <name>",
	Short:     "Remove a stored secret",
	Args:      cobra.ExactArgs(1),
	ValidArgs: auth.SecretNames,
	Run:       runAuthDelete,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which secrets are available and where they come from",
	Run:   runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authStatusCmd)
}

func newManagerOrExit() *auth.Manager {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	return manager
}

func runAuthSet(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(args[0])
	if !auth.IsSecretName(name) {
		ui.PrintError("Unknown secret", name)
		fmt.Println("Known secrets: " + strings.Join(auth.SecretNames, ", "))
		os.Exit(1)
	}

	manager := newManagerOrExit()

	fmt.Printf("%s: ", name)
	value, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read value", err.Error())
		os.Exit(1)
	}
	if value == "" {
		ui.PrintError("Value is required")
		os.Exit(1)
	}

	store, err := manager.Set(name, value)
	if err != nil {
		ui.PrintError("Failed to store secret", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Stored %s in %s", name, store))
}

func runAuthDelete(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(args[0])
	manager := newManagerOrExit()

	if err := manager.Delete(name); err != nil {
		if errors.Is(err, auth.ErrSecretNotFound) {
			ui.PrintWarning("Nothing stored for", name)
			return
		}
		ui.PrintError("Failed to delete secret", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Deleted " + name)
}

func runAuthStatus(cmd *cobra.Command, args []string) {
	manager := newManagerOrExit()

	ui.PrintHighlight("Credentials")
	for _, st := range manager.Status() {
		if st.Store == "" {
			fmt.Printf("  %-22s %s\n", st.Name, ui.Red("missing"))
			continue
		}
		fmt.Printf("  %-22s %s %s\n", st.Name, ui.Green(st.Masked), ui.Dim("("+st.Store+")"))
	}
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	// Piped input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
