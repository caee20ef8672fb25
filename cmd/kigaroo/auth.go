package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kigaroo/pkg/auth"
	"kigaroo/pkg/config"
	"kigaroo/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored gallery passwords",
	Long: `Manage gallery passwords stored outside the configuration file.

Passwords are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (KIGAROO_USERNAME / KIGAROO_PASSWORD, read-only)

Never share your credentials or config files!`,
}

var authSite string

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a gallery password securely",
	Long: `Store the password for a gallery login in the system keychain or the
encrypted credential file. The password is read without echo.`,
	Example: `  # Interactive login
  kigaroo auth login

  # Login with username
  kigaroo auth login parent@example.com

  # Password for one site only
  kigaroo auth login parent@example.com --site https://example.kigaroo.de`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove a stored password",
	Long: `Remove a stored gallery password.

If no username is provided, you will be shown a list of stored accounts
to choose from. You can also remove all accounts at once.

Passwords are kept per site and username. Without --site the site from
the configuration file is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored gallery accounts with masked passwords.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	for _, cmd := range []*cobra.Command{loginCmd, logoutCmd} {
		cmd.Flags().StringVar(&authSite, "site", "", "gallery site the password belongs to (default: site.base_url from the config)")
	}
}

// loginFor pairs username with the --site flag or the configured site. A
// missing config is not an error: the password then serves every site.
func loginFor(username string) auth.Login {
	login := auth.Login{Site: authSite, Username: username}
	if login.Site == "" {
		if cfg, err := config.Load(configFile, nil); err == nil {
			login.Site = cfg.Site.BaseURL
		}
	}
	return login
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("Gallery username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	login := loginFor(username)
	if existing, err := manager.Lookup(login); err == nil && existing.Key() == login.Key() {
		fmt.Printf("\nA password for %s is already stored. Update it? (y/N): ", login)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var password string
	for {
		fmt.Print("Password: ")
		password, err = readPassword(reader)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if password != "" {
			break
		}
		fmt.Println("The password cannot be empty.")
	}

	store, err := manager.Save(&auth.Account{Login: login, Password: password})
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Password saved for %s in the %s", login, store))
	fmt.Println("\nRun 'kigaroo sync --username " + username + "' or set site.username in kigaroo.yaml.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		login := loginFor(args[0])
		if err := manager.Remove(login); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + login.String())
		return nil
	}

	accounts, err := manager.Accounts()
	if err != nil || len(accounts) == 0 {
		ui.PrintWarning("No stored accounts found")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Login)
	}
	fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL accounts? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return nil
		}
		if err := manager.RemoveAll(); err != nil {
			return fmt.Errorf("failed to remove all accounts: %w", err)
		}
		ui.PrintSuccess("All accounts removed")
	case choice > 0 && choice <= len(accounts):
		account := accounts[choice-1]
		if err := manager.Remove(account.Login); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + account.Login.String())
	default:
		return fmt.Errorf("invalid choice %q", strings.TrimSpace(input))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.Accounts()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'kigaroo auth login' to add an account")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		site := sanitized.Site
		if site == "" {
			site = "(any)"
		}
		fmt.Printf("   Site: %s\n", site)
		if !sanitized.Saved.IsZero() {
			fmt.Printf("   Saved: %s\n", sanitized.Saved.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

// readPassword reads a password from stdin without echoing when stdin is a
// terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
