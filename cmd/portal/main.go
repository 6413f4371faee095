package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"portal-go/internal/app"
	"portal-go/internal/config"
	"portal-go/internal/portal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PortalApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Publish", "ExportLedger").
func newApp(operation string) (*app.PortalApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPortalApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// newActingApp is newApp plus resolution of the --as identity.
func newActingApp(cmd *cobra.Command, operation string) (*app.PortalApp, portal.Actor, error) {
	a, err := newApp(operation)
	if err != nil {
		return nil, portal.Actor{}, err
	}
	identity, _ := cmd.Flags().GetString("as")
	actor, err := a.Actor(identity)
	if err != nil {
		a.Finish(err)
		a.Close()
		return nil, portal.Actor{}, err
	}
	return a, actor, nil
}

// readSecret prompts for a secret without echo when stdin is a terminal and
// reads one line otherwise.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readNewSecret prompts twice and requires both entries to match.
func readNewSecret(prompt string) (string, error) {
	first, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return first, nil
	}
	second, err := readSecret("Repeat: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("entries do not match")
	}
	return first, nil
}

var rootCmd = &cobra.Command{
	Use:          "portal",
	Short:        "Moderated file portal",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Share:       %s\n", cfg.Roots.Share)
		fmt.Printf("Staging:     %s\n", cfg.Roots.Staging)
		fmt.Printf("Trash:       %s\n", cfg.Roots.Trash)
		fmt.Printf("Accounts:    %s\n", cfg.Accounts.Dir)
		fmt.Printf("Ledger:      %s %s\n", cfg.Ledger.Type, cfg.Ledger.Dir)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage export encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the export key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("InitKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readNewSecret("Passphrase for the private key: ")
		if err != nil {
			return a.Finish(err)
		}
		if err := a.InitKeys(passphrase); err != nil {
			return a.Finish(err)
		}
		fmt.Println("Export keys generated.")
		return nil
	},
}

// vault command
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the export vault",
}

var vaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the export vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ValidateVault")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateVault(); err != nil {
			return a.Finish(fmt.Errorf("vault check failed: %w", err))
		}
		fmt.Println("Vault OK.")
		return nil
	},
}

// suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest TEXT...",
	Short: "Submit a suggestion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "SubmitSuggestion")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Suggest(actor, strings.Join(args, " "))
		if err != nil {
			return a.Finish(err)
		}
		if err := d.Err(); err != nil {
			return a.Finish(err)
		}
		fmt.Println("Thank you, suggestion recorded.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("as", app.DefaultUser(), "Acting identity (default $"+app.EnvUser+")")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	vaultCmd.AddCommand(vaultCheckCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(ledgerCmd)
}
