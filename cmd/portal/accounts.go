package main

import (
	"fmt"

	"portal-go/internal/app"
	"portal-go/internal/portal"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Register and moderate accounts",
}

var accountAddCmd = &cobra.Command{
	Use:   "add IDENTITY",
	Short: "Register an account for approval",
	Long: `Register an account into the pending bucket.

With --admin the account is created active with the admin role. This is
only possible while no active admin exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, _ := cmd.Flags().GetBool("admin")

		a, err := newApp("Register")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readNewSecret("Password: ")
		if err != nil {
			return a.Finish(err)
		}
		if err := a.AddAccount(args[0], password, admin); err != nil {
			return a.Finish(err)
		}
		if admin {
			fmt.Printf("Admin account %s created\n", args[0])
		} else {
			fmt.Printf("Account %s registered, awaiting approval\n", args[0])
		}
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list [BUCKET]",
	Short: "List accounts in a bucket (pending, active or denied)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "Accounts")
		if err != nil {
			return err
		}
		defer a.Close()

		b := portal.BucketPending
		if len(args) > 0 {
			b, err = portal.ParseBucket(args[0])
			if err != nil {
				return a.Finish(err)
			}
		}
		ps, err := a.Service().Accounts(actor, b)
		if err != nil {
			return a.Finish(err)
		}
		if len(ps) == 0 {
			fmt.Printf("No %s accounts.\n", b)
			return nil
		}
		for _, p := range ps {
			fmt.Printf("%-32s  %-5s  %s\n", p.Identity, p.Role, p.Status)
		}
		return nil
	},
}

// moderationCmd builds one of the single-identity moderation commands.
func moderationCmd(use, short, operation string, run func(a *app.PortalApp, actor portal.Actor, identity string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " IDENTITY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, actor, err := newActingApp(cmd, operation)
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := run(a, actor, args[0])
			if err != nil {
				return a.Finish(err)
			}
			fmt.Println(msg)
			return nil
		},
	}
}

var accountApproveCmd = moderationCmd("approve", "Approve a pending account", "Approve",
	func(a *app.PortalApp, actor portal.Actor, id string) (string, error) {
		return "Approved " + id, a.Service().Approve(actor, id)
	})

var accountDenyCmd = moderationCmd("deny", "Deny a pending account", "Deny",
	func(a *app.PortalApp, actor portal.Actor, id string) (string, error) {
		return "Denied " + id, a.Service().Deny(actor, id)
	})

var accountRependCmd = moderationCmd("repend", "Return a denied account to pending", "Repend",
	func(a *app.PortalApp, actor portal.Actor, id string) (string, error) {
		return "Returned " + id + " to pending", a.Service().Repend(actor, id)
	})

var accountToggleRoleCmd = moderationCmd("toggle-role", "Switch an active account between admin and user", "ToggleRole",
	func(a *app.PortalApp, actor portal.Actor, id string) (string, error) {
		p, err := a.Service().ToggleRole(actor, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now %s", id, p.Role), nil
	})

var accountToggleStatusCmd = moderationCmd("toggle-status", "Switch an active account between active and inactive", "ToggleStatus",
	func(a *app.PortalApp, actor portal.Actor, id string) (string, error) {
		p, err := a.Service().ToggleStatus(actor, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now %s", id, p.Status), nil
	})

var accountCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that no identity is held in more than one bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("VerifyAccounts")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().VerifyAccounts(); err != nil {
			return a.Finish(err)
		}
		fmt.Println("Account buckets are consistent.")
		return nil
	},
}

var accountLoginCmd = &cobra.Command{
	Use:   "login IDENTITY",
	Short: "Check a password and record a login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Login")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readSecret("Password: ")
		if err != nil {
			return a.Finish(err)
		}
		if err := a.CheckPassword(args[0], password); err != nil {
			return a.Finish(err)
		}
		if _, err := a.Actor(args[0]); err != nil {
			return a.Finish(err)
		}
		if err := a.Service().RecordSession(args[0], portal.ActionLogin, ""); err != nil {
			return a.Finish(err)
		}
		fmt.Printf("Logged in as %s\n", args[0])
		return nil
	},
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Record a logout for the acting identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().RecordSession(actor.Identity, portal.ActionLogout, ""); err != nil {
			return a.Finish(err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	accountCmd.AddCommand(accountAddCmd)
	accountAddCmd.Flags().Bool("admin", false, "Create the first admin account")
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountApproveCmd)
	accountCmd.AddCommand(accountDenyCmd)
	accountCmd.AddCommand(accountRependCmd)
	accountCmd.AddCommand(accountToggleRoleCmd)
	accountCmd.AddCommand(accountToggleStatusCmd)
	accountCmd.AddCommand(accountCheckCmd)
	accountCmd.AddCommand(accountLoginCmd)
	accountCmd.AddCommand(accountLogoutCmd)
}
