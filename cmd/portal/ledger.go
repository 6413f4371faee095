package main

import (
	"fmt"
	"os"

	"portal-go/internal/app"
	"portal-go/internal/portal"

	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and export the event logs",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show LOG",
	Short: "Show recent records of a log (upload, decline, activity, session, suggestion)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, actor, err := newActingApp(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		log, err := portal.ParseLogName(args[0])
		if err != nil {
			return a.Finish(err)
		}
		recs, err := a.Service().History(actor, log, limit)
		if err != nil {
			return a.Finish(err)
		}
		if len(recs) == 0 {
			fmt.Println("No records.")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("%s  %-24s  %-13s  %s  %s\n",
				r.Time.Local().Format("2006-01-02 15:04:05"),
				r.Identity,
				r.Action,
				r.Subject,
				r.Extra,
			)
		}
		return nil
	},
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export LOG",
	Short: "Export a log as CSV into the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		a, actor, err := newActingApp(cmd, "ExportLedger")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.ExportLedger(actor, args[0], encrypt)
		if err != nil {
			return a.Finish(err)
		}
		fmt.Printf("Exported %s log as %s\n", args[0], name)
		return nil
	},
}

var ledgerExportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List stored exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "Exports")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.Service().Exports(actor)
		if err != nil {
			return a.Finish(err)
		}
		if len(names) == 0 {
			fmt.Println("No exports.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var ledgerDecryptCmd = &cobra.Command{
	Use:   "decrypt NAME",
	Short: "Write a stored export to stdout or a file, decrypting if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, actor, err := newActingApp(cmd, "FetchExport")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase := ""
		if app.IsEncrypted(args[0]) {
			passphrase, err = readSecret("Passphrase: ")
			if err != nil {
				return a.Finish(err)
			}
		}

		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return a.Finish(fmt.Errorf("creating %s: %w", out, err))
			}
			defer f.Close()
			w = f
		}
		return a.Finish(a.FetchExport(actor, args[0], passphrase, w))
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerShowCmd.Flags().IntP("limit", "n", 50, "Maximum number of records to show")
	ledgerCmd.AddCommand(ledgerExportCmd)
	ledgerExportCmd.Flags().Bool("encrypt", false, "Encrypt the export with the age public key")
	ledgerCmd.AddCommand(ledgerExportsCmd)
	ledgerCmd.AddCommand(ledgerDecryptCmd)
	ledgerDecryptCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}
