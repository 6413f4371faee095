package main

import (
	"fmt"

	"portal-go/internal/portal"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Browse and manage the share",
}

var filesLsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a share directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootName, _ := cmd.Flags().GetString("root")

		a, actor, err := newActingApp(cmd, "ListNamespace")
		if err != nil {
			return err
		}
		defer a.Close()

		root := portal.RootName(rootName)
		switch root {
		case portal.RootShare:
		case portal.RootStaging, portal.RootTrash:
			if err := actor.RequireAdmin("list " + rootName); err != nil {
				return a.Finish(err)
			}
		default:
			return a.Finish(fmt.Errorf("unknown root %q: %w", rootName, portal.ErrInvalid))
		}

		rel := ""
		if len(args) > 0 {
			rel = args[0]
		}
		entries, err := a.Service().ListNamespace(root, rel)
		if err != nil {
			return a.Finish(err)
		}
		if len(entries) == 0 {
			fmt.Println("Empty.")
			return nil
		}
		printEntries(entries)
		return nil
	},
}

var filesMkdirCmd = &cobra.Command{
	Use:   "mkdir PARENT NAME",
	Short: "Create a folder in the share",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "CreateFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Service().CreateFolder(actor, args[0], args[1])
		if err != nil {
			return a.Finish(err)
		}
		fmt.Printf("Created %s\n", p.Rel())
		return nil
	},
}

var filesRmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Move a share entry to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "SoftDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Service().SoftDelete(actor, args[0])
		if err != nil {
			return a.Finish(err)
		}
		fmt.Printf("Moved %s to trash as %s\n", args[0], name)
		return nil
	},
}

var filesTrashCmd = &cobra.Command{
	Use:   "trash",
	Short: "List trashed entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "ListTrash")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Service().ListTrash(actor)
		if err != nil {
			return a.Finish(err)
		}
		if len(entries) == 0 {
			fmt.Println("Trash is empty.")
			return nil
		}
		printEntries(entries)
		return nil
	},
}

var filesDownloadCmd = &cobra.Command{
	Use:   "download PATH",
	Short: "Record a download and print the entry's location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "RecordDownload")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Service().RecordDownload(actor, args[0])
		if err != nil {
			return a.Finish(err)
		}
		fmt.Println(p.String())
		return nil
	},
}

func printEntries(entries []*portal.Entry) {
	for _, e := range entries {
		kind := "-"
		name := e.Name
		if e.IsDir {
			kind = "d"
			name += "/"
		}
		fmt.Printf("%s  %10d  %s  %s\n", kind, e.Size, e.ModTime.Format("2006-01-02 15:04"), name)
	}
}

func init() {
	filesCmd.AddCommand(filesLsCmd)
	filesLsCmd.Flags().String("root", string(portal.RootShare), "Root to list: share, staging or trash")
	filesCmd.AddCommand(filesMkdirCmd)
	filesCmd.AddCommand(filesRmCmd)
	filesCmd.AddCommand(filesTrashCmd)
	filesCmd.AddCommand(filesDownloadCmd)
}
