package main

import (
	"fmt"
	"strings"

	"portal-go/internal/portal"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Submit and moderate uploads",
}

var uploadAddCmd = &cobra.Command{
	Use:   "add PATH",
	Short: "Upload a local file or directory for moderation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suggested, _ := cmd.Flags().GetString("dest")

		a, actor, err := newActingApp(cmd, "IngestUpload")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.UploadPath(actor, args[0], suggested)
		if err != nil {
			return a.Finish(err)
		}
		for _, f := range res.Failures {
			fmt.Printf("rejected: %s\n", f)
		}
		fmt.Printf("Uploaded %d file(s), %d rejected\n", len(res.Accepted), len(res.Failures))
		if len(res.Accepted) == 0 {
			return a.Finish(fmt.Errorf("no files accepted"))
		}
		return nil
	},
}

var uploadMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your uploads and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "MyUploads")
		if err != nil {
			return err
		}
		defer a.Close()

		ups, err := a.Service().MyUploads(actor.Identity)
		if err != nil {
			return a.Finish(err)
		}
		if len(ups) == 0 {
			fmt.Println("No uploads.")
			return nil
		}
		for _, u := range ups {
			fmt.Printf("%s  %-9s  %s  -> %s\n", u.Time.Local().Format("2006-01-02 15:04:05"), u.Status, u.Rel, u.Suggested)
		}
		return nil
	},
}

var uploadPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List staged items awaiting moderation",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringToString("choose")

		a, actor, err := newActingApp(cmd, "PendingUploads")
		if err != nil {
			return err
		}
		defer a.Close()

		pending, err := a.PendingUploads(actor, pairs)
		if err != nil {
			return a.Finish(err)
		}
		if len(pending) == 0 {
			fmt.Println("Nothing pending.")
			return nil
		}
		for _, p := range pending {
			item := p.Item
			if p.IsDir {
				item += "/"
			}
			fmt.Printf("%s  %-24s  %s  -> %s\n", p.Time.Local().Format("2006-01-02 15:04:05"), p.Owner, item, p.Destination)
		}
		return nil
	},
}

var uploadPublishCmd = &cobra.Command{
	Use:   "publish ITEM [DESTINATION]",
	Short: "Move a staged item into the share",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "Publish")
		if err != nil {
			return err
		}
		defer a.Close()

		dest := ""
		if len(args) > 1 {
			dest = args[1]
		}
		p, err := a.Service().Publish(actor, args[0], dest)
		if err != nil {
			return a.Finish(err)
		}
		fmt.Printf("Published %s to %s\n", args[0], p.Rel())
		return nil
	},
}

var uploadDeclineCmd = &cobra.Command{
	Use:   "decline ITEM",
	Short: "Remove a staged item and record the decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "Decline")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().Decline(actor, args[0]); err != nil {
			return a.Finish(err)
		}
		fmt.Printf("Declined %s\n", args[0])
		return nil
	},
}

var uploadLimitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show the upload classes and size ceilings that apply to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "UploadLimits")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, l := range a.Service().UploadLimits(actor) {
			fmt.Printf("%-9s  %5d MB  %s\n", l.Class, l.MaxBytes/(1024*1024), strings.Join(l.Extensions, " "))
		}
		return nil
	},
}

var uploadBrowseCmd = &cobra.Command{
	Use:   "browse [PATH]",
	Short: "List share folders available as destinations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, actor, err := newActingApp(cmd, "Browse")
		if err != nil {
			return err
		}
		defer a.Close()

		rel := ""
		if len(args) > 0 {
			rel = args[0]
		}
		folders, err := a.Service().Browse(portal.NewSelection(actor), rel)
		if err != nil {
			return a.Finish(err)
		}
		for _, f := range folders {
			fmt.Println(f.Rel + "/")
		}
		return nil
	},
}

func init() {
	uploadCmd.AddCommand(uploadAddCmd)
	uploadAddCmd.Flags().StringP("dest", "d", "", "Suggested share directory")
	uploadCmd.AddCommand(uploadMineCmd)
	uploadCmd.AddCommand(uploadPendingCmd)
	uploadPendingCmd.Flags().StringToString("choose", nil, "Destination overrides as ITEM=PATH")
	uploadCmd.AddCommand(uploadPublishCmd)
	uploadCmd.AddCommand(uploadDeclineCmd)
	uploadCmd.AddCommand(uploadLimitsCmd)
	uploadCmd.AddCommand(uploadBrowseCmd)
}
