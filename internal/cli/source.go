package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage markdown sources",
		Long: `A source is a directory or git repository of markdown notes written as

  Q: question
  A: answer
  C: optional context

Each source feeds one deck. Run "leitner sync" to pull in changes.`,
	}

	add := &cobra.Command{
		Use:   "add <path-or-git-url>",
		Short: "Add a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, _ := cmd.Flags().GetString("deck")
			src, err := a.syncer.AddSource(cmd.Context(), args[0], deck)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), src)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s source %d: %s\n", src.Type, src.ID, src.Path)
			return nil
		},
	}
	add.Flags().String("deck", "", "deck to sync into, by ID or name (created if missing; defaults to the source name)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := a.syncer.Sources(cmd.Context())
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), sources)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tDECK\tLAST SCANNED\tPATH")
			for _, s := range sources {
				scanned := "never"
				if s.LastScanned != nil {
					scanned = s.LastScanned.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Type, s.DeckID, scanned, s.Path)
			}
			return tw.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a source; its deck and cards are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source ID %q", args[0])
			}
			if err := a.syncer.RemoveSource(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed source %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync every source into its deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.syncer.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), reports)
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), `no sources configured; add one with "leitner source add <path>"`)
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d notes, %d added, %d removed", r.Path, r.Parsed, r.Added, r.Removed)
				if r.Skipped > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), ", %d skipped", r.Skipped)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				for _, e := range r.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", e)
				}
			}
			return nil
		},
	}
}
