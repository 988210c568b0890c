package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/leitner"
)

func newCardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage the cards of a deck",
	}

	list := &cobra.Command{
		Use:   "list <deck>",
		Short: "List cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("search")
			level, _ := cmd.Flags().GetString("level")

			d, err := a.catalog.ResolveDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cards, err := a.catalog.ListCards(cmd.Context(), d.ID, query, level)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), cards)
			}

			now := a.clock.Now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFRONT\tLEVEL\tNEXT REVIEW")
			for _, c := range cards {
				next := c.NextReview.Local().Format("2006-01-02")
				if leitner.IsDue(c, now) {
					next = "due"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, oneLine(c.Front, 40), leitner.LevelLabel(c.Level), next)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringP("search", "s", "", "only cards whose front or back contains this text")
	list.Flags().StringP("level", "l", "all", "all, due, 1, 2 or 3")

	add := &cobra.Command{
		Use:   "add <deck> <front> <back>",
		Short: "Add a card",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.catalog.ResolveDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			card, err := a.catalog.AddCard(cmd.Context(), d.ID, args[1], args[2])
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), card)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added card %s to %q\n", card.ID, d.Name)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Change the front or back of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u catalog.CardUpdate
			if cmd.Flags().Changed("front") {
				front, _ := cmd.Flags().GetString("front")
				u.Front = &front
			}
			if cmd.Flags().Changed("back") {
				back, _ := cmd.Flags().GetString("back")
				u.Back = &back
			}
			if u.Front == nil && u.Back == nil {
				return fmt.Errorf("nothing to change: pass --front and/or --back")
			}
			card, err := a.catalog.EditCard(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated card %s\n", card.ID)
			return nil
		},
	}
	edit.Flags().String("front", "", "new front text")
	edit.Flags().String("back", "", "new back text")

	remove := &cobra.Command{
		Use:     "rm <card-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.catalog.DeleteCard(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted card %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, edit, remove)
	return cmd
}

// oneLine flattens s and cuts it to at most n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
