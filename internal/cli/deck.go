package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/leitner/internal/catalog"
)

func newDeckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List decks with card and due counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decks, err := a.catalog.ListDecks(cmd.Context())
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), decks)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCARDS\tDUE")
			for _, d := range decks {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", d.ID, d.Name, d.CardCount, d.DueCount)
			}
			return tw.Flush()
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, _ := cmd.Flags().GetString("description")
			deck, err := a.catalog.CreateDeck(cmd.Context(), args[0], desc)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), deck)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created deck %q (%s)\n", deck.Name, deck.ID)
			return nil
		},
	}
	create.Flags().String("description", "", "deck description")

	rename := &cobra.Command{
		Use:   "rename <deck> <new-name>",
		Short: "Rename a deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.catalog.ResolveDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			u := catalog.DeckUpdate{Name: &args[1]}
			if cmd.Flags().Changed("description") {
				desc, _ := cmd.Flags().GetString("description")
				u.Description = &desc
			}
			deck, err := a.catalog.UpdateDeck(cmd.Context(), d.ID, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed deck to %q\n", deck.Name)
			return nil
		},
	}
	rename.Flags().String("description", "", "new description")

	remove := &cobra.Command{
		Use:     "delete <deck>",
		Aliases: []string{"rm"},
		Short:   "Delete a deck and all of its cards",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.catalog.ResolveDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.catalog.DeleteDeck(cmd.Context(), d.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted deck %q and %d cards\n", d.Name, d.CardCount)
			return nil
		},
	}

	cmd.AddCommand(list, create, rename, remove)
	return cmd
}
