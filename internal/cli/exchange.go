package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/leitner/internal/exchange"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <deck>",
		Short: "Export a deck as JSON",
		Long:  "Export a deck and its cards, including review progress. Writes to stdout unless --file is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.catalog.ResolveDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := exchange.ExportFrom(cmd.Context(), a.db, d.ID, a.clock.Now())
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return exchange.Encode(cmd.OutOrStdout(), doc)
			}
			if path == "." {
				path = exchange.Filename(doc)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer f.Close()
			if err := exchange.Encode(f, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d cards to %s\n", len(doc.Cards), path)
			return f.Close()
		},
	}
	cmd.Flags().StringP("file", "f", "", `output file ("." picks a name from the deck)`)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import a deck exported as JSON",
		Long:  "Import a deck from a file, or stdin when no file is given. The deck gets a new ID and is renamed if the name is taken.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = a.in
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			doc, err := exchange.Decode(r)
			if err != nil {
				return err
			}
			res, err := exchange.ImportInto(cmd.Context(), a.db, *doc, a.clock.Now())
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), res.Deck)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %q with %d cards\n", res.Deck.Name, len(res.Cards))
			return nil
		},
	}
}
