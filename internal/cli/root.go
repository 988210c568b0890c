// Package cli implements the leitner commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/config"
	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/logger"
	"github.com/conorfennell/leitner/internal/sourcesync"
	"github.com/conorfennell/leitner/internal/storage"
	"github.com/conorfennell/leitner/internal/study"
)

// app is the state shared by all commands once the root has run its setup.
type app struct {
	clock datemath.Clock
	in    io.Reader

	cfg     *config.Config
	db      *storage.DB
	catalog *catalog.Service
	study   *study.Controller
	syncer  *sourcesync.Syncer
	output  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{clock: datemath.SystemClock{}, in: os.Stdin}
	return newRootCmd(a)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "leitner",
		Short:             "Leitner-box flashcards",
		Long:              "Create decks of front/back cards and review them on a three-box Leitner schedule.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().StringP("output", "o", "text", "output format: text or json")

	root.AddCommand(
		newServeCmd(a),
		newDeckCmd(a),
		newCardCmd(a),
		newStudyCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newSourceCmd(a),
		newSyncCmd(a),
	)
	return root
}

// setup loads the configuration, installs the logger and opens the database.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.output, _ = cmd.Flags().GetString("output")
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	logger.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	a.db = db
	a.catalog = catalog.NewService(db, a.clock)
	a.study = study.NewController(db, a.clock, study.WithReviewRecorder(db), study.WithStrict(cfg.Strict))
	a.syncer = sourcesync.New(db, a.clock, cfg.ReposDir)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
