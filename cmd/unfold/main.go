// Command unfold reshapes a long survey table into a wide one.
//
//	unfold -c questionType survey.csv question answer > wide.csv
//	unfold query -n user_id "SELECT * FROM answers" question answer
//	unfold serve
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unfold/internal/config"
	"github.com/JonMunkholm/unfold/internal/core"
	"github.com/JonMunkholm/unfold/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		stop()
		os.Exit(1)
	}
}

// describe renders coded failures with their support code and plain
// usage errors as they are.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

// app carries what every command needs after startup.
type app struct {
	cfg *config.Config
}

// unfoldFlags are shared by the root and query commands.
type unfoldFlags struct {
	constants []string
	namesFrom string
	filler    string
	output    string
}

func (f *unfoldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.constants, "constantCol", "c", nil,
		"column holding one value per unfolded row (repeatable)")
	cmd.Flags().StringVarP(&f.namesFrom, "newColNameCol", "n", "",
		"column whose values name the new columns (default v0, v1, ...)")
	cmd.Flags().StringVar(&f.filler, "filler", "",
		"value padding rows with fewer values (default UNFOLD_FILLER or \"0\")")
	cmd.Flags().StringVarP(&f.output, "output", "o", "",
		"write the result to this file instead of stdout")
}

// options builds the core options; stdout is where the table goes unless
// --output names a file.
func (f *unfoldFlags) options(cmd *cobra.Command, cfg *config.Config) []core.Option {
	filler := cfg.Unfold.Filler
	if cmd.Flags().Changed("filler") {
		filler = f.filler
	}

	sink := core.ToStream(cmd.OutOrStdout())
	if f.output != "" {
		sink = core.ToPath(f.output)
	}

	opts := []core.Option{core.WithFiller(filler), core.WithSink(sink)}
	if len(f.constants) > 0 {
		opts = append(opts, core.WithConstantColumns(f.constants...))
	}
	if f.namesFrom != "" {
		opts = append(opts, core.WithNewColumnNamesFrom(f.namesFrom))
	}
	return opts
}

func newRootCmd() *cobra.Command {
	a := &app{}
	flags := &unfoldFlags{}

	root := &cobra.Command{
		Use:   "unfold [flags] table_path col_to_unfold col_of_values",
		Short: "Turn a long survey table into a wide one",
		Long: `Groups the rows of a CSV table by the value of col_to_unfold and emits one
row per distinct value, holding every value of col_of_values seen for it.
table_path "-" reads standard input. The result is written to standard
output as CSV unless --output is given.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var src core.Source
			if args[0] == "-" {
				src = core.FromReader(cmd.InOrStdin())
			} else {
				src = core.FromPath(args[0])
			}
			return runUnfold(cmd, src, args[1], args[2], flags.options(cmd, a.cfg))
		},
	}
	flags.register(root)

	root.AddCommand(newQueryCmd(a), newServeCmd(a))
	return root
}

// init loads .env, the configuration and the logger.
func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	a.cfg = cfg
	return nil
}

func runUnfold(cmd *cobra.Command, src core.Source, pivot, payload string, opts []core.Option) error {
	res, err := core.Unfold(cmd.Context(), src, pivot, payload, opts...)
	if err != nil {
		return err
	}
	slog.Debug("unfold finished",
		"groups", res.Groups,
		"width", res.PayloadWidth,
		"rows_read", res.RowsRead,
	)
	return nil
}
