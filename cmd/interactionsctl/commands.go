package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/config"
	"github.com/alibahaloo/PharmaTrack-sub000/data"
	"github.com/alibahaloo/PharmaTrack-sub000/interactions"
	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/alibahaloo/PharmaTrack-sub000/store/postgres"
	"github.com/alibahaloo/PharmaTrack-sub000/validation"
	"github.com/spf13/cobra"
)

// options holds the flags shared by every subcommand
type options struct {
	source       string
	databaseURL  string
	drugs        string
	compositions string
	interactions string
	timeout      time.Duration
	verbose      bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "interactionsctl",
		Short:         "Drug interaction resolution and reference data administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.source, "source", "", "Reference store to read: files or postgres (default DATA_SOURCE)")
	flags.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (default DATABASE_URL)")
	flags.StringVar(&opts.drugs, "drugs", "", "Drugs file or URL (default DRUGS_SOURCE)")
	flags.StringVar(&opts.compositions, "compositions", "", "Compositions file or URL (default COMPOSITIONS_SOURCE)")
	flags.StringVar(&opts.interactions, "interactions", "", "Interaction catalogue file or URL (default INTERACTIONS_SOURCE)")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall command timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(resolveCmd(opts))
	rootCmd.AddCommand(importCmd(opts))
	rootCmd.AddCommand(reportCmd(opts))
	return rootCmd
}

// load reads .env and the environment, then lets explicit flags win
func (o *options) load() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if o.source != "" {
		cfg.DataSource = config.DataSource(o.source)
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.drugs != "" {
		cfg.DrugsSource = o.drugs
	}
	if o.compositions != "" {
		cfg.CompositionsSource = o.compositions
	}
	if o.interactions != "" {
		cfg.InteractionsSource = o.interactions
	}

	switch cfg.DataSource {
	case config.SourceFiles, config.SourcePostgres:
	default:
		return fmt.Errorf("unknown source %q: want files or postgres", cfg.DataSource)
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logging.InitLoggerWithOptions(logging.Options{Env: cfg.Env, Level: level, Verbose: o.verbose})

	o.cfg = cfg
	return nil
}

func (o *options) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func (o *options) parseFiles(ctx context.Context) (*entities.ReferenceData, error) {
	parser := referenceparser.NewReferenceParser(referenceparser.Sources{
		Drugs:        o.cfg.DrugsSource,
		Compositions: o.cfg.CompositionsSource,
		Interactions: o.cfg.InteractionsSource,
	})
	return parser.ParseAll(ctx)
}

// openStore returns the reference store chosen by --source and a release func
func (o *options) openStore(ctx context.Context) (interfaces.ReferenceStore, func(), error) {
	if o.cfg.DataSource == config.SourcePostgres {
		if o.cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("--database-url or DATABASE_URL is required for the postgres source")
		}
		pool, err := postgres.NewPool(ctx, o.cfg.DatabaseURL, o.cfg.DBMaxConns, o.cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil
	}

	ref, err := o.parseFiles(ctx)
	if err != nil {
		return nil, nil, err
	}

	container := data.NewDataContainer()
	container.UpdateData(ref, validation.NewDataValidator().ReportDataQuality(ref))
	return container, func() {}, nil
}

func (o *options) service(store interfaces.ReferenceStore) *interactions.Service {
	return interactions.NewService(store, interactions.Options{
		MaxDrugCodes:       o.cfg.MaxDrugCodes,
		MaxIngredientNames: o.cfg.MaxIngredientNames,
		Concurrency:        o.cfg.PairLookupConcurrency,
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func resolveCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve interactions and print the result as JSON",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "drugs CODES",
		Short:   "Resolve a comma-separated list of drug codes",
		Example: "  interactionsctl resolve drugs 60001,60002",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			store, release, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			result, err := opts.service(store).ResolveByDrugCodes(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "ingredients NAMES",
		Short:   "Resolve a comma-separated list of ingredient names",
		Example: "  interactionsctl resolve ingredients \"warfarin,ibuprofen\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			store, release, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			result, err := opts.service(store).ResolveByIngredientNames(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	})

	return cmd
}

func importCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load the reference files into PostgreSQL, replacing its contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.DatabaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}

			ctx, cancel := opts.context()
			defer cancel()

			ref, err := opts.parseFiles(ctx)
			if err != nil {
				return err
			}
			if len(ref.Drugs) == 0 || len(ref.Interactions) == 0 {
				return fmt.Errorf("refusing to import: %d drugs and %d interactions parsed", len(ref.Drugs), len(ref.Interactions))
			}

			pool, err := postgres.NewPool(ctx, opts.cfg.DatabaseURL, opts.cfg.DBMaxConns, opts.cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := postgres.NewStore(pool)
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}

			result, err := store.Import(ctx, ref)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d drugs, %d ingredient links, %d interactions\n",
				result.Drugs, result.Ingredients, result.Interactions)
			return nil
		},
	}
}

func reportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Parse the reference files and print the data quality report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			ref, err := opts.parseFiles(ctx)
			if err != nil {
				return err
			}

			report := validation.NewDataValidator().ReportDataQuality(ref)
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}
