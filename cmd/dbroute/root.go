package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/core"
	"github.com/JonMunkholm/dbroute/internal/logging"
	"github.com/JonMunkholm/dbroute/internal/normalize"
	_ "github.com/JonMunkholm/dbroute/internal/sink/all" // Register all stores
)

const rootLongDescription = `Command "dbroute"

Reads a .csv, .txt, .json or .xml file, cleans it, and inserts it into
one of the configured stores:

  mysql       relational database (table per upload)
  dynamodb    key-value table
  documentdb  document collection
  neptune     graph, one vertex per row plus edges from source/target

Connection settings come from the environment or a .env file, the same
variables the web server reads.
`

type options struct {
	file   string
	target string
	name   string
	format string
	env    string
	json   bool

	// envSet is true when --env-file was given on the command line.
	envSet bool
}

// ingester is the part of core.Service the command drives.
type ingester interface {
	Ingest(ctx context.Context, req core.Request) (*core.Outcome, error)
}

// newService is replaced in tests.
var newService = func(cfg *config.Config) ingester {
	return core.NewService(cfg, nil)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "dbroute --file <path> --target <store> [--name <table>]",
		Short:         "Insert a data file into a database",
		Long:          rootLongDescription,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.envSet = cmd.Flags().Changed("env-file")
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "path of the file to ingest")
	flags.StringVarP(&opts.target, "target", "t", "", "store: mysql, dynamodb, documentdb or neptune")
	flags.StringVarP(&opts.name, "name", "n", "", "table or collection name (ignored for neptune)")
	flags.StringVar(&opts.format, "format", "", "override the format detected from the extension: csv, txt, json, xml")
	flags.StringVar(&opts.env, "env-file", ".env", "dotenv file to load if present")
	flags.BoolVar(&opts.json, "json", false, "print the outcome as JSON")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	if err := loadEnv(opts); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format))

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	req := core.Request{
		FileName: filepath.Base(opts.file),
		Data:     data,
		Target:   opts.target,
		Name:     opts.name,
	}
	if opts.format != "" {
		kind, err := normalize.ParseSourceKind(opts.format)
		if err != nil {
			return err
		}
		req.SourceKind = kind
	}

	outcome, err := newService(cfg).Ingest(ctx, req)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	fmt.Fprintln(stdout, outcome.Message)
	for _, re := range outcome.Errors {
		fmt.Fprintf(stderr, "  row %d: %v\n", re.Row, re.Err)
	}
	return nil
}

// loadEnv loads the dotenv file. Only a missing default .env is ignored,
// since the environment may already be set.
func loadEnv(opts *options) error {
	if opts.env == "" {
		return nil
	}
	err := godotenv.Load(opts.env)
	if err == nil {
		return nil
	}
	if !opts.envSet && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", opts.env, err)
}

// userError renders err for the terminal. Errors the catalogue knows get
// the friendly message and code; anything else, such as a bad path or a
// missing flag, is printed as is.
func userError(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
