// Package relational writes datasets into SQL databases. The table is
// created on first use with column types inferred from the data, and all
// rows of one call commit or roll back together.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/dataset"
	"github.com/JonMunkholm/dbroute/internal/logging"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

func init() {
	sink.Register(sink.Relational, func(_ context.Context, targets config.Targets) (sink.Sink, error) {
		return New(targets.Relational)
	})
}

// Sink is the relational store.
type Sink struct {
	dialect *dialect
	dsn     string
}

// New validates cfg and returns a sink. No connection is made.
func New(cfg config.RelationalConfig) (*Sink, error) {
	d, ok := lookupDialect(cfg.Driver)
	if !ok {
		return nil, &sink.ConfigError{Kind: sink.Relational, Fields: []string{"RELATIONAL_DRIVER"}}
	}

	if cfg.DSN != "" {
		return &Sink{dialect: d, dsn: cfg.DSN}, nil
	}

	var err error
	if d.name == "sqlite" {
		err = sink.Required(sink.Relational, "RELATIONAL_DATABASE", cfg.Database)
	} else {
		err = sink.Required(sink.Relational,
			"RELATIONAL_HOST", cfg.Host,
			"RELATIONAL_USER", cfg.User,
			"RELATIONAL_DATABASE", cfg.Database,
		)
	}
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = d.defaultPort
	}
	return &Sink{dialect: d, dsn: d.dsn(cfg, port)}, nil
}

// Kind implements sink.Sink.
func (s *Sink) Kind() sink.Kind { return sink.Relational }

// Label implements sink.Labeler with the configured driver's name.
func (s *Sink) Label() string { return s.dialect.name }

// Insert creates table if absent and inserts every row in one transaction.
// Any row failure rolls back the whole call.
func (s *Sink) Insert(ctx context.Context, ds *dataset.Dataset, table string) (sink.Result, error) {
	var res sink.Result
	logger := logging.ForTarget(ctx, s.dialect.name, table)
	start := time.Now()

	db, err := sql.Open(s.dialect.driver, s.dsn)
	if err != nil {
		return res, &sink.SinkError{Kind: sink.Relational, Op: "open", Err: err}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return res, &sink.SinkError{Kind: sink.Relational, Op: "connect", Err: err}
	}

	types := make([]ColumnType, len(ds.Columns))
	for i, col := range ds.Columns {
		types[i] = InferColumnType(ds.Column(col))
	}

	ddl := s.dialect.createTableSQL(table, identityColumn(ds.Columns), ds.Columns, types)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return res, &sink.SinkError{Kind: sink.Relational, Op: "create table " + table, Err: err}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, &sink.SinkError{Kind: sink.Relational, Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.dialect.insertSQL(table, ds.Columns))
	if err != nil {
		return res, &sink.SinkError{Kind: sink.Relational, Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	args := make([]any, len(ds.Columns))
	for i, row := range ds.Rows {
		for j, col := range ds.Columns {
			v, err := convert(types[j], row.Get(col).Text())
			if err != nil {
				return res, &sink.SinkError{Kind: sink.Relational, Op: fmt.Sprintf("insert row %d", i+1), Err: err}
			}
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			logger.Warn("row rejected, rolling back", "row", i+1, "error", err)
			return res, &sink.SinkError{Kind: sink.Relational, Op: fmt.Sprintf("insert row %d", i+1), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return res, &sink.SinkError{Kind: sink.Relational, Op: "commit", Err: err}
	}

	res.Inserted = len(ds.Rows)
	logger.Info("rows committed", "rows", res.Inserted, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}
