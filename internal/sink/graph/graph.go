// Package graph writes datasets into Neptune or any Gremlin Server. Each
// row becomes a vertex; rows that name a source_vertex and target_vertex
// also become an edge once every vertex has been written.
package graph

import (
	"context"
	"crypto/tls"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/dataset"
	"github.com/JonMunkholm/dbroute/internal/logging"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

func init() {
	sink.Register(sink.Graph, func(_ context.Context, targets config.Targets) (sink.Sink, error) {
		return New(targets.Graph)
	})
}

// Conn submits scripts without waiting for their results.
type Conn interface {
	Submit(script string, bindings map[string]any) (Pending, error)
	Close()
}

// Pending is an in-flight script.
type Pending interface {
	Wait() error
}

// Sink is the graph store.
type Sink struct {
	cfg     config.GraphConfig
	connect func(cfg config.GraphConfig) (Conn, error)
}

// New validates cfg and returns a sink. No connection is made.
func New(cfg config.GraphConfig) (*Sink, error) {
	if err := sink.Required(sink.Graph, "NEPTUNE_ENDPOINT", cfg.Endpoint); err != nil {
		return nil, err
	}
	if cfg.TraversalSource == "" {
		cfg.TraversalSource = "g"
	}
	if cfg.Port == 0 {
		cfg.Port = 8182
	}
	return &Sink{cfg: cfg, connect: connect}, nil
}

// Kind implements sink.Sink.
func (s *Sink) Kind() sink.Kind { return sink.Graph }

// Insert submits one vertex command per row, joins them, then submits and
// joins the edge commands. Command failures are logged and counted; only a
// connection failure is returned. Inserted and Failed count commands.
func (s *Sink) Insert(ctx context.Context, ds *dataset.Dataset, name string) (sink.Result, error) {
	var res sink.Result
	logger := logging.ForTarget(ctx, "neptune", s.cfg.Endpoint)
	if name != "" {
		logger = logger.With("label", name)
	}

	conn, err := s.connect(s.cfg)
	if err != nil {
		return res, &sink.SinkError{Kind: sink.Graph, Op: "connect", Err: err}
	}
	defer conn.Close()

	b := builder{g: s.cfg.TraversalSource, useBindings: s.cfg.UseBindings}

	vertices := make([]command, len(ds.Rows))
	for i, row := range ds.Rows {
		vertices[i] = b.vertex(i+1, ds.Columns, row)
	}
	s.run(ctx, conn, vertices, &res)

	if ds.HasColumn(sourceColumn) && ds.HasColumn(targetColumn) {
		var edges []command
		for i, row := range ds.Rows {
			if cmd, ok := b.edge(i+1, row); ok {
				edges = append(edges, cmd)
			}
		}
		s.run(ctx, conn, edges, &res)
	}

	logger.Info("graph commands completed", "succeeded", res.Inserted, "failed", res.Failed)
	return res, nil
}

// run submits every command, then waits for all of them.
func (s *Sink) run(ctx context.Context, conn Conn, cmds []command, res *sink.Result) {
	logger := logging.ForTarget(ctx, "neptune", s.cfg.Endpoint)

	type inflight struct {
		row     int
		pending Pending
	}
	submitted := make([]inflight, 0, len(cmds))

	for _, cmd := range cmds {
		if ctx.Err() != nil {
			res.Fail(cmd.row, ctx.Err())
			continue
		}
		p, err := conn.Submit(cmd.script, cmd.bindings)
		if err != nil {
			logger.Warn("submit failed", "row", cmd.row, "error", err)
			res.Fail(cmd.row, err)
			continue
		}
		submitted = append(submitted, inflight{row: cmd.row, pending: p})
	}

	for _, f := range submitted {
		if err := f.pending.Wait(); err != nil {
			logger.Warn("command failed", "row", f.row, "error", err)
			res.Fail(f.row, err)
			continue
		}
		res.Inserted++
	}
}

type gremlinConn struct {
	client *gremlingo.Client
}

func connect(cfg config.GraphConfig) (Conn, error) {
	client, err := gremlingo.NewClient(cfg.URL(), func(settings *gremlingo.ClientSettings) {
		settings.TraversalSource = cfg.TraversalSource
		settings.LogVerbosity = gremlingo.Warning
		if cfg.TLS {
			settings.TlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	})
	if err != nil {
		return nil, err
	}
	return &gremlinConn{client: client}, nil
}

func (c *gremlinConn) Submit(script string, bindings map[string]any) (Pending, error) {
	var (
		rs  gremlingo.ResultSet
		err error
	)
	if bindings == nil {
		rs, err = c.client.Submit(script)
	} else {
		rs, err = c.client.Submit(script, bindings)
	}
	if err != nil {
		return nil, err
	}
	return resultSet{rs}, nil
}

func (c *gremlinConn) Close() { c.client.Close() }

type resultSet struct {
	rs gremlingo.ResultSet
}

func (r resultSet) Wait() error {
	_, err := r.rs.All()
	return err
}
