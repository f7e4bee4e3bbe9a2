package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/dbroute/internal/clean"
	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/logging"
	"github.com/JonMunkholm/dbroute/internal/metrics"
	"github.com/JonMunkholm/dbroute/internal/normalize"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

var (
	// ErrEmptyFile is returned for a zero-length upload.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Request is one ingest: a file plus the store to route it to.
type Request struct {
	FileName string
	Data     []byte

	// SourceKind overrides detection from FileName when set.
	SourceKind normalize.SourceKind

	// Target is the user supplied store name, e.g. "dynamodb" or "mysql".
	Target string

	// Name is the table or collection. The graph store ignores it.
	Name string
}

// Outcome reports a finished ingest.
type Outcome struct {
	ID       string          `json:"id"`
	Message  string          `json:"message"`
	Target   sink.Kind       `json:"target"`
	Label    string          `json:"label"`
	Name     string          `json:"name,omitempty"`
	Source   string          `json:"source"`
	Rows     int             `json:"rows"`
	Inserted int             `json:"inserted"`
	Failed   int             `json:"failed"`
	Errors   []sink.RowError `json:"-"`
	Duration time.Duration   `json:"duration_ns"`
}

// Service runs ingests against the configured targets.
type Service struct {
	targets     config.Targets
	limiter     *Limiter
	timeout     time.Duration
	maxFileSize int64
	metrics     *metrics.Metrics

	dispatch func(ctx context.Context, d sink.Descriptor, targets config.Targets) (sink.Sink, error)
}

// NewService builds a service from cfg. m may be nil.
func NewService(cfg *config.Config, m *metrics.Metrics) *Service {
	return &Service{
		targets:     cfg.Targets,
		limiter:     NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		timeout:     cfg.Upload.Timeout,
		maxFileSize: cfg.Upload.MaxFileSize,
		metrics:     m,
		dispatch:    sink.Dispatch,
	}
}

// Ingest normalizes, cleans and writes req. Row level failures of stores
// that continue past bad rows are reported in the Outcome, not as an error.
func (s *Service) Ingest(ctx context.Context, req Request) (*Outcome, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxFileSize > 0 && int64(len(req.Data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(req.Data), s.maxFileSize)
	}

	srcKind := req.SourceKind
	if srcKind == "" {
		k, err := normalize.DetectSourceKind(req.FileName)
		if err != nil {
			return nil, err
		}
		srcKind = k
	}

	kind, err := sink.ParseKind(req.Target)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ip, ua := ClientFromContext(ctx)
	logger := logging.WithFields(ctx,
		"ingest_id", id,
		"file", req.FileName,
		"source", srcKind,
		"target", kind,
		"table", req.Name,
	)
	if ip != "" {
		logger = logger.With("client_ip", ip, "user_agent", ua)
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	s.metrics.IngestStarted()
	defer s.metrics.IngestFinished()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	logger.Info("ingest started", "bytes", len(req.Data))

	out, err := s.run(ctx, req, srcKind, kind)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordIngest(kind.Label(), "error", 0, 0, elapsed)
		logger.Error("ingest failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}

	out.ID = id
	out.Duration = elapsed
	out.Message = outcomeMessage(out.Label, req.Name, kind, out.Inserted, out.Failed)

	outcome := "ok"
	if out.Failed > 0 {
		outcome = "partial"
	}
	s.metrics.RecordIngest(out.Label, outcome, out.Inserted, out.Failed, elapsed)
	logger.Info("ingest completed",
		"rows", out.Rows,
		"inserted", out.Inserted,
		"failed", out.Failed,
		"duration_ms", elapsed.Milliseconds(),
	)
	return out, nil
}

func (s *Service) run(ctx context.Context, req Request, srcKind normalize.SourceKind, kind sink.Kind) (*Outcome, error) {
	raw, err := normalize.Normalize(req.Data, srcKind)
	if err != nil {
		return nil, err
	}

	ds := clean.Clean(raw)
	if ds.Len() == 0 {
		return nil, &normalize.FormatError{Kind: srcKind, Reason: "no data rows"}
	}

	target, err := s.dispatch(ctx, sink.Descriptor{Kind: kind, Name: req.Name}, s.targets)
	if err != nil {
		return nil, err
	}

	res, err := target.Insert(ctx, ds, req.Name)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Target:   kind,
		Label:    sink.LabelOf(target),
		Name:     req.Name,
		Source:   string(srcKind),
		Rows:     ds.Len(),
		Inserted: res.Inserted,
		Failed:   res.Failed,
		Errors:   res.Errors,
	}, nil
}

func outcomeMessage(label, name string, kind sink.Kind, inserted, failed int) string {
	var b strings.Builder
	b.WriteString("Data successfully inserted into ")
	b.WriteString(label)
	if name != "" && kind != sink.Graph {
		b.WriteString(" in table/collection ")
		b.WriteString(name)
	}
	fmt.Fprintf(&b, " (%d inserted, %d failed)", inserted, failed)
	return b.String()
}

// Drain waits for in-flight ingests to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// TargetInfo describes one store for the target picker.
type TargetInfo struct {
	Kind       sink.Kind `json:"kind"`
	Label      string    `json:"label"`
	Available  bool      `json:"available"`
	Configured bool      `json:"configured"`
	Missing    []string  `json:"missing,omitempty"`
}

// Targets lists every store kind with whether it is linked in and whether
// its settings are complete. Factories do no I/O, so this is cheap.
func (s *Service) Targets(ctx context.Context) []TargetInfo {
	out := make([]TargetInfo, 0, len(sink.Kinds()))
	for _, k := range sink.Kinds() {
		info := TargetInfo{Kind: k, Label: k.Label()}

		_, err := s.dispatch(ctx, sink.Descriptor{Kind: k, Name: "probe"}, s.targets)
		var (
			ute *sink.UnsupportedTargetError
			ce  *sink.ConfigError
		)
		switch {
		case err == nil:
			info.Available, info.Configured = true, true
		case errors.As(err, &ce):
			info.Available = true
			info.Missing = ce.Fields
		case errors.As(err, &ute):
		default:
			info.Available = true
		}
		out = append(out, info)
	}
	return out
}
