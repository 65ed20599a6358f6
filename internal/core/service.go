package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/emrexport/internal/logging"
	"github.com/google/uuid"
)

// Conn is a database connection held for the length of one run.
// Satisfied by *sqlx.DB.
type Conn interface {
	DB
	Close() error
}

// ConnectFunc opens the connection used by a single run.
type ConnectFunc func(ctx context.Context) (Conn, error)

// Exporter writes a finished TableSet somewhere and returns its location.
type Exporter interface {
	Export(set *TableSet) (string, error)
}

// Options tune a Service. Zero values select the defaults.
type Options struct {
	// Sheets lists the workbook sheets in order. Defaults to the registry.
	Sheets []SheetDefinition

	// Reference locates the code reference table.
	// Defaults to DefaultReferenceSource.
	Reference ReferenceSource

	// RunWait is how long Run waits for an active run before failing
	// with ErrRunInProgress.
	RunWait time.Duration
}

// SheetSummary describes one exported sheet.
type SheetSummary struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	RunID    string         `json:"run_id"`
	Path     string         `json:"path"`
	Sheets   []SheetSummary `json:"sheets"`
	Duration time.Duration  `json:"duration_ns"`
}

// Service runs the export pipeline: extract every sheet, normalize units,
// resolve coded values, and hand the result to the Exporter.
type Service struct {
	connect   ConnectFunc
	exporter  Exporter
	sheets    []SheetDefinition
	reference ReferenceSource
	limiter   *RunLimiter
}

// NewService creates a Service.
func NewService(connect ConnectFunc, exporter Exporter, opts Options) (*Service, error) {
	if connect == nil {
		return nil, errors.New("service: connect func is required")
	}
	if exporter == nil {
		return nil, errors.New("service: exporter is required")
	}

	sheets := opts.Sheets
	if sheets == nil {
		sheets = Sheets()
	}
	if len(sheets) == 0 {
		return nil, errors.New("service: no sheets registered")
	}

	ref := opts.Reference
	if ref.Table == "" {
		ref = DefaultReferenceSource
	}

	return &Service{
		connect:   connect,
		exporter:  exporter,
		sheets:    append([]SheetDefinition(nil), sheets...),
		reference: ref,
		limiter:   NewRunLimiter(opts.RunWait),
	}, nil
}

// Sheets returns the sheet definitions the service exports.
func (s *Service) Sheets() []SheetDefinition {
	return append([]SheetDefinition(nil), s.sheets...)
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool {
	return s.limiter.Active()
}

// WaitForRun blocks until the active run, if any, has finished.
func (s *Service) WaitForRun(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Run executes one export. It opens a connection, builds every sheet in
// order and exports the workbook. The first failure aborts the run before
// anything is written.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return RunResult{}, err
	}
	defer s.limiter.Release()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)
	start := time.Now()

	logger.Info("export started", "sheets", len(s.sheets))

	set, summaries, err := s.build(ctx)
	if err != nil {
		logger.Error("export failed", "stage", "extract", "error", err)
		return RunResult{}, err
	}

	path, err := s.exporter.Export(set)
	if err != nil {
		if !errors.Is(err, ErrExport) {
			err = fmt.Errorf("%w: %w", ErrExport, err)
		}
		logger.Error("export failed", "stage", "write", "error", err)
		return RunResult{}, err
	}

	result := RunResult{
		RunID:    runID,
		Path:     path,
		Sheets:   summaries,
		Duration: time.Since(start),
	}

	logger.Info("export completed",
		"path", path,
		"sheets", len(summaries),
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// build extracts and transforms every sheet over one connection.
// The connection is closed before build returns.
func (s *Service) build(ctx context.Context) (*TableSet, []SheetSummary, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		if !errors.Is(err, ErrConnection) {
			err = fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return nil, nil, err
	}
	defer conn.Close()

	return s.Build(ctx, conn)
}

// Build extracts every sheet through db and applies the sheet's
// transformations. Extraction is strictly sequential and completes for all
// sheets before any transformation runs.
func (s *Service) Build(ctx context.Context, db DB) (*TableSet, []SheetSummary, error) {
	extractor := NewExtractor(db)

	tables := make([]Table, len(s.sheets))
	for i, def := range s.sheets {
		t, err := extractor.Extract(ctx, def.Source, def.Policy)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s: %w", def.Name, err)
		}
		tables[i] = t
	}

	var ref *CodeReference
	if categories := codeCategories(s.sheets); len(categories) > 0 {
		loaded, err := LoadCodeReference(ctx, db, s.reference, categories)
		if err != nil {
			return nil, nil, fmt.Errorf("code reference: %w", err)
		}
		ref = loaded
	}

	set := NewTableSet()
	summaries := make([]SheetSummary, 0, len(s.sheets))
	for i, def := range s.sheets {
		t := tables[i]
		if def.Metric {
			t = ConvertToMetric(t)
		}
		if len(def.Codes) > 0 {
			t = ResolveTitles(t, def.Codes, ref)
		}
		if err := set.Add(def.Name, t); err != nil {
			return nil, nil, err
		}
		summaries = append(summaries, SheetSummary{
			Name:    def.Name,
			Source:  def.Source,
			Rows:    t.Len(),
			Columns: t.Width(),
		})
	}

	return set, summaries, nil
}
