// Package witness generates and validates YAML correctness witnesses from a
// converged analysis snapshot.
package witness

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gnolang/witness/internal/analysis/snapshot"
	"github.com/gnolang/witness/internal/filehash"
	"github.com/gnolang/witness/internal/generate"
	"github.com/gnolang/witness/internal/schema"
	"github.com/gnolang/witness/internal/validate"
)

// Version is the producer version written into witnesses.
const Version = "0.1.0"

// hashes is shared by every run of the process.
var hashes = filehash.New()

// sourceHasher resolves source paths relative to the snapshot's directory.
type sourceHasher struct {
	dir string
}

func (h sourceHasher) Hash(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.dir, path)
	}
	return hashes.Hash(path)
}

type run struct {
	snap   *snapshot.Snapshot
	hasher sourceHasher
	task   *schema.Task
}

func load(logger *zap.Logger, config Config, snapshotPath string) (*run, error) {
	snap, err := snapshot.Load(snapshotPath)
	if err != nil {
		return nil, err
	}
	r := &run{snap: snap, hasher: sourceHasher{dir: filepath.Dir(snapshotPath)}}

	files := snap.Graph().Files()
	r.task = &schema.Task{
		InputFiles:      files,
		InputFileHashes: make(map[string]string, len(files)),
		DataModel:       config.Task.DataModel,
		Language:        config.Task.Language,
		Specification:   config.Task.Specification,
	}
	for _, f := range files {
		h, err := r.hasher.Hash(f)
		if err != nil {
			logger.Warn("cannot hash input file", zap.String("file", f), zap.Error(err))
			continue
		}
		r.task.InputFileHashes[f] = h
	}
	return r, nil
}

// Generate writes the witness for the snapshot at snapshotPath to out.
func Generate(ctx context.Context, logger *zap.Logger, config Config, snapshotPath, out string) (generate.Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, invariants, err := config.kinds()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := load(logger, config, snapshotPath)
	if err != nil {
		return nil, err
	}

	gen := generate.New(r.snap, r.snap.Parser(), r.hasher, generate.Config{
		EntryTypes:     entries,
		InvariantTypes: invariants,
		Accessed:       config.Invariant.Accessed,
		LoopHead:       config.Invariant.LoopHead,
		Producer:       config.producer(),
		Task:           r.task,
	}, logger)

	result, summary, err := gen.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to generate witness: %w", err)
	}
	if err := schema.WriteFile(out, schema.Nodes(result)); err != nil {
		return nil, err
	}
	logger.Info("witness written", zap.String("path", out), zap.Int("entries", len(result)))
	return summary, nil
}

// ValidateOptions names the files of one validation run.
type ValidateOptions struct {
	Snapshot string
	Witness  string
	// Certificate is written only when non-empty.
	Certificate string
	// OnRecord reports progress after each witness record.
	OnRecord func(done, total int)
}

// Validate checks the witness against the snapshot and returns the statistics
// of this run.
func Validate(ctx context.Context, logger *zap.Logger, config Config, opts ValidateOptions) (validate.Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, invariants, err := config.kinds()
	if err != nil {
		return validate.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return validate.Stats{}, err
	}

	r, err := load(logger, config, opts.Snapshot)
	if err != nil {
		return validate.Stats{}, err
	}
	records, err := schema.ReadFile(opts.Witness)
	if err != nil {
		return validate.Stats{}, err
	}

	v := validate.New(r.snap, r.snap.Parser(), r.hasher, validate.Config{
		EntryTypes:     entries,
		InvariantTypes: invariants,
		LoopHead:       config.Invariant.LoopHead,
		Producer:       config.producer(),
		Task:           r.task,
	}, logger)
	v.OnRecord = opts.OnRecord

	report := v.Run(records)
	if opts.Certificate != "" {
		if err := schema.WriteFile(opts.Certificate, report.Records); err != nil {
			return report.Stats, err
		}
		logger.Info("certificate written", zap.String("path", opts.Certificate), zap.Int("records", len(report.Records)))
	}
	return report.Stats, nil
}
