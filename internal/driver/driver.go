// Package driver runs the compilation pipeline over one source file.
//
// Declarations are collected first and the symbol table is frozen. Every
// routine body is then bound, resolved, typed, folded and optionally
// emitted on its own worker. Workers share the frozen table read-only and
// write diagnostics into a common bag.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/boundc/internal/binder"
	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/codegen"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/flow"
	"github.com/roach88/boundc/internal/fold"
	"github.com/roach88/boundc/internal/resolve"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
)

// Driver compiles syntax documents. It is safe to reuse across files; each
// compilation builds its own symbol table.
type Driver struct {
	libraries []string
	libSource map[string]string
	jobs      int
	emit      bool
	logger    *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLibraryDir loads every .cue file in dir after the standard library.
func WithLibraryDir(dir string) Option {
	return func(d *Driver) { d.libraries = append(d.libraries, dir) }
}

// WithLibrarySource loads CUE declarations held in memory, named filename
// in error positions.
func WithLibrarySource(filename, src string) Option {
	return func(d *Driver) { d.libSource[filename] = src }
}

// WithJobs bounds the number of routines compiled at once. Values below 1
// mean one per CPU.
func WithJobs(n int) Option {
	return func(d *Driver) { d.jobs = n }
}

// WithEmit enables IL emission for routines without invalid nodes.
func WithEmit(enabled bool) Option {
	return func(d *Driver) { d.emit = enabled }
}

// WithLogger sets the logger for pipeline progress.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New creates a driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		libSource: make(map[string]string),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.jobs < 1 {
		d.jobs = runtime.GOMAXPROCS(0)
	}
	return d
}

// RoutineResult is the outcome for one routine.
type RoutineResult struct {
	Routine *bound.Routine
	Folded  fold.Stats
	// Invalid counts nodes marked invalid by binding or resolution.
	Invalid int
	// Program is set when emission is enabled and succeeded.
	Program *codegen.Program
	// EmitErr explains why emission was refused.
	EmitErr error
}

// Result is the outcome of compiling one file.
type Result struct {
	Unit        *bound.Unit
	Diagnostics *diag.Bag
	// Routines holds Main first, then functions in declaration order.
	Routines []*RoutineResult
}

// InvalidNodes counts invalid nodes across every routine.
func (r *Result) InvalidNodes() int {
	n := 0
	for _, rr := range r.Routines {
		n += rr.Invalid
	}
	return n
}

// OK reports whether the file compiled without errors or invalid nodes.
func (r *Result) OK() bool {
	return !r.Diagnostics.HasErrors() && r.InvalidNodes() == 0
}

// Lookup returns the result for the routine named name.
func (r *Result) Lookup(name string) (*RoutineResult, bool) {
	for _, rr := range r.Routines {
		if rr.Routine.Name == name {
			return rr, true
		}
	}
	return nil, false
}

// CompileFile loads path and compiles it.
func (d *Driver) CompileFile(ctx context.Context, path string) (*Result, error) {
	f, err := syntax.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Compile(ctx, f)
}

// Compile runs the pipeline over f. User errors in the source become
// diagnostics and invalid nodes; the returned error is reserved for
// library loading failures, contract violations and cancellation.
func (d *Driver) Compile(ctx context.Context, f *syntax.File) (*Result, error) {
	start := time.Now()
	table, err := d.loadTable()
	if err != nil {
		return nil, err
	}

	bag := diag.NewBag()
	if err := binder.Declare(table, f, bag.Reporter(f.Path, "")); err != nil {
		return nil, fmt.Errorf("declare: %w", err)
	}
	table.Freeze()
	d.logger.Debug("declarations collected",
		"path", f.Path,
		"functions", table.FunctionCount(),
		"classes", table.ClassCount(),
	)

	jobs := make([]func() (*bound.Routine, error), 0, len(f.Functions)+1)
	jobs = append(jobs, func() (*bound.Routine, error) {
		return binder.New(table, bag.Reporter(f.Path, "main"), f.Namespace).BindMain(f.Main)
	})
	for _, fn := range f.Functions {
		jobs = append(jobs, func() (*bound.Routine, error) {
			return binder.New(table, bag.Reporter(f.Path, fn.Name), f.Namespace).BindFunction(fn)
		})
	}

	results := make([]*RoutineResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.jobs)
	for i, bind := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := bind()
			if err != nil {
				return fmt.Errorf("bind: %w", err)
			}
			rr, err := d.compileRoutine(table, bag.Reporter(f.Path, r.Name), r)
			if err != nil {
				return err
			}
			results[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unit := &bound.Unit{Path: f.Path, Table: table, Main: results[0].Routine}
	for _, rr := range results[1:] {
		unit.Routines = append(unit.Routines, rr.Routine)
	}
	res := &Result{Unit: unit, Diagnostics: bag, Routines: results}
	d.logger.Info("compiled",
		"path", f.Path,
		"routines", len(results),
		"errors", bag.ErrorCount(),
		"warnings", bag.WarningCount(),
		"invalid_nodes", res.InvalidNodes(),
		"duration", time.Since(start),
	)
	return res, nil
}

func (d *Driver) compileRoutine(table *symbols.Table, rep *diag.Reporter, r *bound.Routine) (*RoutineResult, error) {
	if err := resolve.Routine(table, rep, r); err != nil {
		return nil, err
	}
	if err := flow.Infer(table, r); err != nil {
		return nil, fmt.Errorf("infer %s: %w", r.Name, err)
	}
	stats, err := fold.Routine(r)
	if err != nil {
		return nil, fmt.Errorf("fold %s: %w", r.Name, err)
	}
	rr := &RoutineResult{Routine: r, Folded: stats, Invalid: countInvalid(r)}
	d.logger.Debug("routine bound",
		"routine", r.Name,
		"locals", len(r.Locals),
		"folded", stats.Folded,
		"invalid_nodes", rr.Invalid,
	)
	if d.emit {
		rr.Program, rr.EmitErr = codegen.Emit(r)
		if rr.EmitErr != nil {
			d.logger.Debug("emission refused", "routine", r.Name, "error", rr.EmitErr)
		}
	}
	return rr, nil
}

// ErrLibrary wraps every failure to load a symbol library.
var ErrLibrary = errors.New("load library")

func (d *Driver) loadTable() (*symbols.Table, error) {
	table := symbols.NewTable()
	if err := symbols.LoadStdlib(table); err != nil {
		return nil, fmt.Errorf("%w: standard library: %w", ErrLibrary, err)
	}
	for _, dir := range d.libraries {
		if err := symbols.LoadLibraryDir(table, dir); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrLibrary, dir, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(d.libSource)) {
		src := d.libSource[name]
		if err := symbols.LoadLibraryString(table, name, src); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrLibrary, name, err)
		}
	}
	return table, nil
}

func countInvalid(r *bound.Routine) int {
	n := 0
	_ = bound.Walker{Pre: func(node bound.Node) error {
		if e, ok := node.(bound.Expr); ok && e.IsInvalid() {
			n++
		}
		return nil
	}}.WalkRoutine(r)
	return n
}
