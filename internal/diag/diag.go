// Package diag collects user-facing diagnostics from every routine of a
// compilation. A Bag is safe for concurrent use by per-routine workers.
package diag

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic codes. B codes come from binding and resolution.
const (
	ErrUndefinedFunction  = "B0001"
	ErrUndefinedClass     = "B0002"
	ErrTooFewArguments    = "B0003"
	WarnTooManyArguments  = "B0004"
	ErrMalformedSyntax    = "B0005"
	ErrUnknownOperator    = "B0006"
	ErrNotAssignable      = "B0007"
	ErrDuplicateDecl      = "B0008"
	WarnRefArgNotVariable = "B0009"
	WarnUndefinedVariable = "B0010"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	Routine  string   `json:"routine,omitempty"`
	Line     int      `json:"line,omitempty"`
}

func (d *Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, d.Line)
	}
	if loc != "" {
		loc += ": "
	}
	return fmt.Sprintf("%s%s[%s]: %s", loc, d.Severity, d.Code, d.Message)
}

// Bag collects diagnostics during compilation.
type Bag struct {
	mu          sync.Mutex
	diagnostics []*Diagnostic
	errorCount  int
	warnCount   int
}

// NewBag creates an empty bag.
func NewBag() *Bag {
	return &Bag{diagnostics: make([]*Diagnostic, 0)}
}

// Add adds a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.diagnostics = append(b.diagnostics, d)
	switch d.Severity {
	case Error:
		b.errorCount++
	case Warning:
		b.warnCount++
	}
}

// HasErrors returns true if there are any errors.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount > 0
}

// ErrorCount returns the number of errors.
func (b *Bag) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount
}

// WarningCount returns the number of warnings.
func (b *Bag) WarningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.warnCount
}

// Diagnostics returns the diagnostics ordered by path, line, code and
// message, independent of the order concurrent workers reported them.
func (b *Bag) Diagnostics() []*Diagnostic {
	b.mu.Lock()
	result := make([]*Diagnostic, len(b.diagnostics))
	copy(result, b.diagnostics)
	b.mu.Unlock()

	slices.SortStableFunc(result, func(x, y *Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Path, y.Path),
			cmp.Compare(x.Line, y.Line),
			cmp.Compare(x.Code, y.Code),
			cmp.Compare(x.Message, y.Message),
		)
	})
	return result
}

// WriteTo prints every diagnostic followed by a summary line.
func (b *Bag) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, d := range b.Diagnostics() {
		k, err := fmt.Fprintln(w, d.String())
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	errs, warns := b.ErrorCount(), b.WarningCount()
	var k int
	var err error
	switch {
	case errs > 0:
		k, err = fmt.Fprintf(w, "compilation failed with %d error(s) and %d warning(s)\n", errs, warns)
	case warns > 0:
		k, err = fmt.Fprintf(w, "compilation succeeded with %d warning(s)\n", warns)
	}
	return n + int64(k), err
}

// Reporter stamps diagnostics with the file and routine they belong to.
type Reporter struct {
	bag     *Bag
	path    string
	routine string
}

// Reporter returns a Reporter writing into b for one routine.
func (b *Bag) Reporter(path, routine string) *Reporter {
	return &Reporter{bag: b, path: path, routine: routine}
}

// Errorf records an error diagnostic.
func (r *Reporter) Errorf(line int, code, format string, args ...any) {
	r.report(Error, line, code, format, args...)
}

// Warnf records a warning diagnostic.
func (r *Reporter) Warnf(line int, code, format string, args ...any) {
	r.report(Warning, line, code, format, args...)
}

func (r *Reporter) report(sev Severity, line int, code, format string, args ...any) {
	r.bag.Add(&Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     r.path,
		Routine:  r.routine,
		Line:     line,
	})
}
