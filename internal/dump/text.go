package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/boundc/internal/bound"
)

// WriteText writes an indented, human-readable rendering of u: one line
// per node with its kind, details and annotations.
func WriteText(w io.Writer, u *bound.Unit) error {
	for i, r := range u.AllRoutines() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := WriteRoutineText(w, r); err != nil {
			return err
		}
	}
	return nil
}

// WriteRoutineText renders one routine.
func WriteRoutineText(w io.Writer, r *bound.Routine) error {
	tw := &textWriter{w: w, r: r}
	names := make([]string, len(r.Locals))
	for i, v := range r.Locals {
		names[i] = v.String()
	}
	tw.linef(0, "routine %s", r.Name)
	if len(names) > 0 {
		tw.linef(1, "locals: %s", strings.Join(names, ", "))
	}
	for _, st := range r.Body {
		if st.Line > 0 {
			tw.linef(1, "%s @%d", st.Kind, st.Line)
		} else {
			tw.linef(1, "%s", st.Kind)
		}
		if st.Expr != nil {
			tw.node(2, st.Expr)
		}
	}
	return tw.err
}

type textWriter struct {
	w   io.Writer
	r   *bound.Routine
	err error
}

func (tw *textWriter) linef(depth int, format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (tw *textWriter) node(depth int, n bound.Node) {
	if n == nil {
		if tw.err == nil {
			tw.err = fmt.Errorf("nil node")
		}
		return
	}
	obj := describe(n)
	var b strings.Builder
	b.WriteString(n.Kind().String())
	for _, key := range []string{"form", "op", "inc", "name", "short"} {
		if v, ok := obj[key]; ok {
			fmt.Fprintf(&b, " %s=%s", key, scalar(v))
		}
	}
	for _, key := range []string{"access", "mask", "type", "variable", "target", "fallback", "operator", "parameter"} {
		if v, ok := obj[key]; ok {
			fmt.Fprintf(&b, " %s=%s", key, scalar(v))
		}
	}
	if c, ok := obj["constant"].(Object); ok {
		fmt.Fprintf(&b, " const=%s(%s)", scalar(c["kind"]), scalar(c["value"]))
	}
	if line := tw.r.LineOf(n); line > 0 {
		fmt.Fprintf(&b, " @%d", line)
	}
	if reason, ok := obj["invalid"]; ok {
		fmt.Fprintf(&b, " INVALID(%s)", scalar(reason))
	}
	tw.linef(depth, "%s", b.String())
	for _, c := range bound.Children(n) {
		tw.node(depth+1, c)
	}
}

func scalar(v Value) string {
	switch x := v.(type) {
	case String:
		return string(x)
	case Int:
		return fmt.Sprint(int64(x))
	case Bool:
		return fmt.Sprint(bool(x))
	}
	return fmt.Sprintf("%v", v)
}
