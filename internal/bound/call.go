package bound

import (
	"slices"

	"github.com/roach88/boundc/internal/symbols"
)

// Argument wraps one value supplied to a call. It is owned by exactly one
// call node and is matched to a formal parameter during resolution.
type Argument struct {
	value     Expr
	parameter Slot[*symbols.Parameter]
	owned     bool
}

// NewArgument wraps value as a positional argument.
func NewArgument(value Expr) (*Argument, error) {
	if value == nil {
		return nil, contractf(KindArgument, "value is required")
	}
	if err := adopt(KindArgument, value); err != nil {
		return nil, err
	}
	return &Argument{value: value}, nil
}

func (a *Argument) Kind() Kind  { return KindArgument }
func (a *Argument) boundNode()  {}
func (a *Argument) Value() Expr { return a.value }

// IsPositional is always true: named and spread arguments are not
// modelled.
func (a *Argument) IsPositional() bool { return true }

// Parameter returns the matched formal parameter, if any.
func (a *Argument) Parameter() (*symbols.Parameter, bool) { return a.parameter.Get() }

// BindParameter records the formal parameter this argument was matched to.
func (a *Argument) BindParameter(p *symbols.Parameter) error {
	if p == nil {
		return contractf(KindArgument, "parameter must not be nil")
	}
	return a.parameter.Set(KindArgument, "parameter", p)
}

// Call is the single shape shared by function calls, constructor calls,
// echo and string concatenation. Call-site variations are data: the form,
// the presence of an instance, a function name with an optional fallback,
// or a type name.
type Call struct {
	exprBase
	form     CallForm
	name     symbols.QualifiedName
	fallback symbols.QualifiedName
	typeName symbols.QualifiedName
	instance Expr
	args     []*Argument
	target   Slot[*symbols.Method]
}

// CallOption configures optional call-site data.
type CallOption func(*Call)

// WithInstance supplies the receiver evaluated before the arguments.
func WithInstance(instance Expr) CallOption {
	return func(c *Call) { c.instance = instance }
}

// WithFallback supplies an alternative name tried when the primary name
// does not resolve.
func WithFallback(name symbols.QualifiedName) CallOption {
	return func(c *Call) { c.fallback = name }
}

// NewFunctionCall creates an unresolved call to a named function.
func NewFunctionCall(name symbols.QualifiedName, args []*Argument, access Access, opts ...CallOption) (*Call, error) {
	if name.IsEmpty() {
		return nil, contractf(KindInvocation, "function name is required")
	}
	return newCall(CallFunction, func(c *Call) { c.name = name }, args, access, opts)
}

// NewNew creates an unresolved constructor call for a class name.
func NewNew(typeName symbols.QualifiedName, args []*Argument, access Access, opts ...CallOption) (*Call, error) {
	if typeName.IsEmpty() {
		return nil, contractf(KindInvocation, "type name is required")
	}
	return newCall(CallNew, func(c *Call) { c.typeName = typeName }, args, access, opts)
}

// NewEcho creates an output-emission call whose operands are its
// arguments.
func NewEcho(args []*Argument, access Access) (*Call, error) {
	return newCall(CallEcho, nil, args, access, nil)
}

// NewConcat creates a string-concatenation call whose operands are its
// arguments.
func NewConcat(args []*Argument, access Access) (*Call, error) {
	if len(args) == 0 {
		return nil, contractf(KindInvocation, "concat requires at least one operand")
	}
	return newCall(CallConcat, nil, args, access, nil)
}

func newCall(form CallForm, set func(*Call), args []*Argument, access Access, opts []CallOption) (*Call, error) {
	c := &Call{form: form}
	if err := c.init(KindInvocation, form, access); err != nil {
		return nil, err
	}
	if set != nil {
		set(c)
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.fallback.IsEmpty() && form != CallFunction {
		return nil, contractf(KindInvocation, "fallback name is only valid on function calls")
	}

	children := make([]Node, 0, len(args)+1)
	if c.instance != nil {
		if err := requireRead(KindInvocation, "instance", c.instance); err != nil {
			return nil, err
		}
		children = append(children, c.instance)
	}
	for i, a := range args {
		if a == nil {
			return nil, contractf(KindInvocation, "argument %d is nil", i)
		}
		if slices.Contains(args[:i], a) {
			return nil, contractf(KindInvocation, "argument %d appears twice", i)
		}
		children = append(children, a)
	}
	if err := adopt(KindInvocation, children...); err != nil {
		return nil, err
	}

	c.args = slices.Clone(args)
	return c, nil
}

// Form returns which call shape this node represents.
func (c *Call) Form() CallForm { return c.form }

// Name returns the function name for function calls.
func (c *Call) Name() symbols.QualifiedName { return c.name }

// FallbackName returns the alternative function name, if any.
func (c *Call) FallbackName() (symbols.QualifiedName, bool) {
	return c.fallback, !c.fallback.IsEmpty()
}

// TypeName returns the instantiated class name for constructor calls.
func (c *Call) TypeName() symbols.QualifiedName { return c.typeName }

// Instance returns the receiver, or nil.
func (c *Call) Instance() Expr { return c.instance }

// Arguments returns the arguments in source order. The slice must not be
// modified.
func (c *Call) Arguments() []*Argument { return c.args }

// IsVirtual is false for every current call form.
func (c *Call) IsVirtual() bool { return false }

// Target returns the resolved method: the function, the constructor, or
// the intrinsic for echo and concat.
func (c *Call) Target() (*symbols.Method, bool) { return c.target.Get() }

// ResolveTarget records the method the call invokes.
func (c *Call) ResolveTarget(m *symbols.Method) error {
	if m == nil {
		return contractf(KindInvocation, "target method must not be nil")
	}
	return c.target.Set(KindInvocation, "target method", m)
}

// RebindTarget replaces the resolved target during error recovery.
func (c *Call) RebindTarget(m *symbols.Method) { c.target.Rebind(m) }

// ArgumentMatching returns the argument matched to parameter p. A false
// result means the parameter took its default value or was not supplied.
func (c *Call) ArgumentMatching(p *symbols.Parameter) (*Argument, bool) {
	if p == nil {
		return nil, false
	}
	for _, a := range c.args {
		if bound, ok := a.Parameter(); ok && bound == p {
			return a, true
		}
	}
	return nil, false
}
