package bound

// Conditional is cond ? ifTrue : ifFalse. A nil ifTrue encodes the short
// form cond ?: ifFalse, where the condition's own value is the true result
// and the condition is evaluated once.
type Conditional struct {
	exprBase
	cond, ifTrue, ifFalse Expr
}

// NewConditional creates a conditional choice. ifTrue may be nil.
func NewConditional(cond, ifTrue, ifFalse Expr, access Access) (*Conditional, error) {
	c := &Conditional{cond: cond, ifTrue: ifTrue, ifFalse: ifFalse}
	if err := c.init(KindConditionalChoice, 0, access); err != nil {
		return nil, err
	}
	if err := requireRead(KindConditionalChoice, "condition", cond); err != nil {
		return nil, err
	}
	if err := requireRead(KindConditionalChoice, "false branch", ifFalse); err != nil {
		return nil, err
	}
	children := []Node{cond, ifFalse}
	if ifTrue != nil {
		if err := requireRead(KindConditionalChoice, "true branch", ifTrue); err != nil {
			return nil, err
		}
		children = append(children, ifTrue)
	}
	if cond == ifFalse || (ifTrue != nil && (ifTrue == cond || ifTrue == ifFalse)) {
		return nil, contractf(KindConditionalChoice, "branches must be distinct nodes")
	}
	if err := adopt(KindConditionalChoice, children...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conditional) Condition() Expr { return c.cond }

// IfTrue returns the true branch, or nil for the short form.
func (c *Conditional) IfTrue() Expr  { return c.ifTrue }
func (c *Conditional) IfFalse() Expr { return c.ifFalse }

// IsShort reports whether the true branch is absent.
func (c *Conditional) IsShort() bool { return c.ifTrue == nil }
