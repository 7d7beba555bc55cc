package bound

import "fmt"

// Kind discriminates bound node shapes.
type Kind uint8

const (
	KindLiteral Kind = iota + 1
	KindUnary
	KindBinary
	KindLocalReference
	KindInvocation
	KindAssignment
	KindCompoundAssignment
	KindIncrement
	KindConditionalChoice
	KindArgument
)

var kindNames = map[Kind]string{
	KindLiteral:            "Literal",
	KindUnary:              "Unary",
	KindBinary:             "Binary",
	KindLocalReference:     "LocalReference",
	KindInvocation:         "Invocation",
	KindAssignment:         "Assignment",
	KindCompoundAssignment: "CompoundAssignment",
	KindIncrement:          "Increment",
	KindConditionalChoice:  "ConditionalChoice",
	KindArgument:           "Argument",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// AllKinds lists every node kind.
func AllKinds() []Kind {
	return []Kind{
		KindLiteral, KindUnary, KindBinary, KindLocalReference, KindInvocation,
		KindAssignment, KindCompoundAssignment, KindIncrement,
		KindConditionalChoice, KindArgument,
	}
}

// CallForm distinguishes the call shapes sharing *Call.
type CallForm uint8

const (
	CallFunction CallForm = iota
	CallNew
	CallEcho
	CallConcat
)

func (f CallForm) String() string {
	switch f {
	case CallFunction:
		return "function"
	case CallNew:
		return "new"
	case CallEcho:
		return "echo"
	case CallConcat:
		return "concat"
	default:
		return fmt.Sprintf("CallForm(%d)", uint8(f))
	}
}

// BinaryOp is the operator of a binary or compound-assignment node.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpConcat
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpAnd
	OpOr
	OpXor
	OpEqual
	OpNotEqual
	OpIdentical
	OpNotIdentical
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpCoalesce
)

var binaryOpSymbols = map[BinaryOp]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpPow:          "**",
	OpConcat:       ".",
	OpBitAnd:       "&",
	OpBitOr:        "|",
	OpBitXor:       "^",
	OpShiftLeft:    "<<",
	OpShiftRight:   ">>",
	OpAnd:          "&&",
	OpOr:           "||",
	OpXor:          "xor",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpIdentical:    "===",
	OpNotIdentical: "!==",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpCoalesce:     "??",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

// IsValid reports whether op is a declared binary operator.
func (op BinaryOp) IsValid() bool {
	_, ok := binaryOpSymbols[op]
	return ok
}

// IsComparison reports whether op yields a boolean comparison result.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterEqual
}

// IsLogical reports whether op is a short-circuit or boolean operator.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

// IsCompoundable reports whether op may appear in a compound assignment
// such as "+=" or ".=".
func (op BinaryOp) IsCompoundable() bool {
	return op.IsValid() && !op.IsComparison() && !op.IsLogical()
}

// ParseBinaryOp maps an operator symbol to its BinaryOp.
func ParseBinaryOp(symbol string) (BinaryOp, bool) {
	for op, s := range binaryOpSymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

// UnaryOp is the operator of a unary node.
type UnaryOp uint8

const (
	OpMinus UnaryOp = iota + 1
	OpPlus
	OpLogicNot
	OpBitNot
	OpCastInt
	OpCastFloat
	OpCastString
	OpCastBool
)

var unaryOpSymbols = map[UnaryOp]string{
	OpMinus:      "-",
	OpPlus:       "+",
	OpLogicNot:   "!",
	OpBitNot:     "~",
	OpCastInt:    "(int)",
	OpCastFloat:  "(float)",
	OpCastString: "(string)",
	OpCastBool:   "(bool)",
}

func (op UnaryOp) String() string {
	if s, ok := unaryOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("UnaryOp(%d)", uint8(op))
}

// IsValid reports whether op is a declared unary operator.
func (op UnaryOp) IsValid() bool {
	_, ok := unaryOpSymbols[op]
	return ok
}

// ParseUnaryOp maps an operator symbol to its UnaryOp.
func ParseUnaryOp(symbol string) (UnaryOp, bool) {
	for op, s := range unaryOpSymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

// IncKind is the flavour of an increment node.
type IncKind uint8

const (
	PrefixIncrement IncKind = iota + 1
	PrefixDecrement
	PostfixIncrement
	PostfixDecrement
)

func (k IncKind) String() string {
	switch k {
	case PrefixIncrement:
		return "++x"
	case PrefixDecrement:
		return "--x"
	case PostfixIncrement:
		return "x++"
	case PostfixDecrement:
		return "x--"
	default:
		return fmt.Sprintf("IncKind(%d)", uint8(k))
	}
}

// IsValid reports whether k is one of the four increment kinds.
func (k IncKind) IsValid() bool { return k >= PrefixIncrement && k <= PostfixDecrement }

// IsPrefix reports whether the updated value is the result.
func (k IncKind) IsPrefix() bool { return k == PrefixIncrement || k == PrefixDecrement }

// IsIncrement reports whether the target grows by one.
func (k IncKind) IsIncrement() bool { return k == PrefixIncrement || k == PostfixIncrement }

// ParseIncKind maps "++x", "--x", "x++" or "x--" to its IncKind.
func ParseIncKind(s string) (IncKind, bool) {
	for k := PrefixIncrement; k <= PostfixDecrement; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
