package codegen

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/symbols"
)

// Opcode is a stack-machine instruction code.
type Opcode uint8

const (
	// OpPush pushes Value.
	OpPush Opcode = iota + 1
	// OpLoad pushes the value of local Slot.
	OpLoad
	// OpLoadRef pushes a reference to local Slot.
	OpLoadRef
	// OpStore writes the top of stack to local Slot, leaving it in place.
	OpStore
	OpDup
	OpPop
	// OpUnary applies Unary to the top of stack.
	OpUnary
	// OpBinary pops the right then the left operand and applies Binary.
	OpBinary
	// OpInc replaces the top of stack with its successor, or its
	// predecessor when Decrement is set.
	OpInc
	// OpToBool converts the top of stack to a boolean.
	OpToBool
	// OpCall pops Argc arguments, and the receiver when HasInstance is set,
	// then invokes Method and pushes its result.
	OpCall
	// OpJump continues at Target.
	OpJump
	// OpJumpIfFalse pops the top of stack and jumps when it is falsy.
	OpJumpIfFalse
	// OpJumpIfTrue pops the top of stack and jumps when it is truthy.
	OpJumpIfTrue
	// OpJumpIfNotNull jumps, leaving the top of stack in place, when it
	// is not null.
	OpJumpIfNotNull
	// OpReturn pops the return value and leaves the routine.
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpPush:          "push",
	OpLoad:          "load",
	OpLoadRef:       "loadref",
	OpStore:         "store",
	OpDup:           "dup",
	OpPop:           "pop",
	OpUnary:         "unary",
	OpBinary:        "binary",
	OpInc:           "inc",
	OpToBool:        "tobool",
	OpCall:          "call",
	OpJump:          "jump",
	OpJumpIfFalse:   "jumpf",
	OpJumpIfTrue:    "jumpt",
	OpJumpIfNotNull: "jumpnn",
	OpReturn:        "ret",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// IsJump reports whether op transfers control to Target.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse || op == OpJumpIfTrue || op == OpJumpIfNotNull
}

// Instr is one instruction. Only the fields its opcode documents are set.
type Instr struct {
	Op          Opcode
	Value       constant.Value
	Slot        int
	Name        string
	Unary       bound.UnaryOp
	Binary      bound.BinaryOp
	Decrement   bool
	Method      *symbols.Method
	Argc        int
	HasInstance bool
	Target      int
	Line        int
}

func (in Instr) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s", in.Op)
	switch in.Op {
	case OpPush:
		fmt.Fprintf(&b, "%s(%s)", in.Value.Kind(), quote(in.Value))
	case OpLoad, OpLoadRef, OpStore:
		fmt.Fprintf(&b, "$%s", in.Name)
	case OpUnary:
		b.WriteString(in.Unary.String())
	case OpBinary:
		b.WriteString(in.Binary.String())
	case OpInc:
		if in.Decrement {
			b.WriteString("-1")
		} else {
			b.WriteString("+1")
		}
	case OpCall:
		fmt.Fprintf(&b, "%s/%d", in.Method, in.Argc)
		if in.HasInstance {
			b.WriteString(" +this")
		}
	case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfNotNull:
		fmt.Fprintf(&b, "%04d", in.Target)
	}
	return strings.TrimRight(b.String(), " ")
}

func quote(v constant.Value) string {
	if s, ok := v.(constant.String); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}

// Program is the emitted code of one routine.
type Program struct {
	Name   string
	Method *symbols.Method
	// Locals names the variable slots, indexed by slot.
	Locals []string
	Code   []Instr
}

// WriteListing writes a human-readable listing of p.
func (p *Program) WriteListing(w io.Writer) error {
	locals := make([]string, len(p.Locals))
	for i, name := range p.Locals {
		locals[i] = "$" + name
	}
	if _, err := fmt.Fprintf(w, "routine %s (locals: %s)\n", p.Name, strings.Join(locals, ", ")); err != nil {
		return err
	}
	for i, in := range p.Code {
		if _, err := fmt.Fprintf(w, "  %04d  %s\n", i, in); err != nil {
			return err
		}
	}
	return nil
}

// Listing returns the listing of p as a string.
func (p *Program) Listing() string {
	var b strings.Builder
	_ = p.WriteListing(&b)
	return b.String()
}
