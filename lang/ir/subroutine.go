package ir

import (
	"fmt"
	"strings"
)

// Command is one item of a pre-subroutine: either an instruction (ICmd) or
// a branch label definition (BranchLabel).
type Command interface {
	fmt.Stringer
	command()
}

// ICmd is a single generic instruction with its operands.
type ICmd struct {
	Instruction GenericInstr
	Operands    []Operand
}

func (*ICmd) command() {}

func (c *ICmd) String() string {
	if len(c.Operands) == 0 {
		return c.Instruction.String()
	}
	ops := make([]string, len(c.Operands))
	for i, op := range c.Operands {
		ops[i] = op.String()
	}
	return fmt.Sprintf("%s %s", c.Instruction, strings.Join(ops, " "))
}

// NewICmd builds an instruction command.
func NewICmd(instr GenericInstr, operands ...Operand) *ICmd {
	return &ICmd{Instruction: instr, Operands: operands}
}

// BranchLabel defines a named point in the subroutine that branch
// instructions can target. Names are unique within one subroutine.
type BranchLabel struct {
	Name Label
}

func (*BranchLabel) command() {}

func (l *BranchLabel) String() string { return string(l.Name) + ":" }

// ArrayDecl records one array declared by the subroutine.
type ArrayDecl struct {
	Address Address
	Length  int
}

// PreSubroutine is the ordered list of commands produced by the builder,
// together with the subroutine's array table and return declarations.
// It is the input to downstream assembly into binary NetQASM.
type PreSubroutine struct {
	AppName         string
	Commands        []Command
	Arrays          []ArrayDecl
	ReturnRegisters []Register
	ReturnArrays    []Address
}

// InstrCount returns the number of ICmd items (labels excluded).
func (s *PreSubroutine) InstrCount() int {
	n := 0
	for _, cmd := range s.Commands {
		if _, ok := cmd.(*ICmd); ok {
			n++
		}
	}
	return n
}

func (s *PreSubroutine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PreSubroutine (%s)\n", s.AppName)
	for i, cmd := range s.Commands {
		if _, ok := cmd.(*BranchLabel); ok {
			fmt.Fprintf(&sb, "     %s\n", cmd)
		} else {
			fmt.Fprintf(&sb, "%4d %s\n", i, cmd)
		}
	}
	return sb.String()
}

// Validate checks the structural invariants assembly relies on: label names
// are unique, every branch target is defined, and operand counts match the
// instruction descriptors. All problems found are returned.
func (s *PreSubroutine) Validate() []string {
	var problems []string

	defined := map[Label]bool{}
	for _, cmd := range s.Commands {
		if lbl, ok := cmd.(*BranchLabel); ok {
			if defined[lbl.Name] {
				problems = append(problems, fmt.Sprintf("duplicate label %q", lbl.Name))
			}
			defined[lbl.Name] = true
		}
	}

	for i, cmd := range s.Commands {
		icmd, ok := cmd.(*ICmd)
		if !ok {
			continue
		}
		desc, known := Descriptor(icmd.Instruction)
		if !known {
			problems = append(problems, fmt.Sprintf("command %d: unknown instruction", i))
			continue
		}
		if desc.NumOperands >= 0 && len(icmd.Operands) != desc.NumOperands {
			problems = append(problems, fmt.Sprintf(
				"command %d (%s): %d operands, want %d",
				i, icmd.Instruction, len(icmd.Operands), desc.NumOperands))
		}
		for _, op := range icmd.Operands {
			if target, ok := op.(Label); ok && !defined[target] {
				problems = append(problems, fmt.Sprintf(
					"command %d (%s): undefined label %q", i, icmd.Instruction, target))
			}
		}
	}

	return problems
}
