// Package inspect provides a pattern-matching view over pre-subroutines,
// used by tests and diagnostics to assert instruction-sequence shapes
// without fixing exact operand values.
package inspect

import (
	"fmt"

	"github.com/Doomsk/netqasm/lang/ir"
)

// Wildcard is a non-literal pattern element.
type Wildcard uint8

const (
	// AnyOne matches any single command.
	AnyOne Wildcard = iota
	// AnyZeroOrMore skips forward until the following pattern element
	// matches. It must be followed by a literal instruction or
	// BranchLabel and may not start or end a pattern.
	AnyZeroOrMore
	// BranchLabel matches any label definition.
	BranchLabel
)

func (w Wildcard) String() string {
	switch w {
	case AnyOne:
		return "ANY_ONE"
	case AnyZeroOrMore:
		return "ANY_ZERO_OR_MORE"
	case BranchLabel:
		return "BRANCH_LABEL"
	}
	return "unknown"
}

// Pattern is a sequence of ir.GenericInstr and Wildcard elements.
type Pattern []any

// validate panics on malformed patterns; pattern mistakes are programming
// errors in the caller, not runtime conditions.
func (p Pattern) validate() {
	for i, elem := range p {
		switch e := elem.(type) {
		case ir.GenericInstr:
		case Wildcard:
			if e != AnyZeroOrMore {
				continue
			}
			if i == 0 {
				panic("inspect: wildcard at start of pattern not allowed")
			}
			if i == len(p)-1 {
				panic("inspect: wildcard at end of pattern not allowed")
			}
			switch next := p[i+1].(type) {
			case ir.GenericInstr:
			case Wildcard:
				if next != BranchLabel {
					panic("inspect: wildcard directly after ANY_ZERO_OR_MORE not allowed")
				}
			}
		default:
			panic(fmt.Sprintf("inspect: invalid pattern element %v", elem))
		}
	}
}

// matchesLiteral reports whether one command matches a literal instruction
// or BranchLabel pattern element.
func matchesLiteral(cmd ir.Command, elem any) bool {
	switch e := elem.(type) {
	case ir.GenericInstr:
		icmd, ok := cmd.(*ir.ICmd)
		return ok && icmd.Instruction == e
	case Wildcard:
		if e == BranchLabel {
			_, ok := cmd.(*ir.BranchLabel)
			return ok
		}
	}
	return false
}

// matchFrom tries to match the whole pattern against commands starting at
// offset start, consuming commands consecutively. AnyZeroOrMore is
// greedy-minimal: it consumes up to the first command matching the next
// element.
func matchFrom(commands []ir.Command, p Pattern, start int) bool {
	ci := start
	for pi := 0; pi < len(p); pi++ {
		switch e := p[pi].(type) {
		case ir.GenericInstr:
			if ci >= len(commands) || !matchesLiteral(commands[ci], e) {
				return false
			}
			ci++
		case Wildcard:
			switch e {
			case AnyOne:
				if ci >= len(commands) {
					return false
				}
				ci++
			case BranchLabel:
				if ci >= len(commands) || !matchesLiteral(commands[ci], e) {
					return false
				}
				ci++
			case AnyZeroOrMore:
				next := p[pi+1]
				for ci < len(commands) && !matchesLiteral(commands[ci], next) {
					ci++
				}
				if ci >= len(commands) {
					return false
				}
				ci++ // consume the command matched by next
				pi++ // and skip the pattern element it satisfied
			}
		}
	}
	return true
}

// Match reports whether the pattern matches the command list starting at
// any offset.
func Match(commands []ir.Command, p Pattern) bool {
	p.validate()
	for start := 0; start <= len(commands); start++ {
		if matchFrom(commands, p, start) {
			return true
		}
	}
	return false
}

// Inspector answers containment and pattern queries over one
// pre-subroutine.
type Inspector struct {
	subroutine *ir.PreSubroutine
}

// NewInspector wraps a pre-subroutine for inspection.
func NewInspector(subroutine *ir.PreSubroutine) *Inspector {
	return &Inspector{subroutine: subroutine}
}

// ContainsInstr reports whether any command has the given instruction.
func (in *Inspector) ContainsInstr(instr ir.GenericInstr) bool {
	return in.MatchPattern(instr)
}

// MatchPattern reports whether the pattern matches the subroutine's
// command sequence at any offset.
func (in *Inspector) MatchPattern(elems ...any) bool {
	return Match(in.subroutine.Commands, Pattern(elems))
}
