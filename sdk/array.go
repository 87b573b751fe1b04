package sdk

import (
	"fmt"

	"github.com/Doomsk/netqasm/lang/ir"
)

// Array is a handle to a fixed-length array in the node's classical
// memory, declared by the current subroutine.
type Array struct {
	builder *Builder
	address ir.Address
	length  int
}

// Address returns the array's index in the subroutine's array table.
func (a *Array) Address() ir.Address { return a.address }

// Length returns the number of cells.
func (a *Array) Length() int { return a.length }

func (a *Array) String() string {
	return fmt.Sprintf("Array(%s, length %d)", a.address, a.length)
}

// GetFutureIndex returns a future over the cell at a fixed index.
func (a *Array) GetFutureIndex(index int) (*Future, error) {
	if index < 0 || index >= a.length {
		return nil, fmt.Errorf("index %d out of range for %s", index, a)
	}
	return newArrayFuture(a.builder, a, ir.Imm(index)), nil
}

// GetFutureAt returns a future over the cell at an operand index; a
// register index gives loop-varying access.
func (a *Array) GetFutureAt(index ir.Operand) *Future {
	return newArrayFuture(a.builder, a, index)
}

func (a *Array) entry(index ir.Operand) ir.ArrayEntry {
	return ir.ArrayEntry{Array: a.address, Index: index}
}

func (a *Array) slice(start, stop ir.Operand) ir.ArraySlice {
	return ir.ArraySlice{Array: a.address, Start: start, Stop: stop}
}

// fullSlice covers every cell of the array.
func (a *Array) fullSlice() ir.ArraySlice {
	return a.slice(ir.Imm(0), ir.Imm(a.length))
}
