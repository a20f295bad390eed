package scope

import "github.com/pontaoski/kestrel/ast"

var (
	IntegerRegisters = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}
	SSERegisters     = []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"}
)

type Class int

const (
	ClassInteger Class = iota
	ClassSSE
	ClassMemory
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "INTEGER"
	case ClassSSE:
		return "SSE"
	}
	return "MEMORY"
}

// Placement is where one call argument goes. Arguments that got registers
// have StackOffset -1, the others have an offset into the outgoing argument
// area, counted from the first stack argument.
type Placement struct {
	Class       Class
	Registers   []string
	StackOffset int
	Size        int
}

func (p Placement) InRegisters() bool {
	return len(p.Registers) > 0
}

func classOf(t ast.Typ) (Class, int) {
	switch v := t.(type) {
	case ast.FloatingPoint:
		return ClassSSE, 1
	case *ast.StructType:
		size := v.Size()
		if size > 16 {
			return ClassMemory, 0
		}
		for _, m := range v.Members {
			if c, _ := classOf(m.Type); c != ClassInteger {
				return ClassMemory, 0
			}
		}
		return ClassInteger, AlignTo(size, 8) / 8
	case ast.SizedArray:
		return ClassMemory, 0
	}
	return ClassInteger, 1
}

// Classify assigns each argument a register class the way the SysV AMD64 ABI
// does for the simple cases: up to six INTEGER eightbytes, up to eight SSE
// ones, everything else on the stack in argument order.
func Classify(args []ast.Typ) []Placement {
	var ret []Placement
	nextInt, nextSSE, stack := 0, 0, 0

	for _, arg := range args {
		class, eightbytes := classOf(arg)
		p := Placement{Class: class, StackOffset: -1, Size: AlignTo(arg.Size(), 8)}

		switch {
		case class == ClassInteger && nextInt+eightbytes <= len(IntegerRegisters):
			p.Registers = IntegerRegisters[nextInt : nextInt+eightbytes]
			nextInt += eightbytes
		case class == ClassSSE && nextSSE < len(SSERegisters):
			p.Registers = SSERegisters[nextSSE : nextSSE+1]
			nextSSE++
		default:
			p.StackOffset = stack
			stack += p.Size
		}

		ret = append(ret, p)
	}

	return ret
}

// StackBytes is the size of the outgoing stack argument area.
func StackBytes(placements []Placement) (n int) {
	for _, p := range placements {
		if !p.InRegisters() {
			n += p.Size
		}
	}
	return
}

// AssignArguments computes the storage of every argument of fn and the size
// of its argument scope. Register arguments get a spill slot below rbp,
// stack arguments stay in the caller's frame above the return address.
func (t *Table) AssignArguments(fn *ast.Function) {
	var argTypes []ast.Typ
	for _, arg := range fn.Arguments {
		argTypes = append(argTypes, arg.Type)
	}

	slot := 0
	for i, p := range Classify(argTypes) {
		arg := fn.Arguments[i]
		if p.InRegisters() {
			arg.Storage = ast.Storage{
				Kind:     ast.RegisterArgument,
				Register: p.Registers[0],
				Offset:   -8 * (slot + len(p.Registers)),
			}
			slot += len(p.Registers)
			continue
		}
		arg.Storage = ast.Storage{
			Kind:   ast.StackArgument,
			Offset: 16 + p.StackOffset,
		}
	}

	t.scopes[fn.Scope].size = 8 * slot
}
