// Package il defines the intermediate language consumed by the back end.
// Variables are already remapped to dense per-function slots, so a function
// body is a flat command list over slot ids and immediates.
package il

// Slot is a dense per-function variable id (0..SlotCount-1)
type Slot int

// Op is a command opcode
type Op int

const (
	Copy Op = iota
	Add
	Sub
	Mul
	Ret
)

var opNames = map[Op]string{
	Copy: "copy",
	Add:  "add",
	Sub:  "sub",
	Mul:  "mul",
	Ret:  "ret",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// LookupOp returns the opcode for a mnemonic
func LookupOp(name string) (Op, bool) {
	for op, n := range opNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// Commutative reports whether swapping the two operands preserves the result
func (o Op) Commutative() bool {
	return o == Add || o == Mul
}

// OperandKind tags an operand
type OperandKind int

const (
	Imm OperandKind = iota
	Var
)

// Operand is either an immediate number or a variable reference
type Operand struct {
	Kind  OperandKind
	Value int64 // immediate value when Kind == Imm
	Slot  Slot  // variable slot when Kind == Var
}

// ImmOperand builds an immediate operand
func ImmOperand(v int64) Operand {
	return Operand{Kind: Imm, Value: v}
}

// VarOperand builds a variable operand
func VarOperand(s Slot) Operand {
	return Operand{Kind: Var, Slot: s}
}

// IsVar reports whether the operand references a variable
func (o Operand) IsVar() bool {
	return o.Kind == Var
}

// Command is one IL instruction
type Command struct {
	Op   Op
	Dest *Operand // nil when the command produces no value
	Args []Operand
	Line int // source line, 0 when synthesized
}

// Operands returns every operand of the command: arguments first, then the destination
func (c *Command) Operands() []Operand {
	ops := make([]Operand, 0, len(c.Args)+1)
	ops = append(ops, c.Args...)
	if c.Dest != nil {
		ops = append(ops, *c.Dest)
	}
	return ops
}

// Type is a function return type
type Type int

const (
	Void Type = iota
	Int
)

func (t Type) String() string {
	if t == Int {
		return "i"
	}
	return "void"
}

// Function is a remapped function ready for allocation
type Function struct {
	Name     string
	Result   Type
	ArgCount int      // slots 0..ArgCount-1 are the parameters
	Vars     []string // slot -> source name, len(Vars) is the slot count
	Body     []Command
}

// SlotCount returns the number of variable slots in the function
func (f *Function) SlotCount() int {
	return len(f.Vars)
}

// Program is a translation unit
type Program struct {
	Functions []Function
}
