// Package loc defines x86-64 machine registers and the locations a value
// can occupy after register allocation.
package loc

// MReg is a machine register
type MReg int

// x86-64 general purpose registers
const (
	RAX MReg = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var regNames = [...]string{
	RAX: "rax",
	RBX: "rbx",
	RCX: "rcx",
	RDX: "rdx",
	RSI: "rsi",
	RDI: "rdi",
	RBP: "rbp",
	RSP: "rsp",
	R8:  "r8",
	R9:  "r9",
	R10: "r10",
	R11: "r11",
	R12: "r12",
	R13: "r13",
	R14: "r14",
	R15: "r15",
}

func (r MReg) String() string {
	if r < 0 || int(r) >= len(regNames) {
		return "?"
	}
	return regNames[r]
}

// ArgRegs lists the SysV integer argument registers in order
var ArgRegs = []MReg{RDI, RSI, RDX, RCX, R8, R9}

// CalleeSaveRegs lists the SysV callee-saved registers the allocator may hand out.
// rbp is excluded since it always holds the frame pointer.
var CalleeSaveRegs = []MReg{RBX, R12, R13, R14, R15}

// IsCalleeSaved returns true if the register must be preserved across calls
func IsCalleeSaved(r MReg) bool {
	switch r {
	case RBX, RBP, R12, R13, R14, R15:
		return true
	}
	return false
}
