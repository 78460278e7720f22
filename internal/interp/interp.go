package interp

import (
	"fmt"

	"exo/internal/ir"
)

// Run interprets proc against args, one positional Value per proc.Args
// entry — a *Buffer for a tensor argument, a *Window for a window argument,
// a bool for a ClassBool index argument, or a float64 for every other
// scalar/size/index/stride argument. An OUT or INOUT tensor argument is
// mutated in place through its Buffer.Data, the same by-reference
// convention the compiled C signature uses, so a caller can run Run once
// against a buffer, run the compiled kernel against a second copy of the
// same inputs, and diff the two buffers directly (testable properties 5
// and 6). config carries any procedure-level ReadConfig/WriteConfig state
// already in effect (nil starts a fresh one).
func Run(proc *ir.Proc, args []Value, config map[string]map[string]Value) error {
	if proc.Instr != nil {
		return fmt.Errorf("interp: %s is an instruction macro, has no interpretable body", proc.Name)
	}
	if len(args) != len(proc.Args) {
		return fmt.Errorf("interp: %s expects %d arguments, got %d", proc.Name, len(proc.Args), len(args))
	}
	if config == nil {
		config = map[string]map[string]Value{}
	}

	env := NewEnv()
	for i, a := range proc.Args {
		env.Bind(a.Sym, args[i])
	}

	ev := newEvaluator(env, config)
	for _, pre := range proc.Preconditions {
		if !ev.evalPred(pre) {
			return fmt.Errorf("interp: %s violates precondition %s", proc.Name, pre)
		}
	}
	return ev.execBlock(proc.Body)
}
