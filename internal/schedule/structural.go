package schedule

import (
	"exo/internal/cursor"
	"exo/internal/ir"
	"exo/internal/memory"
)

// SetWindowArgs names which argument set_window retypes and whether it
// should become a window (true) or be restored to a plain tensor (false).
type SetWindowArgs struct {
	Arg  string
	Flag bool
}

// SetWindow retypes a tensor argument to a window type (or back), per the
// rewrite table's `set_window(arg, flag)`. target is the Root cursor of the
// procedure (set_window has no body-position to locate; it edits the
// signature), kept as a Cursor parameter for uniformity with every other
// rewrite and reparented onto the result.
func (p Proc) SetWindow(target cursor.Cursor, a SetWindowArgs) (Proc, cursor.Forward, error) {
	args := append([]ir.Arg{}, p.ir.Args...)
	idx := -1
	for i, arg := range args {
		if arg.Sym.Name() == a.Arg {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Proc{}, nil, schedErr("set_window", p.ir.Src, "no argument named "+a.Arg)
	}
	t := args[idx].Type
	if a.Flag {
		if t.Kind != ir.KindTensor {
			return Proc{}, nil, schedErr("set_window", p.ir.Src, a.Arg+" is not a tensor")
		}
		args[idx].Type = ir.WindowType(t.Scalar, t.Shape, args[idx].Sym.Name(), args[idx].Sym.ID(), !args[idx].Effect.Writable())
	} else {
		if t.Kind != ir.KindWindow {
			return Proc{}, nil, schedErr("set_window", p.ir.Src, a.Arg+" is not a window")
		}
		args[idx].Type = ir.TensorType(t.Scalar, t.Shape)
	}
	next := p.ir.WithArgs(args)
	return New(next), cursor.Identity(next), nil
}

// SetMemoryArgs names which allocation set_memory retargets.
type SetMemoryArgs struct {
	Alloc string
	Mem   string
}

// SetMemory retags an Alloc statement's memory, or a writable argument's
// declared memory, per `set_memory(alloc, mem)`. The alloc's current memory
// and the target memory must both permit writes (spec precondition "alloc
// writable to mem"), checked below via mems, the same memory.Registry the
// lowering pass resolves Mem names against.
func (p Proc) SetMemory(target cursor.Cursor, a SetMemoryArgs, mems *memory.Registry) (Proc, cursor.Forward, error) {
	node, err := requireNode("set_memory", target)
	if err != nil {
		// Allow retargeting a procedure argument's memory directly.
		args := append([]ir.Arg{}, p.ir.Args...)
		for i, arg := range args {
			if arg.Sym.Name() == a.Alloc {
				if !arg.Effect.Writable() {
					return Proc{}, nil, schedErr("set_memory", p.ir.Src, a.Alloc+" is not writable")
				}
				if k, ok := mems.Lookup(a.Mem); !ok || !k.CanWrite() {
					return Proc{}, nil, schedErr("set_memory", p.ir.Src, "target memory "+a.Mem+" does not permit writes")
				}
				args[i].Mem = a.Mem
				next := p.ir.WithArgs(args)
				return New(next), cursor.Identity(next), nil
			}
		}
		return Proc{}, nil, err
	}
	alloc, ok := node.(*ir.AllocStmt)
	if !ok || alloc.Buf.Name() != a.Alloc {
		return Proc{}, nil, schedErr("set_memory", p.ir.Src, "target is not the named Alloc")
	}
	if k, ok := mems.Lookup(alloc.Mem); !ok || !k.CanWrite() {
		return Proc{}, nil, schedErr("set_memory", alloc.Loc(), "alloc's current memory does not permit writes")
	}
	if k, ok := mems.Lookup(a.Mem); !ok || !k.CanWrite() {
		return Proc{}, nil, schedErr("set_memory", alloc.Loc(), "target memory "+a.Mem+" does not permit writes")
	}
	newAlloc := ir.NewAllocStmt(alloc.Src, alloc.Buf, alloc.Type, a.Mem)
	path := target.PathOf()
	idx, err := target.Index()
	if err != nil {
		return Proc{}, nil, err
	}
	block, err := target.Block()
	if err != nil {
		return Proc{}, nil, err
	}
	newBlock := replaceStmtAt(block, idx, []ir.Stmt{newAlloc})
	next := withNewBlock(p.ir, path, newBlock)
	return New(next), cursor.Identity(next), nil
}
