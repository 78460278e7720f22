package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"exo/internal/cursor"
	"exo/internal/ir"
	"exo/internal/memory"
	"exo/internal/schedule"
)

// runScript applies a small schedule-script mini-language to checked, a
// per-name map of type-checked procedures, mutating it in place.
//
// Each non-blank, non-comment line is one operation:
//
//	use <name>                           select the active procedure
//	simplify
//	dce
//	rename <name>
//	inline "<fragment>"
//	reorder "<fragment>"
//	unroll "<fragment>"
//	fuse "<fragment1>" "<fragment2>"
//	divide_dim "<fragment>" <dim> <k>
//	divide_loop "<fragment>" <k> <outer> <inner> [cut|guard|cut_and_guard|perfect]
//	lift_if "<fragment>" <n>
//	fission "<fragment>" <n>
//	partial_eval <arg> <value>
//	set_window <arg> <true|false>
//	set_memory <alloc> <mem>
//
// This covers every rewrite whose arguments are cursors found by fragment
// plus plain scalars/strings; rewrites needing a structured ir.Pred/
// ir.AExpr/ir.ValExpr argument (add_assertion, specialize, bound_alloc,
// expand_dim, stage_mem, stage_window, replace/call_eqv) are out of scope for
// this text format and are exercised directly by internal/schedule's own
// tests instead.
func runScript(checked map[string]*ir.Proc, src string, mems *memory.Registry) error {
	var current string

	scan := bufio.NewScanner(strings.NewReader(src))
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := tokenizeLine(line)
		if err != nil {
			return err
		}
		op, args := fields[0], fields[1:]

		if op == "use" {
			if len(args) != 1 {
				return fmt.Errorf("use: expected exactly one procedure name")
			}
			if _, ok := checked[args[0]]; !ok {
				return fmt.Errorf("use: no procedure named %q", args[0])
			}
			current = args[0]
			continue
		}
		if current == "" {
			return fmt.Errorf("%s: no active procedure (use a %q line first)", op, "use <name>")
		}

		next, err := applyOp(schedule.New(checked[current]), op, args, mems)
		if err != nil {
			return fmt.Errorf("%s on %s: %w", op, current, err)
		}
		checked[current] = next.IR()
		if next.IR().Name != current {
			delete(checked, current)
			current = next.IR().Name
			checked[current] = next.IR()
		}
	}
	return scan.Err()
}

func applyOp(p schedule.Proc, op string, args []string, mems *memory.Registry) (schedule.Proc, error) {
	switch op {
	case "simplify":
		return p.Simplify()

	case "dce":
		return p.EliminateDeadCode()

	case "rename":
		if len(args) != 1 {
			return p, fmt.Errorf("expected one name")
		}
		next, _, err := p.Rename(args[0])
		return next, err

	case "inline":
		return withFound(p, args, 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.Inline(cs[0])
			return next, err
		})

	case "reorder":
		return withFound(p, args, 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.ReorderLoops(cs[0])
			return next, err
		})

	case "unroll":
		return withFound(p, args, 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.UnrollLoop(cs[0])
			return next, err
		})

	case "fuse":
		return withFound(p, args, 2, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.Fuse(cs[0], cs[1])
			return next, err
		})

	case "divide_dim":
		if len(args) != 3 {
			return p, fmt.Errorf("expected fragment, dim, k")
		}
		dim, err := strconv.Atoi(args[1])
		if err != nil {
			return p, fmt.Errorf("dim: %w", err)
		}
		k, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return p, fmt.Errorf("k: %w", err)
		}
		return withFound(p, args[:1], 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.DivideDim(cs[0], dim, k)
			return next, err
		})

	case "divide_loop":
		if len(args) != 4 && len(args) != 5 {
			return p, fmt.Errorf("expected fragment, k, outer, inner, [tail]")
		}
		k, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return p, fmt.Errorf("k: %w", err)
		}
		tail := schedule.TailCut
		if len(args) == 5 {
			t, err := parseTailPolicy(args[4])
			if err != nil {
				return p, err
			}
			tail = t
		}
		return withFound(p, args[:1], 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.DivideLoop(cs[0], schedule.DivideLoopArgs{K: k, OuterName: args[2], InnerName: args[3], Tail: tail})
			return next, err
		})

	case "lift_if":
		if len(args) != 2 {
			return p, fmt.Errorf("expected fragment, n")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return p, fmt.Errorf("n: %w", err)
		}
		return withFound(p, args[:1], 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.LiftIf(cs[0], n)
			return next, err
		})

	case "fission":
		if len(args) != 2 {
			return p, fmt.Errorf("expected fragment, n")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return p, fmt.Errorf("n: %w", err)
		}
		return withFound(p, args[:1], 1, func(cs []cursor.Cursor) (schedule.Proc, error) {
			next, _, err := p.Fission(cs[0], n)
			return next, err
		})

	case "partial_eval":
		if len(args) != 2 {
			return p, fmt.Errorf("expected arg, value")
		}
		val, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return p, fmt.Errorf("value: %w", err)
		}
		pArgs := p.Args()
		var found *ir.Arg
		for i := range pArgs {
			if pArgs[i].Sym.Name() == args[0] {
				found = &pArgs[i]
				break
			}
		}
		if found == nil {
			return p, fmt.Errorf("no argument named %q", args[0])
		}
		return p.PartialEval(*found, val)

	case "set_window":
		if len(args) != 2 {
			return p, fmt.Errorf("expected arg, flag")
		}
		flag, err := strconv.ParseBool(args[1])
		if err != nil {
			return p, fmt.Errorf("flag: %w", err)
		}
		next, _, err := p.SetWindow(p.Root(), schedule.SetWindowArgs{Arg: args[0], Flag: flag})
		return next, err

	case "set_memory":
		if len(args) != 2 {
			return p, fmt.Errorf("expected alloc, mem")
		}
		next, _, err := p.SetMemory(p.Root(), schedule.SetMemoryArgs{Alloc: args[0], Mem: args[1]}, mems)
		return next, err

	default:
		return p, fmt.Errorf("unknown operation %q", op)
	}
}

// parseTailPolicy maps the divide_loop tail-handling names from spec
// section 6 to their schedule.TailPolicy constants.
func parseTailPolicy(name string) (schedule.TailPolicy, error) {
	switch name {
	case "cut":
		return schedule.TailCut, nil
	case "guard":
		return schedule.TailGuard, nil
	case "cut_and_guard":
		return schedule.TailCutAndGuard, nil
	case "perfect":
		return schedule.TailPerfect, nil
	default:
		return 0, fmt.Errorf("unknown tail policy %q", name)
	}
}

// withFound resolves n fragments (the first n args, each expected to name a
// statement/loop) to cursors against p before calling do, the common shape
// every cursor-targeted rewrite in applyOp shares.
func withFound(p schedule.Proc, args []string, n int, do func([]cursor.Cursor) (schedule.Proc, error)) (schedule.Proc, error) {
	if len(args) != n {
		return p, fmt.Errorf("expected %d fragment(s), got %d", n, len(args))
	}
	cs := make([]cursor.Cursor, n)
	for i, frag := range args {
		c, err := p.Find(frag)
		if err != nil {
			return p, fmt.Errorf("fragment %q: %w", frag, err)
		}
		cs[i] = c
	}
	return do(cs)
}

// tokenizeLine splits a script line on whitespace, treating a
// "double-quoted" span as one token (fragments routinely contain spaces,
// e.g. "for i in [0, N)").
func tokenizeLine(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ' ' || c == '\t':
			if inQuotes {
				cur.WriteByte(c)
			} else if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in line: %s", line)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty line")
	}
	return fields, nil
}
