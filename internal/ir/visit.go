package ir

// Visitor is the uniform traversal skeleton used by analyses (range
// checking, precision propagation, dead-code detection, ...): one pre/post
// hook pair per syntactic category, rather than a method per concrete type.
// A hook returning false from Pre skips descending into that node's
// children (Post is still called for symmetry).
type Visitor struct {
	PreStmt  func(Stmt) bool
	PostStmt func(Stmt)
	PreExpr  func(ValExpr) bool
	PostExpr func(ValExpr)
}

// WalkBlock visits every statement in body, in order, descending into
// nested If/For blocks.
func WalkBlock(body []Stmt, v *Visitor) {
	for _, s := range body {
		WalkStmt(s, v)
	}
}

func WalkStmt(s Stmt, v *Visitor) {
	descend := true
	if v.PreStmt != nil {
		descend = v.PreStmt(s)
	}
	if descend {
		switch st := s.(type) {
		case *AssignStmt:
			WalkExpr(st.RHS, v)
		case *ReduceStmt:
			WalkExpr(st.RHS, v)
		case *IfStmt:
			WalkBlock(st.Body, v)
			WalkBlock(st.OrElse, v)
		case *ForStmt:
			WalkBlock(st.Body, v)
		case *CallStmt:
			for _, a := range st.Args {
				WalkExpr(a, v)
			}
		case *WindowStmt:
			WalkExpr(st.Window, v)
		case *WriteConfig:
			WalkExpr(st.RHS, v)
		}
	}
	if v.PostStmt != nil {
		v.PostStmt(s)
	}
}

func WalkExpr(e ValExpr, v *Visitor) {
	descend := true
	if v.PreExpr != nil {
		descend = v.PreExpr(e)
	}
	if descend {
		switch ex := e.(type) {
		case *BinOp:
			WalkExpr(ex.LHS, v)
			WalkExpr(ex.RHS, v)
		case *USub:
			WalkExpr(ex.E, v)
		case *Extern:
			for _, a := range ex.Args {
				WalkExpr(a, v)
			}
		case *Select:
			WalkExpr(ex.Then, v)
			WalkExpr(ex.Else, v)
		}
	}
	if v.PostExpr != nil {
		v.PostExpr(e)
	}
}
