package cursor

import (
	"exo/internal/errors"
	"exo/internal/ir"
	"exo/internal/pattern"
)

// Find returns the first node cursor reachable from root whose printed form
// matches the pattern fragment. The fragment is parsed once via package
// pattern; a malformed fragment surfaces as *errors.ParseFragmentError.
func Find(root Cursor, fragment string) (Cursor, error) {
	pat, err := pattern.Parse(fragment)
	if err != nil {
		return Cursor{}, err
	}
	found, ok := searchFirst(root, pat)
	if !ok {
		return Cursor{}, errors.NewCursorInvalid("find: no statement matched " + fragment)
	}
	return found, nil
}

func isForStmt(s ir.Stmt) bool {
	_, ok := s.(*ir.ForStmt)
	return ok
}

// FindLoop returns the first (or, with many=true, every) `for` loop cursor
// whose printed header+body matches fragment.
func FindLoop(root Cursor, fragment string, many bool) ([]Cursor, error) {
	pat, err := pattern.Parse(fragment)
	if err != nil {
		return nil, err
	}
	var out []Cursor
	var walk func(c Cursor)
	walk = func(c Cursor) {
		kids, err := c.Children()
		if err != nil {
			return
		}
		for _, k := range kids {
			node, err := k.Node()
			if err != nil {
				continue
			}
			if pat.Matches(node.String()) {
				if isForStmt(node) {
					out = append(out, k)
					if !many {
						return
					}
				}
			}
			walk(k)
			if !many && len(out) > 0 {
				return
			}
		}
	}
	walk(root)
	if len(out) == 0 {
		return nil, errors.NewCursorInvalid("find_loop: no loop matched " + fragment)
	}
	return out, nil
}

func searchFirst(c Cursor, pat interface{ Matches(string) bool }) (Cursor, bool) {
	kids, err := c.Children()
	if err != nil {
		return Cursor{}, false
	}
	for _, k := range kids {
		node, err := k.Node()
		if err != nil {
			continue
		}
		if pat.Matches(node.String()) {
			return k, true
		}
		if found, ok := searchFirst(k, pat); ok {
			return found, true
		}
	}
	return Cursor{}, false
}
