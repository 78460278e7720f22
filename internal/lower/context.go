package lower

import (
	"sort"

	"exo/internal/ir"
)

// configField is one field the compiler has observed on a Config name: its
// C type (taken from the first ValExpr type seen touching it) and whether
// any procedure in the translation unit ever writes it.
type configField struct {
	ctype   string
	mutable bool
}

// configSet accumulates every Config.Field pair referenced across every
// procedure in a translation unit, the source for the per-library context
// struct (spec section 4.5: "synthesizes a per-library context struct
// containing user-declared mutable configs; read-only configs are omitted
// with a comment").
type configSet struct {
	order  []string
	fields map[string]configField
}

func newConfigSet() *configSet {
	return &configSet{fields: map[string]configField{}}
}

func configKey(config, field string) string { return config + "." + field }

func (c *configSet) noteRead(config, field string, t ir.Type) {
	c.note(config, field, t, false)
}

func (c *configSet) noteWrite(config, field string, t ir.Type) {
	c.note(config, field, t, true)
}

func (c *configSet) note(config, field string, t ir.Type, write bool) {
	key := configKey(config, field)
	f, ok := c.fields[key]
	if !ok {
		c.order = append(c.order, key)
		f.ctype = ctypeOf(t)
	}
	if write {
		f.mutable = true
	}
	c.fields[key] = f
}

// ctypeOf renders a Type's C representation for a context struct field:
// scalars use their native CType, everything else (index-class values)
// renders as a plain int32_t per spec section 6.
func ctypeOf(t ir.Type) string {
	if t.Kind == ir.KindScalar {
		return t.Scalar.CType()
	}
	return "int32_t"
}

// fieldIdent is the emitted struct member name for a Config.Field pair.
func fieldIdent(config, field string) string {
	return config + "_" + field
}

// emit writes the context struct definition, one mutable field per line and
// a one-line comment per read-only field that was observed but omitted.
func (c *configSet) emit(e *Emitter, typeName string) {
	keys := append([]string(nil), c.order...)
	sort.Strings(keys)
	e.line("typedef struct {")
	e.push()
	any := false
	for _, key := range keys {
		f := c.fields[key]
		config, field := splitConfigKey(key)
		if !f.mutable {
			e.line("// %s.%s is read-only, omitted from %s", config, field, typeName)
			continue
		}
		any = true
		e.line("%s %s;", f.ctype, fieldIdent(config, field))
	}
	if !any {
		e.line("char _unused;")
	}
	e.pop()
	e.line("} %s;", typeName)
}

func splitConfigKey(key string) (string, string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
