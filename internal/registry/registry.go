package registry

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ParamSpec describes one declared parameter of a command signature.
type ParamSpec struct {
	Name     string
	Optional bool
}

// Deprecation marks a signature as deprecated, with an optional replacement.
type Deprecation struct {
	Message     string
	Replacement string
}

// Signature is one declarative command signature. Одному имени может
// соответствовать несколько перегрузок (например, `slot` и `slot::A`).
type Signature struct {
	Name       string
	Aliases    []string
	Params     []ParamSpec
	Variadic   bool
	Prefix     bool // префиксный вызов `name:payload`
	Block      bool // имя блока `{{#name}}`
	Deprecated *Deprecation
	Doc        string
}

// Required returns the number of non-optional parameters.
func (s *Signature) Required() int {
	n := 0
	for _, p := range s.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// Total returns the number of declared parameters.
func (s *Signature) Total() int {
	return len(s.Params)
}

// Accepts reports whether the signature admits the provided parameter count.
// Вариадики проверяют только нижнюю границу.
func (s *Signature) Accepts(provided int) bool {
	required := s.Required()
	if s.Variadic {
		return provided >= required
	}
	return provided >= required && provided <= s.Total()
}

// Render returns the usage string shown in diagnostics and hovers,
// e.g. `{{replace::TEXT::FROM::TO}}` or `{{random:A,B}}`.
func (s *Signature) Render() string {
	var b strings.Builder
	b.WriteString("{{")
	if s.Block {
		b.WriteByte('#')
	}
	b.WriteString(s.Name)
	if s.Prefix {
		b.WriteByte(':')
		if len(s.Params) > 0 {
			b.WriteString(s.Params[0].Name)
		}
		b.WriteString("}}")
		return b.String()
	}
	for _, p := range s.Params {
		if s.Block {
			b.WriteByte(' ')
		} else {
			b.WriteString("::")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteByte('?')
		}
	}
	if s.Variadic {
		if s.Block {
			b.WriteString(" ...")
		} else {
			b.WriteString("::...")
		}
	}
	b.WriteString("}}")
	return b.String()
}

var foldCaser = cases.Fold()

// foldKey каноникализирует имя для case-insensitive поиска.
func foldKey(name string) string {
	return foldCaser.String(strings.TrimSpace(name))
}

// Registry is the static, read-only command table. Загружается один раз на
// старте; lint-проходы только читают.
type Registry struct {
	byName  map[string][]*Signature
	byAlias map[string][]*Signature
	order   []string // первичные имена в порядке регистрации, без дублей
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string][]*Signature),
		byAlias: make(map[string][]*Signature),
	}
}

// Add registers a signature under its primary name and aliases.
func (r *Registry) Add(sig *Signature) {
	key := foldKey(sig.Name)
	if _, seen := r.byName[key]; !seen {
		r.order = append(r.order, sig.Name)
	}
	r.byName[key] = append(r.byName[key], sig)
	for _, alias := range sig.Aliases {
		r.byAlias[foldKey(alias)] = append(r.byAlias[foldKey(alias)], sig)
	}
}

// Extend adds all provided signatures (TOML extensions).
func (r *Registry) Extend(sigs []*Signature) {
	for _, sig := range sigs {
		r.Add(sig)
	}
}

// LookupAll returns every signature registered under name, including alias
// matches. Alias resolution is suppressed for prefix-call usages, чтобы
// `random` не уезжал в перегрузку `random:A,B` через псевдоним.
func (r *Registry) LookupAll(name string, prefixCall bool) []*Signature {
	key := foldKey(name)
	sigs := r.byName[key]
	if prefixCall {
		return sigs
	}
	return append(sigs[:len(sigs):len(sigs)], r.byAlias[key]...)
}

// Names returns all primary command names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// BlockNames returns the primary names of block commands, sorted.
func (r *Registry) BlockNames() []string {
	var out []string
	for _, name := range r.order {
		for _, sig := range r.byName[foldKey(name)] {
			if sig.Block {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// ArityResult is the outcome of checking overloads against a usage.
type ArityResult struct {
	OK      bool
	Matched *Signature // принявшая перегрузка, либо первая при неудаче
}

// CheckArity reports whether any overload accepts the provided count.
func CheckArity(sigs []*Signature, provided int) ArityResult {
	if len(sigs) == 0 {
		return ArityResult{}
	}
	for _, sig := range sigs {
		if sig.Accepts(provided) {
			return ArityResult{OK: true, Matched: sig}
		}
	}
	return ArityResult{OK: false, Matched: sigs[0]}
}

// RenderAll returns the usage strings of all overloads, joined with " or ".
func RenderAll(sigs []*Signature) string {
	parts := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		parts = append(parts, sig.Render())
	}
	return strings.Join(parts, " or ")
}
