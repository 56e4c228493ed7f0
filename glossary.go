package chapterwise

import (
	"encoding/json"
	"strings"
)

// Glossary is an insertion-ordered mapping from source-language terms to
// their fixed target-language translations. Order matters twice: Apply
// replaces in insertion order, and Lines serialises in insertion order for
// prompt embedding.
//
// A Glossary has a single owner per translation run. Pipeline-derived
// updates go through Merge (first writer wins); only explicit user edits via
// Set may overwrite. Windows are processed strictly sequentially, so no
// locking is needed by construction.
type Glossary struct {
	keys   []string
	values map[string]string
}

// NewGlossary creates an empty glossary.
func NewGlossary() *Glossary {
	return &Glossary{values: make(map[string]string)}
}

// Has reports whether src is present. A nil glossary has no entries.
func (g *Glossary) Has(src string) bool {
	if g == nil {
		return false
	}
	_, ok := g.values[src]
	return ok
}

// Get returns the target term for src.
func (g *Glossary) Get(src string) (string, bool) {
	if g == nil {
		return "", false
	}
	dst, ok := g.values[src]
	return dst, ok
}

// Len returns the number of entries.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

// Set adds or overwrites an entry. This is the explicit-edit path; an
// existing key keeps its position with the new target.
func (g *Glossary) Set(src, dst string) {
	if _, ok := g.values[src]; !ok {
		g.keys = append(g.keys, src)
	}
	g.values[src] = dst
}

// Delete removes an entry.
func (g *Glossary) Delete(src string) {
	if _, ok := g.values[src]; !ok {
		return
	}
	delete(g.values, src)
	for i, k := range g.keys {
		if k == src {
			g.keys = append(g.keys[:i], g.keys[i+1:]...)
			break
		}
	}
}

// Merge adds the updates that are not already present, in update order.
// Existing keys are never overwritten, so applying the same updates twice is
// a no-op the second time. Returns the terms that were actually added.
func (g *Glossary) Merge(updates []Term) []Term {
	var added []Term
	for _, t := range updates {
		if _, ok := g.values[t.Source]; ok {
			continue
		}
		g.keys = append(g.keys, t.Source)
		g.values[t.Source] = t.Target
		added = append(added, t)
	}
	return added
}

// Terms returns the entries in insertion order.
func (g *Glossary) Terms() []Term {
	if g == nil {
		return nil
	}
	terms := make([]Term, 0, len(g.keys))
	for _, k := range g.keys {
		terms = append(terms, Term{Source: k, Target: g.values[k]})
	}
	return terms
}

// Apply replaces every occurrence of each source term with its target, in
// insertion order. When one term's target contains another term's source the
// result is order-dependent; this ambiguity is accepted and documented
// rather than resolved.
func (g *Glossary) Apply(text string) string {
	if g == nil {
		return text
	}
	for _, k := range g.keys {
		text = strings.ReplaceAll(text, k, g.values[k])
	}
	return text
}

// Lines serialises the glossary as "source -> target" lines in insertion
// order, the format embedded into backend prompts.
func (g *Glossary) Lines() string {
	if g == nil || len(g.keys) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range g.keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteString(" -> ")
		b.WriteString(g.values[k])
	}
	return b.String()
}

// MarshalJSON encodes the glossary as an ordered array of terms.
func (g *Glossary) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Terms())
}

// UnmarshalJSON accepts either the ordered array form or a legacy JSON
// object (order of the object form is not preserved).
func (g *Glossary) UnmarshalJSON(data []byte) error {
	if g.values == nil {
		g.values = make(map[string]string)
	}
	var terms []Term
	if err := json.Unmarshal(data, &terms); err == nil {
		for _, t := range terms {
			g.Set(t.Source, t.Target)
		}
		return nil
	}
	var legacy map[string]string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	for src, dst := range legacy {
		g.Set(src, dst)
	}
	return nil
}
