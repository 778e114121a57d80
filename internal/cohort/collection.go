package cohort

import (
	"fmt"

	"radex/internal/artifact"
	"radex/internal/identity"
)

// CollectionKind is the storage kind for case collections.
const CollectionKind = "CaseCollection"

// Collection holds the ordered cases of one dataset and answers the sampler's
// label queries.
type Collection struct {
	memo  identity.Memo
	cases []*Case
	index map[string]*Case
}

// NewCollection builds a collection preserving case order. Duplicate case
// IDs collapse onto the last occurrence.
func NewCollection(cases []*Case) *Collection {
	index := make(map[string]*Case, len(cases))
	for _, c := range cases {
		index[c.ID()] = c
	}
	return &Collection{cases: cases, index: index}
}

// Cases returns the cases in load order.
func (c *Collection) Cases() []*Case {
	out := make([]*Case, len(c.cases))
	copy(out, c.cases)
	return out
}

// Len returns the number of cases.
func (c *Collection) Len() int { return len(c.cases) }

// Get returns the case with the given ID.
func (c *Collection) Get(id string) (*Case, bool) {
	item, ok := c.index[id]
	return item, ok
}

// IDs implements sampling.Labeled in load order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.cases))
	for i, item := range c.cases {
		ids[i] = item.ID()
	}
	return ids
}

// Label implements sampling.Labeled.
func (c *Collection) Label(id, metric string) (int, bool) {
	item, ok := c.index[id]
	if !ok {
		return 0, false
	}
	return item.Label(metric)
}

// Kind implements identity.Entity.
func (c *Collection) Kind() string { return CollectionKind }

// CanonicalForm implements identity.Entity with all cases inline.
func (c *Collection) CanonicalForm() (map[string]any, error) {
	cases := make([]any, len(c.cases))
	for i, item := range c.cases {
		form, err := item.CanonicalForm()
		if err != nil {
			return nil, err
		}
		cases[i] = form
	}
	return map[string]any{"cases": cases}, nil
}

// StableID implements artifact.Storable.
func (c *Collection) StableID() (string, error) { return c.memo.ID(c) }

// References implements artifact.Storable.
func (c *Collection) References() []artifact.Storable { return nil }

// DecodeCollection reconstructs a collection from its persisted form, for
// entities that embed a collection inline.
func DecodeCollection(form map[string]any) (*Collection, error) {
	return decodeCollection(form)
}

func decodeCollection(form map[string]any) (*Collection, error) {
	raw, ok := form["cases"].([]any)
	if !ok {
		return nil, fmt.Errorf("cohort: collection form missing cases")
	}
	cases := make([]*Case, 0, len(raw))
	for _, item := range raw {
		caseForm, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cohort: malformed case entry")
		}
		decoded, err := decodeCase(caseForm)
		if err != nil {
			return nil, err
		}
		cases = append(cases, decoded)
	}
	return NewCollection(cases), nil
}
