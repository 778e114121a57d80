package identity

// Memo caches a computed content ID so repeated saves and comparisons do not
// re-serialize the entity. Embed one per entity and call Invalidate after any
// mutation; the next ID call recomputes from the current canonical form.
type Memo struct {
	id string
}

// ID returns the memoized content ID, computing it on first use.
func (m *Memo) ID(entity Entity) (string, error) {
	if m.id != "" {
		return m.id, nil
	}
	id, err := ComputeID(entity)
	if err != nil {
		return "", err
	}
	m.id = id
	return id, nil
}

// Invalidate discards the memoized ID. Must be called after mutating any
// field that contributes to the canonical form.
func (m *Memo) Invalidate() {
	m.id = ""
}
