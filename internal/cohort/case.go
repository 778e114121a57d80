package cohort

import (
	"fmt"

	"radex/internal/artifact"
)

// Metric names for the label dimensions a case may carry.
const (
	MetricPCR = "pcr"
	MetricNAR = "nar"
)

// CaseKind is the storage kind for cases.
const CaseKind = "Case"

// Case is one scan/annotation pair with its labels. Labels are nullable per
// metric: a missing map entry means the case is unlabeled for that metric
// and is excluded from stratified operations.
type Case struct {
	scan   *ImageRef
	anno   *ImageRef
	labels map[string]int
}

// NewCase builds a case from already-hashed image references.
func NewCase(scan, anno *ImageRef, labels map[string]int) *Case {
	copied := make(map[string]int, len(labels))
	for metric, value := range labels {
		copied[metric] = value
	}
	return &Case{scan: scan, anno: anno, labels: copied}
}

// Scan returns the scan image reference.
func (c *Case) Scan() *ImageRef { return c.scan }

// Anno returns the annotation image reference.
func (c *Case) Anno() *ImageRef { return c.anno }

// Label returns the case's value for metric; false when unlabeled.
func (c *Case) Label(metric string) (int, bool) {
	value, ok := c.labels[metric]
	return value, ok
}

// ID joins the scan and annotation content hashes. Being file-derived it
// needs no memoization and never goes stale unless the images change.
func (c *Case) ID() string {
	return c.scan.FileID() + "_" + c.anno.FileID()
}

// Kind implements identity.Entity.
func (c *Case) Kind() string { return CaseKind }

// CanonicalForm implements identity.Entity. Image references embed inline;
// unlabeled metrics are simply absent.
func (c *Case) CanonicalForm() (map[string]any, error) {
	scanForm, err := c.scan.CanonicalForm()
	if err != nil {
		return nil, err
	}
	annoForm, err := c.anno.CanonicalForm()
	if err != nil {
		return nil, err
	}
	labels := make(map[string]any, len(c.labels))
	for metric, value := range c.labels {
		labels[metric] = value
	}
	return map[string]any{
		"scan":   scanForm,
		"anno":   annoForm,
		"labels": labels,
		"id":     c.ID(),
	}, nil
}

// StableID implements artifact.Storable using the file-derived ID.
func (c *Case) StableID() (string, error) { return c.ID(), nil }

// References implements artifact.Storable.
func (c *Case) References() []artifact.Storable { return nil }

func decodeCase(form map[string]any) (*Case, error) {
	scanForm, ok := form["scan"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cohort: case form missing scan")
	}
	annoForm, ok := form["anno"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cohort: case form missing anno")
	}

	scan, err := decodeImageRef(scanForm)
	if err != nil {
		return nil, err
	}
	anno, err := decodeImageRef(annoForm)
	if err != nil {
		return nil, err
	}

	labels := map[string]int{}
	if raw, ok := form["labels"].(map[string]any); ok {
		for metric, value := range raw {
			if number, ok := value.(float64); ok {
				labels[metric] = int(number)
			}
		}
	}
	return NewCase(scan, anno, labels), nil
}

// RegisterWith installs the cohort decoders on an artifact store.
func RegisterWith(store *artifact.Store) {
	store.Register(ImageRefKind, func(form map[string]any, _ *artifact.Resolver) (artifact.Storable, error) {
		return decodeImageRef(form)
	})
	store.Register(CaseKind, func(form map[string]any, _ *artifact.Resolver) (artifact.Storable, error) {
		return decodeCase(form)
	})
	store.Register(CollectionKind, func(form map[string]any, _ *artifact.Resolver) (artifact.Storable, error) {
		return decodeCollection(form)
	})
}
