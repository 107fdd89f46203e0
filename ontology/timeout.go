package ontology

import (
	"fmt"
	"time"
)

// Timeout wraps a Service and bounds every query with a deadline. Meant for
// networked ontology backends substituted for the in-memory graph; a query
// that misses the deadline fails with ErrUnavailable, which the refinement
// comparator maps to "non-comparable". Queries never hang the pipeline.
type Timeout struct {
	inner Service
	limit time.Duration
}

// NewTimeout wraps inner with the given per-query deadline.
func NewTimeout(inner Service, limit time.Duration) *Timeout {
	return &Timeout{inner: inner, limit: limit}
}

type boolResult struct {
	val bool
	err error
}

func (t *Timeout) run(query func() (bool, error)) (bool, error) {
	ch := make(chan boolResult, 1)
	go func() {
		v, err := query()
		ch <- boolResult{val: v, err: err}
	}()
	timer := time.NewTimer(t.limit)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.val, res.err
	case <-timer.C:
		return false, fmt.Errorf("query exceeded %s: %w", t.limit, ErrUnavailable)
	}
}

func (t *Timeout) IsA(ns1, id1, ns2, id2 string) (bool, error) {
	return t.run(func() (bool, error) { return t.inner.IsA(ns1, id1, ns2, id2) })
}

func (t *Timeout) PartOf(ns1, id1, ns2, id2 string) (bool, error) {
	return t.run(func() (bool, error) { return t.inner.PartOf(ns1, id1, ns2, id2) })
}

func (t *Timeout) IsAOrPartOf(ns1, id1, ns2, id2 string) (bool, error) {
	return t.run(func() (bool, error) { return t.inner.IsAOrPartOf(ns1, id1, ns2, id2) })
}

func (t *Timeout) IsEquivalent(ns1, id1, ns2, id2 string) (bool, error) {
	return t.run(func() (bool, error) { return t.inner.IsEquivalent(ns1, id1, ns2, id2) })
}

func (t *Timeout) IsOpposite(ns1, id1, ns2, id2 string) (bool, error) {
	return t.run(func() (bool, error) { return t.inner.IsOpposite(ns1, id1, ns2, id2) })
}

func (t *Timeout) Component(ns, id string) (int64, bool) {
	return t.inner.Component(ns, id)
}
