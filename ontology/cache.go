package ontology

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cached wraps a Service with a TTL cache over query results. Intended for
// networked or otherwise expensive backends; the in-memory Graph does not
// need it. Errors are never cached so that a transient outage does not
// poison a run.
type Cached struct {
	inner Service
	cache *gocache.Cache
}

// NewCached wraps inner with a cache using the given TTL and cleanup
// interval.
func NewCached(inner Service, ttl, cleanup time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: gocache.New(ttl, cleanup),
	}
}

func (c *Cached) lookup(key string, query func() (bool, error)) (bool, error) {
	if v, found := c.cache.Get(key); found {
		return v.(bool), nil
	}
	res, err := query()
	if err != nil {
		return false, err
	}
	c.cache.SetDefault(key, res)
	return res, nil
}

func cacheKey(op, ns1, id1, ns2, id2 string) string {
	return op + "|" + Label(ns1, id1) + "|" + Label(ns2, id2)
}

func (c *Cached) IsA(ns1, id1, ns2, id2 string) (bool, error) {
	return c.lookup(cacheKey("isa", ns1, id1, ns2, id2), func() (bool, error) {
		return c.inner.IsA(ns1, id1, ns2, id2)
	})
}

func (c *Cached) PartOf(ns1, id1, ns2, id2 string) (bool, error) {
	return c.lookup(cacheKey("partof", ns1, id1, ns2, id2), func() (bool, error) {
		return c.inner.PartOf(ns1, id1, ns2, id2)
	})
}

func (c *Cached) IsAOrPartOf(ns1, id1, ns2, id2 string) (bool, error) {
	return c.lookup(cacheKey("isa_or_partof", ns1, id1, ns2, id2), func() (bool, error) {
		return c.inner.IsAOrPartOf(ns1, id1, ns2, id2)
	})
}

func (c *Cached) IsEquivalent(ns1, id1, ns2, id2 string) (bool, error) {
	return c.lookup(cacheKey("xref", ns1, id1, ns2, id2), func() (bool, error) {
		return c.inner.IsEquivalent(ns1, id1, ns2, id2)
	})
}

func (c *Cached) IsOpposite(ns1, id1, ns2, id2 string) (bool, error) {
	return c.lookup(cacheKey("opposite", ns1, id1, ns2, id2), func() (bool, error) {
		return c.inner.IsOpposite(ns1, id1, ns2, id2)
	})
}

func (c *Cached) Component(ns, id string) (int64, bool) {
	return c.inner.Component(ns, id)
}
