package unit

import "digital.vasic.passoff/pkg/result"

// Chain runs a sequence of dependent units in order, folding
// every result left to right through result.Merge. Every link
// is always visited; an Error in an early link never skips the
// links after it. The folded result is owned by the first link,
// so the chain reports itself through its head even when the
// severity comes from a later link.
type Chain struct {
	Base
	links []Unit
}

// NewChain creates an empty chain bound to the given context.
func NewChain(ctx *Context, name string) *Chain {
	return &Chain{Base: NewBase(ctx, name)}
}

// Append links a unit after the current tail of the chain.
func (c *Chain) Append(u Unit) {
	c.links = append(c.links, u)
}

// Len returns the number of linked units.
func (c *Chain) Len() int { return len(c.links) }

// Check performs only the head link's check, the chain's own
// primary action. Use Invoke to walk the whole chain.
func (c *Chain) Check() *result.Result {
	if len(c.links) == 0 {
		return c.SuccessResult("")
	}
	return c.links[0].Check()
}

// Invoke walks the chain from head to tail, calling each
// link's Check and merging the results into one.
func (c *Chain) Invoke() *result.Result {
	var merged *result.Result
	for _, link := range c.links {
		merged = result.Merge(merged, link.Check())
	}
	if merged == nil {
		return c.SuccessResult("")
	}
	return merged
}

// Cleanup cleans every link and then the chain's own tracked
// files.
func (c *Chain) Cleanup() {
	for _, link := range c.links {
		link.Cleanup()
	}
	c.Base.Cleanup()
}
