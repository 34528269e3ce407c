package probe

import "time"

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithQuirks declares the board's quirk bits. Quirks are fixed per build and
// cannot change after construction.
func WithQuirks(q Quirk) Option {
	return func(c *Controller) {
		c.quirks = q
	}
}

// WithSettleDelay sets the minimum delay between line-level changes and the
// clock edge on the bit-banged path. Platforms with continuously latched
// input sampling can leave this at zero.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.settle = d
	}
}
