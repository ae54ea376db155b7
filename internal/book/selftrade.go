package book

// SelfTradePolicy decides whether a prospective trade between a maker and
// a taker order belonging to the given users is allowed to execute. The
// base specification leaves self-trade prevention unspecified, so this is
// an interface seam with no enforcing implementation shipped: the default
// policy allows every trade, and an integrator wires a stricter policy in
// if their venue requires one.
type SelfTradePolicy interface {
	Allow(makerUserID, takerUserID uint64) bool
}

// AllowAllSelfTrades is the default SelfTradePolicy: it never blocks a
// trade, matching the base specification's silence on the matter.
type AllowAllSelfTrades struct{}

// Allow always returns true.
func (AllowAllSelfTrades) Allow(makerUserID, takerUserID uint64) bool {
	return true
}
