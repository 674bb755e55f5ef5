package contextbag

// BlockAllowKind tags the four outcomes of an allowlist/blocklist
// check: a bare allow/block (no list matched, no lists were set, or
// the match was the context itself at depth 0) versus an allow/block
// attributed to a specific ancestor context, named by index, at some
// nonzero depth.
type BlockAllowKind int

const (
	Allowed BlockAllowKind = iota
	AllowedBy
	Blocked
	BlockedBy
)

// BlockAllow is the tagged result of IsAllowed.
type BlockAllow struct {
	Kind  BlockAllowKind
	Index int // meaningful only for AllowedBy/BlockedBy
}

func allow(index, depth int) BlockAllow {
	if depth == 0 {
		return BlockAllow{Kind: Allowed}
	}
	return BlockAllow{Kind: AllowedBy, Index: index}
}

func block(index, depth int) BlockAllow {
	if depth == 0 {
		return BlockAllow{Kind: Blocked}
	}
	return BlockAllow{Kind: BlockedBy, Index: index}
}
