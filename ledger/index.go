package ledger

// InstructionIndex locates a single instruction within the ledger:
// (slot, block_index, outer_index, inner_index?). It is the sort key every
// stream the assembler consumes must already be ordered by.
type InstructionIndex struct {
	Slot       int64
	BlockIndex int64
	OuterIndex int64
	InnerIndex *int64
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b
// in ledger order.
//
// Within one outer instruction, inner (CPI) instructions are a child call
// completed before the outer instruction itself returns, so they sort
// strictly before it: an absent InnerIndex sorts after any present one at
// the same (slot, block_index, outer_index).
func (a InstructionIndex) Compare(b InstructionIndex) int {
	if a.Slot != b.Slot {
		return cmpInt64(a.Slot, b.Slot)
	}
	if a.BlockIndex != b.BlockIndex {
		return cmpInt64(a.BlockIndex, b.BlockIndex)
	}
	if a.OuterIndex != b.OuterIndex {
		return cmpInt64(a.OuterIndex, b.OuterIndex)
	}
	switch {
	case a.InnerIndex == nil && b.InnerIndex == nil:
		return 0
	case a.InnerIndex == nil:
		return 1
	case b.InnerIndex == nil:
		return -1
	default:
		return cmpInt64(*a.InnerIndex, *b.InnerIndex)
	}
}

// Less reports whether a sorts strictly before b.
func (a InstructionIndex) Less(b InstructionIndex) bool {
	return a.Compare(b) < 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
