package partial

import "github.com/slimchain-go/slimchain/pkg/trie"

// Diff is the same SubTree shape as Proof, but carries nodes a writer
// produced relative to some earlier root rather than nodes read off an
// existing one: everything the writer touched is expanded, everything it
// didn't is left a Hash placeholder pointing at the unchanged old subtree.
// A miner attaches a Diff to its block proposal instead of the full write
// set so a verifier already holding the old nodes only needs the delta
// (§4.C, §4.I).
type Diff[V trie.Value] struct {
	Root SubTree[V]
}

// ApplyDiff splices diff into base along every path diff actually
// expanded, replacing base's placeholder at that path with diff's
// concrete node; paths diff left as a Hash placeholder are untouched in
// base. allowRootSwap mirrors the original's apply_diff(.., true) for
// commit: wherever base is a Hash placeholder, diff's node at that path
// replaces it outright, even when diff's node is itself a non-empty Hash
// placeholder. Where base is concrete, both settings merge path by path.
func ApplyDiff[V trie.Value](base SubTree[V], diff SubTree[V], allowRootSwap bool) SubTree[V] {
	if diff == nil {
		return base
	}
	if base == nil {
		return diff
	}
	if _, baseIsHash := base.(*HashSubTree[V]); baseIsHash {
		if allowRootSwap || CanBePruned[V](diff) {
			return diff
		}
	}
	switch d := diff.(type) {
	case *HashSubTree[V]:
		return base
	case *LeafSubTree[V]:
		return d
	case *ExtensionSubTree[V]:
		be, ok := base.(*ExtensionSubTree[V])
		if !ok {
			return d
		}
		return &ExtensionSubTree[V]{Nibbles: be.Nibbles, Child: ApplyDiff(be.Child, d.Child, allowRootSwap)}
	case *BranchSubTree[V]:
		bb, ok := base.(*BranchSubTree[V])
		if !ok {
			return d
		}
		merged := &BranchSubTree[V]{}
		for i := range merged.Children {
			merged.Children[i] = ApplyDiff(bb.Children[i], d.Children[i], allowRootSwap)
		}
		return merged
	default:
		return base
	}
}

// MergeDiff combines two diffs produced against the same base root — e.g.
// two transactions' write diffs within the same proposed block — into one,
// preferring whichever side expanded a given path. Diverging concrete
// nodes at the same path is a programmer error: the caller must merge
// diffs that touch disjoint keys, or replay them as a sequential apply
// instead.
func MergeDiff[V trie.Value](a, b SubTree[V]) SubTree[V] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	aHash, aIsHash := a.(*HashSubTree[V])
	if aIsHash {
		if aHash.H.IsZero() {
			return b
		}
		return b
	}
	if _, bIsHash := b.(*HashSubTree[V]); bIsHash {
		return a
	}
	switch av := a.(type) {
	case *ExtensionSubTree[V]:
		bv, ok := b.(*ExtensionSubTree[V])
		if !ok {
			return a
		}
		return &ExtensionSubTree[V]{Nibbles: av.Nibbles, Child: MergeDiff(av.Child, bv.Child)}
	case *BranchSubTree[V]:
		bv, ok := b.(*BranchSubTree[V])
		if !ok {
			return a
		}
		merged := &BranchSubTree[V]{}
		for i := range merged.Children {
			merged.Children[i] = MergeDiff(av.Children[i], bv.Children[i])
		}
		return merged
	default:
		return a
	}
}

// DiffMissingBranches reports every Hash placeholder in want that base
// cannot already answer, i.e. the set of subtree roots a verifier must
// still request before it can apply want in full. Used by the verifier's
// update_missing_branches path when it receives a full trie rather than a
// pre-computed Diff (§4.J).
func DiffMissingBranches[V trie.Value](base, want SubTree[V]) []trie.Nibbles {
	var missing []trie.Nibbles
	walkMissing(base, want, nil, &missing)
	return missing
}

func walkMissing[V trie.Value](base, want SubTree[V], prefix trie.Nibbles, out *[]trie.Nibbles) {
	if want == nil {
		return
	}
	if _, wantIsHash := want.(*HashSubTree[V]); wantIsHash {
		return
	}
	if base == nil {
		*out = append(*out, append(trie.Nibbles{}, prefix...))
		return
	}
	if _, baseIsHash := base.(*HashSubTree[V]); baseIsHash {
		if !CanBePruned[V](want) {
			*out = append(*out, append(trie.Nibbles{}, prefix...))
		}
		return
	}
	switch wv := want.(type) {
	case *ExtensionSubTree[V]:
		bv, ok := base.(*ExtensionSubTree[V])
		if !ok {
			return
		}
		walkMissing[V](bv.Child, wv.Child, append(append(trie.Nibbles{}, prefix...), wv.Nibbles...), out)
	case *BranchSubTree[V]:
		bv, ok := base.(*BranchSubTree[V])
		if !ok {
			return
		}
		for i := range wv.Children {
			walkMissing[V](bv.Children[i], wv.Children[i], append(append(trie.Nibbles{}, prefix...), byte(i)), out)
		}
	}
}
