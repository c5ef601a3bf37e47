package trie

import "github.com/slimchain-go/slimchain/pkg/common"

// ExtensionNodeHash and friends implement §3's node hashing rules exactly:
// leaf = H(nibbles‖H(value)); extension = H(nibbles‖child_hash);
// branch = H(child_hash[0]‖…‖child_hash[15]); a node that contributes no
// data hashes to the zero H256, which is what makes an empty tree's root
// and a pruned-away subtree both collapse to the same sentinel.

func ExtensionNodeHash(nibbles Nibbles, childHash common.H256) common.H256 {
	if childHash.IsZero() {
		return common.ZeroH256
	}
	return common.Hash256(nibbles.ToDigest().Bytes(), childHash.Bytes())
}

func LeafNodeHash(nibbles Nibbles, valueHash common.H256) common.H256 {
	if valueHash.IsZero() {
		return common.ZeroH256
	}
	return common.Hash256(nibbles.ToDigest().Bytes(), valueHash.Bytes())
}

// BranchNodeHash hashes 16 (possibly absent) child hashes. children must
// have exactly 16 entries; a nil entry stands for the zero hash. If every
// child is zero the branch itself contributes no data and hashes to zero.
func BranchNodeHash(children [16]common.H256) common.H256 {
	hasChild := false
	parts := make([][]byte, 16)
	for i, c := range children {
		if !c.IsZero() {
			hasChild = true
		}
		cc := c
		parts[i] = cc[:]
	}
	if !hasChild {
		return common.ZeroH256
	}
	return common.Hash256(parts...)
}
