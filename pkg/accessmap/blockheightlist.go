// Copyright 2024 The slimchain-go Authors
// This file is part of the slimchain-go library.
//
// The slimchain-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slimchain-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slimchain-go library. If not, see <http://www.gnu.org/licenses/>.

// Package accessmap implements the per-account read/write access history
// and the OCC/SSI conflict-check predicates over it (§4.F).
package accessmap

import "github.com/slimchain-go/slimchain/pkg/common"

// BlockHeightList is a strictly monotonically increasing sequence of block
// heights that touched one field of one account. Appending the current
// tail height is a no-op (a field can be touched more than once within the
// same block).
type BlockHeightList []common.BlockHeight

func (l BlockHeightList) IsMonotonicIncreasing() bool {
	for i := 1; i < len(l); i++ {
		if l[i] <= l[i-1] {
			return false
		}
	}
	return true
}

// Add appends h to the list unless it's already the tail.
func (l BlockHeightList) Add(h common.BlockHeight) BlockHeightList {
	if len(l) > 0 && l[len(l)-1] == h {
		return l
	}
	return append(l, h)
}

// RemoveOldest pops the front entry. The caller is responsible for only
// calling this when front equals the height actually being evicted.
func (l BlockHeightList) RemoveOldest() BlockHeightList {
	if len(l) == 0 {
		return l
	}
	return l[1:]
}

// ConflictsWith reports whether this field was touched strictly after h:
// true iff the list's last element is greater than h.
func (l BlockHeightList) ConflictsWith(h common.BlockHeight) bool {
	if len(l) == 0 {
		return false
	}
	return l[len(l)-1] > h
}

func (l BlockHeightList) Front() (common.BlockHeight, bool) {
	if len(l) == 0 {
		return 0, false
	}
	return l[0], true
}
