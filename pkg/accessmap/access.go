package accessmap

import "github.com/slimchain-go/slimchain/pkg/common"

// AccountReadAccess is the set of fields one transaction read from one
// account.
type AccountReadAccess struct {
	Nonce  bool
	Code   bool
	Values map[common.StateKey]struct{}
}

func NewAccountReadAccess() *AccountReadAccess {
	return &AccountReadAccess{Values: make(map[common.StateKey]struct{})}
}

// AccountWriteAccess is the set of fields one transaction wrote to one
// account. ResetValues marks that every prior value was discarded, which
// matters to conflict checking as much as an explicit key would: a reset
// write conflicts with anything that read or wrote any value, not only
// the keys this write happens to mention.
type AccountWriteAccess struct {
	Nonce       bool
	Code        bool
	ResetValues bool
	Values      map[common.StateKey]struct{}
}

func NewAccountWriteAccess() *AccountWriteAccess {
	return &AccountWriteAccess{Values: make(map[common.StateKey]struct{})}
}

func ReadAccessFromReadData(d *common.AccountReadData) *AccountReadAccess {
	a := NewAccountReadAccess()
	a.Nonce = d.Nonce != nil
	a.Code = d.Code != nil
	for k := range d.Values {
		a.Values[k] = struct{}{}
	}
	return a
}

func WriteAccessFromWriteData(d *common.AccountWriteData) *AccountWriteAccess {
	a := NewAccountWriteAccess()
	a.Nonce = d.Nonce != nil
	a.Code = d.Code != nil
	a.ResetValues = d.ResetValues
	for k := range d.Values {
		a.Values[k] = struct{}{}
	}
	return a
}

// ReadAccessItem is the per-account read access recorded for one block.
type ReadAccessItem map[common.Address]*AccountReadAccess

// WriteAccessItem is the per-account write access recorded for one block.
type WriteAccessItem map[common.Address]*AccountWriteAccess

// FieldRev is one account's reverse index: for nonce, code, the
// reset-values marker, and every individually-touched state key, the
// monotonic BlockHeightList of heights that touched it (§4.F).
type FieldRev struct {
	Nonce       BlockHeightList
	Code        BlockHeightList
	ResetValues BlockHeightList
	Values      map[common.StateKey]BlockHeightList
}

func NewFieldRev() *FieldRev {
	return &FieldRev{Values: make(map[common.StateKey]BlockHeightList)}
}

func (r *FieldRev) addRead(h common.BlockHeight, a *AccountReadAccess) {
	if a.Nonce {
		r.Nonce = r.Nonce.Add(h)
	}
	if a.Code {
		r.Code = r.Code.Add(h)
	}
	for k := range a.Values {
		r.Values[k] = r.Values[k].Add(h)
	}
}

func (r *FieldRev) addWrite(h common.BlockHeight, a *AccountWriteAccess) {
	if a.Nonce {
		r.Nonce = r.Nonce.Add(h)
	}
	if a.Code {
		r.Code = r.Code.Add(h)
	}
	if a.ResetValues {
		r.ResetValues = r.ResetValues.Add(h)
	}
	for k := range a.Values {
		r.Values[k] = r.Values[k].Add(h)
	}
}

// HasConflictInReadSet reports whether a read access against this (write)
// reverse index, executed at h_t, is stale: some field it read was
// written again after h_t, either by name or via a later reset.
func (r *FieldRev) HasConflictInReadSet(h common.BlockHeight, a *AccountReadAccess) bool {
	if a.Nonce && r.Nonce.ConflictsWith(h) {
		return true
	}
	if a.Code && r.Code.ConflictsWith(h) {
		return true
	}
	if len(a.Values) > 0 && r.ResetValues.ConflictsWith(h) {
		return true
	}
	for k := range a.Values {
		if r.Values[k].ConflictsWith(h) {
			return true
		}
	}
	return false
}

// HasConflictInWriteSet reports whether a write access against this
// reverse index, executed at h_t, collides: some field it's about to
// write (or reset) was touched again after h_t.
func (r *FieldRev) HasConflictInWriteSet(h common.BlockHeight, a *AccountWriteAccess) bool {
	if a.Nonce && r.Nonce.ConflictsWith(h) {
		return true
	}
	if a.Code && r.Code.ConflictsWith(h) {
		return true
	}
	if a.ResetValues {
		if r.ResetValues.ConflictsWith(h) {
			return true
		}
		for _, list := range r.Values {
			if list.ConflictsWith(h) {
				return true
			}
		}
		return false
	}
	if r.ResetValues.ConflictsWith(h) {
		return true
	}
	for k := range a.Values {
		if r.Values[k].ConflictsWith(h) {
			return true
		}
	}
	return false
}
