package common

import "sort"

// AccountReadData is the per-account portion of a transaction's read set:
// the fields and state slots the transaction's execution actually
// observed, used both to build a TxReadProof and to run conflict checks.
type AccountReadData struct {
	Nonce  *Nonce
	Code   *Code
	Values map[StateKey]StateValue
}

func NewAccountReadData() *AccountReadData {
	return &AccountReadData{Values: make(map[StateKey]StateValue)}
}

// TxReadData is a transaction's full read set, keyed by the accounts it
// touched.
type TxReadData map[Address]*AccountReadData

func NewTxReadData() TxReadData { return make(TxReadData) }

func (d TxReadData) Account(addr Address) *AccountReadData {
	a, ok := d[addr]
	if !ok {
		a = NewAccountReadData()
		d[addr] = a
	}
	return a
}

// AccountWriteData is the per-account portion of a transaction's write
// set. ResetValues, once set by any write merged into this one, sticks:
// it means the account's state trie is rebuilt from empty rather than
// from its prior root (§4.E).
type AccountWriteData struct {
	Nonce       *Nonce
	Code        *Code
	ResetValues bool
	Values      map[StateKey]StateValue
}

func NewAccountWriteData() *AccountWriteData {
	return &AccountWriteData{Values: make(map[StateKey]StateValue)}
}

// Merge folds other into a, with other's fields overriding a's on
// conflict (other is assumed to be the later write). ResetValues sticks:
// once true on either side it stays true.
func (a *AccountWriteData) Merge(other *AccountWriteData) {
	if other.Nonce != nil {
		a.Nonce = other.Nonce
	}
	if other.Code != nil {
		a.Code = other.Code
	}
	a.ResetValues = a.ResetValues || other.ResetValues
	if other.ResetValues {
		for k := range a.Values {
			delete(a.Values, k)
		}
	}
	for k, v := range other.Values {
		a.Values[k] = v
	}
}

// TxWriteData is a transaction's full write set, keyed by the accounts it
// touched.
type TxWriteData map[Address]*AccountWriteData

func NewTxWriteData() TxWriteData { return make(TxWriteData) }

func (d TxWriteData) Account(addr Address) *AccountWriteData {
	a, ok := d[addr]
	if !ok {
		a = NewAccountWriteData()
		d[addr] = a
	}
	return a
}

// Merge folds other into d account-by-account, later-overrides-earlier,
// the same rule AccountWriteData.Merge applies within one account.
func (d TxWriteData) Merge(other TxWriteData) {
	for addr, w := range other {
		if existing, ok := d[addr]; ok {
			existing.Merge(w)
		} else {
			cp := NewAccountWriteData()
			cp.Merge(w)
			d[addr] = cp
		}
	}
}

func sortedStateKeys(m map[StateKey]StateValue) []StateKey {
	keys := make([]StateKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return H256(keys[i]).Less(H256(keys[j])) })
	return keys
}

func sortedAddresses[V any](m map[Address]V) []Address {
	addrs := make([]Address, 0, len(m))
	for a := range m {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs
}

// ToDigest hashes nonce/code (if touched) followed by every value read, in
// address/key order so the digest is independent of Go's map iteration.
func (d *AccountReadData) ToDigest() H256 {
	parts := make([][]byte, 0, 2+2*len(d.Values))
	if d.Nonce != nil {
		parts = append(parts, []byte{1}, d.Nonce.ToDigest().Bytes())
	} else {
		parts = append(parts, []byte{0})
	}
	if d.Code != nil {
		parts = append(parts, []byte{1}, d.Code.ToDigest().Bytes())
	} else {
		parts = append(parts, []byte{0})
	}
	for _, k := range sortedStateKeys(d.Values) {
		v := d.Values[k]
		parts = append(parts, k.ToDigest().Bytes(), v.ToDigest().Bytes())
	}
	return Hash256(parts...)
}

// ToDigest hashes the read set of every touched account, in address order.
func (d TxReadData) ToDigest() H256 {
	parts := make([][]byte, 0, 2*len(d))
	for _, addr := range sortedAddresses(d) {
		h := d[addr].ToDigest()
		parts = append(parts, addr.ToDigest().Bytes(), h.Bytes())
	}
	return Hash256(parts...)
}

// ToDigest hashes nonce/code (if set), reset_values, and every written
// value, in key order.
func (d *AccountWriteData) ToDigest() H256 {
	parts := make([][]byte, 0, 3+2*len(d.Values))
	if d.Nonce != nil {
		parts = append(parts, []byte{1}, d.Nonce.ToDigest().Bytes())
	} else {
		parts = append(parts, []byte{0})
	}
	if d.Code != nil {
		parts = append(parts, []byte{1}, d.Code.ToDigest().Bytes())
	} else {
		parts = append(parts, []byte{0})
	}
	if d.ResetValues {
		parts = append(parts, []byte{1})
	} else {
		parts = append(parts, []byte{0})
	}
	for _, k := range sortedStateKeys(d.Values) {
		v := d.Values[k]
		parts = append(parts, k.ToDigest().Bytes(), v.ToDigest().Bytes())
	}
	return Hash256(parts...)
}

// ToDigest hashes the write set of every touched account, in address order.
func (d TxWriteData) ToDigest() H256 {
	parts := make([][]byte, 0, 2*len(d))
	for _, addr := range sortedAddresses(d) {
		h := d[addr].ToDigest()
		parts = append(parts, addr.ToDigest().Bytes(), h.Bytes())
	}
	return Hash256(parts...)
}
