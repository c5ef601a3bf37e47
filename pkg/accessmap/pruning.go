package accessmap

import "github.com/slimchain-go/slimchain/pkg/common"

// Pruner is the trie-side hook RemoveOldestBlock's result is applied to:
// remove now-untracked trie nodes for a whole account, or for a single
// state key within an account whose other still-tracked keys are given
// so only the truly dead nodes get dropped (§4.B).
type Pruner interface {
	PruneAccount(addr common.Address, stillTrackedAccounts []common.Address) error
	PruneAccountStateKey(addr common.Address, key common.StateKey, stillTrackedKeys []common.StateKey) error
}

// PruningData is the set of accounts and state keys RemoveOldestBlock
// determined are no longer referenced by the access map's reverse index,
// and so may safely be pruned from the trie.
type PruningData struct {
	Accounts map[common.Address]struct{}
	Values   map[common.Address]map[common.StateKey]struct{}
}

func NewPruningData() *PruningData {
	return &PruningData{
		Accounts: make(map[common.Address]struct{}),
		Values:   make(map[common.Address]map[common.StateKey]struct{}),
	}
}

func (p *PruningData) AddAccount(addr common.Address) {
	delete(p.Values, addr)
	p.Accounts[addr] = struct{}{}
}

func (p *PruningData) AddValue(addr common.Address, key common.StateKey) {
	if _, ok := p.Accounts[addr]; ok {
		return
	}
	m, ok := p.Values[addr]
	if !ok {
		m = make(map[common.StateKey]struct{})
		p.Values[addr] = m
	}
	m[key] = struct{}{}
}

// Apply hands every collected prune request to pruner, passing along
// which other addresses/keys the access map still tracks so the pruner
// knows what it must NOT discard.
func (p *PruningData) Apply(m *AccessMap, pruner Pruner) error {
	otherAccounts := make([]common.Address, 0, len(m.writeRev))
	for other := range m.writeRev {
		otherAccounts = append(otherAccounts, other)
	}
	for addr := range p.Accounts {
		if err := pruner.PruneAccount(addr, otherAccounts); err != nil {
			return err
		}
	}

	for addr, keys := range p.Values {
		rev, ok := m.writeRev[addr]
		if !ok {
			continue
		}
		otherKeys := make([]common.StateKey, 0, len(rev.Values))
		for other := range rev.Values {
			otherKeys = append(otherKeys, other)
		}
		for key := range keys {
			if err := pruner.PruneAccountStateKey(addr, key, otherKeys); err != nil {
				return err
			}
		}
	}
	return nil
}
