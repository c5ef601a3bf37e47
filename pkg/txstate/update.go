// Package txstate implements the write-set applier (§4.E): given a base
// main-trie root and a transaction's write set, produce the minimal new
// trie nodes and the resulting root.
package txstate

import (
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
	"github.com/slimchain-go/slimchain/pkg/trie"
	"github.com/slimchain-go/slimchain/pkg/trie/storage"
)

// TxStateUpdate is the minimal set of new main-trie and per-account
// state-trie nodes produced by applying a write set, plus the resulting
// main-trie root (§4.E). It is both what a miner attaches to a block
// proposal and what a verifier persists on commit.
type TxStateUpdate struct {
	Root       common.H256
	AccNodes   map[common.H256]trie.Node[common.AccountData]
	StateNodes map[common.Address]map[common.H256]trie.Node[common.StateValue]
}

func NewTxStateUpdate() *TxStateUpdate {
	return &TxStateUpdate{
		AccNodes:   make(map[common.H256]trie.Node[common.AccountData]),
		StateNodes: make(map[common.Address]map[common.H256]trie.Node[common.StateValue]),
	}
}

// Merge folds other into u, other's root winning (other is assumed to be
// the later update in sequence).
func (u *TxStateUpdate) Merge(other *TxStateUpdate) {
	u.Root = other.Root
	for h, n := range other.AccNodes {
		u.AccNodes[h] = n
	}
	for addr, nodes := range other.StateNodes {
		dst, ok := u.StateNodes[addr]
		if !ok {
			dst = make(map[common.H256]trie.Node[common.StateValue])
			u.StateNodes[addr] = dst
		}
		for h, n := range nodes {
			dst[h] = n
		}
	}
}

// UpdateTxState replays a transaction's write set against the main trie
// rooted at oldRoot, producing the new nodes and root (§4.E). For every
// touched account: read its current AccountData (zero value if absent),
// start its state trie from empty if the write resets values or from its
// prior acc_state_root otherwise, apply the account's state writes, then
// write back the account's nonce/code/new state root into the main trie.
func UpdateTxState(view state.TxStateView, oldRoot common.H256, writes common.TxWriteData) (*TxStateUpdate, error) {
	update := NewTxStateUpdate()
	accWriter := storage.NewWriter[common.AccountData](state.NewAccountTrieView(view), oldRoot)

	for addr, accWrite := range writes {
		oldAccData, err := state.ReadAccount(view, oldRoot, addr)
		if err != nil {
			return nil, err
		}

		accStateRoot := oldAccData.AccStateRoot
		if accWrite.ResetValues {
			accStateRoot = common.ZeroH256
		}

		stateWriter := storage.NewWriter[common.StateValue](state.NewStateTrieView(view, addr), accStateRoot)
		for k, v := range accWrite.Values {
			if err := stateWriter.Insert(k[:], v); err != nil {
				return nil, err
			}
		}
		stateApply := stateWriter.Changes()

		nonce := oldAccData.Nonce
		if accWrite.Nonce != nil {
			nonce = *accWrite.Nonce
		}
		code := oldAccData.Code
		if accWrite.Code != nil {
			code = *accWrite.Code
		}

		newAccData := common.AccountData{Nonce: nonce, Code: code, AccStateRoot: stateApply.Root}

		if len(stateApply.Nodes) > 0 {
			update.StateNodes[addr] = stateApply.Nodes
		}

		if err := accWriter.Insert(addr.Bytes(), newAccData); err != nil {
			return nil, err
		}
	}

	accApply := accWriter.Changes()
	update.Root = accApply.Root
	for h, n := range accApply.Nodes {
		update.AccNodes[h] = n
	}
	return update, nil
}

// ViewWithUpdate layers an in-memory TxStateUpdate over an underlying
// TxStateView, so subsequent reads (e.g. a following transaction in the
// same proposal) see the first transaction's writes without those nodes
// having been persisted yet.
type ViewWithUpdate struct {
	Base   state.TxStateView
	Update *TxStateUpdate
}

func NewViewWithUpdate(base state.TxStateView, update *TxStateUpdate) *ViewWithUpdate {
	return &ViewWithUpdate{Base: base, Update: update}
}

func (v *ViewWithUpdate) AccountTrieNode(nodeHash common.H256) (trie.Node[common.AccountData], error) {
	if n, ok := v.Update.AccNodes[nodeHash]; ok {
		return n, nil
	}
	return v.Base.AccountTrieNode(nodeHash)
}

func (v *ViewWithUpdate) StateTrieNode(accAddr common.Address, nodeHash common.H256) (trie.Node[common.StateValue], error) {
	if nodes, ok := v.Update.StateNodes[accAddr]; ok {
		if n, ok := nodes[nodeHash]; ok {
			return n, nil
		}
	}
	return v.Base.StateTrieNode(accAddr, nodeHash)
}
