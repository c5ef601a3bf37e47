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

// Package state implements the two-level (main + per-account) trie facade
// (§4.D): a TxStateView answers raw node lookups by hash, and the
// AccountTrieView/StateTrieView adaptors present either half as a
// pkg/trie.NodeLoader so the generic trie code never has to know it's
// looking at two tries instead of one.
package state

import (
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/trie"
	"github.com/slimchain-go/slimchain/pkg/trie/storage"
)

// TxStateView is the read-only dependency every trie operation has on
// persistence: fetch the main-trie node at a hash, or the per-account
// state-trie node at a hash for a given account.
type TxStateView interface {
	AccountTrieNode(nodeHash common.H256) (trie.Node[common.AccountData], error)
	StateTrieNode(accAddr common.Address, nodeHash common.H256) (trie.Node[common.StateValue], error)
}

// AccountTrieView adapts a TxStateView into a NodeLoader for the main
// (address -> AccountData) trie.
type AccountTrieView struct {
	View TxStateView
}

func NewAccountTrieView(view TxStateView) AccountTrieView { return AccountTrieView{View: view} }

func (v AccountTrieView) LoadNode(hash common.H256) (trie.Node[common.AccountData], error) {
	return v.View.AccountTrieNode(hash)
}

// StateTrieView adapts a TxStateView into a NodeLoader for one account's
// (StateKey -> StateValue) trie.
type StateTrieView struct {
	View       TxStateView
	AccAddress common.Address
}

func NewStateTrieView(view TxStateView, accAddr common.Address) StateTrieView {
	return StateTrieView{View: view, AccAddress: accAddr}
}

func (v StateTrieView) LoadNode(hash common.H256) (trie.Node[common.StateValue], error) {
	return v.View.StateTrieNode(v.AccAddress, hash)
}

// ReadAccount reads the AccountData stored for addr in the main trie
// rooted at mainRoot, returning the zero value if the account has never
// been written.
func ReadAccount(view TxStateView, mainRoot common.H256, addr common.Address) (common.AccountData, error) {
	value, found, err := storage.ReadWithoutProof[common.AccountData](NewAccountTrieView(view), mainRoot, addr.Bytes())
	if err != nil || !found {
		return common.AccountData{}, err
	}
	return value, nil
}

// ReadStateValue reads a single state slot from addr's state trie rooted
// at accStateRoot.
func ReadStateValue(view TxStateView, accStateRoot common.H256, addr common.Address, key common.StateKey) (common.StateValue, error) {
	value, found, err := storage.ReadWithoutProof[common.StateValue](NewStateTrieView(view, addr), accStateRoot, key[:])
	if err != nil || !found {
		return common.StateValue{}, err
	}
	return value, nil
}
