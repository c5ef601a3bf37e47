package txstate

import (
	"fmt"

	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
	"github.com/slimchain-go/slimchain/pkg/trie/partial"
)

// AccountReadProof authenticates one account's nonce, code hash, and a
// sparse proof over the subset of its state trie a transaction read.
type AccountReadProof struct {
	Nonce          common.Nonce
	CodeHash       common.H256
	StateReadProof *partial.Proof[common.StateValue]
}

// TxReadProof authenticates a transaction's entire read set against a
// single main-trie root: a sparse main-trie proof covering every account
// read, plus each account's AccountReadProof (§4.E/§8, read proofs for
// untrusted clients).
type TxReadProof struct {
	MainProof *partial.Proof[common.AccountData]
	AccProofs map[common.Address]*AccountReadProof
}

// BuildTxReadProof materializes a TxReadProof for exactly the accounts and
// keys named in reads, against the main trie rooted at mainRoot.
func BuildTxReadProof(view state.TxStateView, mainRoot common.H256, reads common.TxReadData) (*TxReadProof, error) {
	addrKeys := make([][]byte, 0, len(reads))
	for addr := range reads {
		addrKeys = append(addrKeys, addr.Bytes())
	}
	mainProof, err := partial.BuildProof[common.AccountData](state.NewAccountTrieView(view), mainRoot, addrKeys)
	if err != nil {
		return nil, err
	}

	accProofs := make(map[common.Address]*AccountReadProof, len(reads))
	for addr, accReads := range reads {
		accData, err := state.ReadAccount(view, mainRoot, addr)
		if err != nil {
			return nil, err
		}

		stateKeys := make([][]byte, 0, len(accReads.Values))
		for k := range accReads.Values {
			k := k
			stateKeys = append(stateKeys, k[:])
		}
		stateProof, err := partial.BuildProof[common.StateValue](state.NewStateTrieView(view, addr), accData.AccStateRoot, stateKeys)
		if err != nil {
			return nil, err
		}

		accProofs[addr] = &AccountReadProof{
			Nonce:          accData.Nonce,
			CodeHash:       accData.Code.ToDigest(),
			StateReadProof: stateProof,
		}
	}

	return &TxReadProof{MainProof: mainProof, AccProofs: accProofs}, nil
}

// Verify checks that reads is consistent with stateRoot according to p,
// following the exact field-by-field checks of the original read-proof
// verifier: nonce, code hash, each read state value, each account's
// digest within the main trie, and finally the main trie's own root.
func (p *TxReadProof) Verify(reads common.TxReadData, stateRoot common.H256) error {
	for addr, accReads := range reads {
		accProof, ok := p.AccProofs[addr]
		if !ok {
			return fmt.Errorf("txreadproof: account proof unavailable (address: %s)", addr)
		}

		if accReads.Nonce != nil && *accReads.Nonce != accProof.Nonce {
			return fmt.Errorf("txreadproof: invalid nonce (address: %s, expect: %d, actual: %d)", addr, accProof.Nonce, *accReads.Nonce)
		}

		if accReads.Code != nil {
			codeHash := accReads.Code.ToDigest()
			if codeHash != accProof.CodeHash {
				return fmt.Errorf("txreadproof: invalid code (address: %s, expect: %s, actual: %s)", addr, accProof.CodeHash, codeHash)
			}
		}

		for k, v := range accReads.Values {
			got, ok := accProof.StateReadProof.ValueHash(k[:])
			if !ok || common.StateValue(got) != v {
				return fmt.Errorf("txreadproof: invalid value (address: %s, key: %s)", addr, common.H256(k))
			}
		}

		accStateRoot := accProof.StateReadProof.RootHash()
		accHash := common.AccountDataDigest(accProof.Nonce.ToDigest(), accProof.CodeHash, accStateRoot)
		mainHash, ok := p.MainProof.ValueHash(addr.Bytes())
		if !ok || mainHash != accHash {
			return fmt.Errorf("txreadproof: invalid account hash (address: %s)", addr)
		}
	}

	if p.MainProof.RootHash() != stateRoot {
		return fmt.Errorf("txreadproof: invalid state root (expect: %s, actual: %s)", stateRoot, p.MainProof.RootHash())
	}
	return nil
}
