package accessmap

import "github.com/slimchain-go/slimchain/pkg/common"

// AccessMap is the sliding window of read/write access history over the
// last state_len blocks (§4.F). Heights [oldest, latest] each have a
// ReadAccessItem/WriteAccessItem slot; the reverse indices answer "was
// this field touched after height h" in O(1) regardless of window size.
type AccessMap struct {
	stateLen     int
	oldestHeight common.BlockHeight
	latestHeight common.BlockHeight
	hasSlots     bool

	reads  map[common.BlockHeight]ReadAccessItem
	writes map[common.BlockHeight]WriteAccessItem

	writeRev map[common.Address]*FieldRev
	readRev  map[common.Address]*FieldRev
}

func NewAccessMap(stateLen int) *AccessMap {
	return &AccessMap{
		stateLen: stateLen,
		reads:    make(map[common.BlockHeight]ReadAccessItem),
		writes:   make(map[common.BlockHeight]WriteAccessItem),
		writeRev: make(map[common.Address]*FieldRev),
		readRev:  make(map[common.Address]*FieldRev),
	}
}

// NewAccessMapAt starts a fresh AccessMap whose first AllocNewBlock call
// returns currentHeight+1, rather than 0. A Snapshot's access map tracks
// the window of blocks *after* the one it starts from (the genesis block,
// or the latest block reloaded from durable storage on restart); that
// starting block itself has no access history to record, so no slot is
// opened for it here.
func NewAccessMapAt(stateLen int, currentHeight common.BlockHeight) *AccessMap {
	m := NewAccessMap(stateLen)
	m.oldestHeight = currentHeight
	m.latestHeight = currentHeight
	m.hasSlots = true
	return m
}

func (m *AccessMap) OldestBlockHeight() common.BlockHeight { return m.oldestHeight }
func (m *AccessMap) LatestBlockHeight() common.BlockHeight { return m.latestHeight }

// AllocNewBlock opens a fresh access slot at latest+1 and makes it the new
// latest height, ready to receive AddRead/AddWrite calls as the block's
// transactions are processed.
func (m *AccessMap) AllocNewBlock() common.BlockHeight {
	var next common.BlockHeight
	if m.hasSlots {
		next = m.latestHeight.Next()
	} else {
		next = m.latestHeight
		m.hasSlots = true
	}
	m.latestHeight = next
	m.reads[next] = make(ReadAccessItem)
	m.writes[next] = make(WriteAccessItem)
	return next
}

// AddRead records a transaction's read set against the latest slot and
// the reverse index.
func (m *AccessMap) AddRead(reads common.TxReadData) {
	item := m.reads[m.latestHeight]
	for addr, d := range reads {
		acc := ReadAccessFromReadData(d)
		item[addr] = acc
		rev, ok := m.readRev[addr]
		if !ok {
			rev = NewFieldRev()
			m.readRev[addr] = rev
		}
		rev.addRead(m.latestHeight, acc)
	}
}

// AddWrite records a transaction's write set against the latest slot and
// the reverse index.
func (m *AccessMap) AddWrite(writes common.TxWriteData) {
	item := m.writes[m.latestHeight]
	for addr, d := range writes {
		acc := WriteAccessFromWriteData(d)
		item[addr] = acc
		rev, ok := m.writeRev[addr]
		if !ok {
			rev = NewFieldRev()
			m.writeRev[addr] = rev
		}
		rev.addWrite(m.latestHeight, acc)
	}
}

func (m *AccessMap) GetWriteRev(addr common.Address) (*FieldRev, bool) {
	r, ok := m.writeRev[addr]
	return r, ok
}

func (m *AccessMap) GetReadRev(addr common.Address) (*FieldRev, bool) {
	r, ok := m.readRev[addr]
	return r, ok
}

// RemoveOldestBlock slides the window forward by one once it has grown
// past stateLen, evicting the oldest slot and reporting, via PruningData,
// every account/key whose reverse history became empty as a result (the
// trie nodes backing them are safe to prune, §4.B/§4.F).
func (m *AccessMap) RemoveOldestBlock() (pd *PruningData, advanced bool) {
	pd = NewPruningData()
	windowSize := int64(m.latestHeight) - int64(m.oldestHeight) + 1
	if !m.hasSlots || windowSize <= int64(m.stateLen) {
		return pd, false
	}

	evicted := m.oldestHeight
	readItem := m.reads[evicted]
	writeItem := m.writes[evicted]
	delete(m.reads, evicted)
	delete(m.writes, evicted)
	m.oldestHeight = evicted.Next()

	for addr, acc := range readItem {
		rev := m.readRev[addr]
		if rev == nil {
			continue
		}
		popIfFront(&rev.Nonce, evicted, acc.Nonce)
		popIfFront(&rev.Code, evicted, acc.Code)
		for k := range acc.Values {
			popIfFrontKey(rev.Values, k, evicted)
		}
	}
	for addr, acc := range writeItem {
		rev := m.writeRev[addr]
		if rev == nil {
			continue
		}
		popIfFront(&rev.Nonce, evicted, acc.Nonce)
		popIfFront(&rev.Code, evicted, acc.Code)
		popIfFront(&rev.ResetValues, evicted, acc.ResetValues)
		for k := range acc.Values {
			popIfFrontKey(rev.Values, k, evicted)
		}
		if rev.isEmpty() {
			delete(m.writeRev, addr)
			pd.AddAccount(addr)
		} else {
			for k := range acc.Values {
				if _, stillTracked := rev.Values[k]; !stillTracked {
					pd.AddValue(addr, k)
				}
			}
		}
	}

	return pd, true
}

func popIfFront(l *BlockHeightList, h common.BlockHeight, touched bool) {
	if !touched {
		return
	}
	if front, ok := l.Front(); ok && front == h {
		*l = l.RemoveOldest()
	}
}

func popIfFrontKey(m map[common.StateKey]BlockHeightList, k common.StateKey, h common.BlockHeight) {
	l := m[k]
	if front, ok := l.Front(); ok && front == h {
		l = l.RemoveOldest()
		if len(l) == 0 {
			delete(m, k)
			return
		}
		m[k] = l
	}
}

func (r *FieldRev) isEmpty() bool {
	return len(r.Nonce) == 0 && len(r.Code) == 0 && len(r.ResetValues) == 0 && len(r.Values) == 0
}
