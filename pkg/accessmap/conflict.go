package accessmap

import "github.com/slimchain-go/slimchain/pkg/common"

// ConflictCheck is OCC or SSI: given a transaction's exec height and its
// read/write sets, decide whether replaying it at the current head would
// violate serializability against everything already recorded since that
// height.
type ConflictCheck interface {
	HasConflict(m *AccessMap, txBlockHeight common.BlockHeight, reads common.TxReadData, writes common.TxWriteData) bool
}

// OCCConflictCheck is the conservative default: reject if any read field
// was written again after the tx's exec height, or any written field
// (read or not) was written again after it.
type OCCConflictCheck struct{}

func (OCCConflictCheck) HasConflict(m *AccessMap, h common.BlockHeight, reads common.TxReadData, writes common.TxWriteData) bool {
	for addr, accRead := range reads {
		rev, ok := m.GetWriteRev(addr)
		if !ok {
			continue
		}
		if rev.HasConflictInReadSet(h, accRead) {
			return true
		}
	}
	for addr, accWrite := range writes {
		rev, ok := m.GetWriteRev(addr)
		if !ok {
			continue
		}
		if rev.HasConflictInWriteSet(h, accWrite) {
			return true
		}
	}
	return false
}

// SSIConflictCheck allows a write to proceed even if some field it reads
// was written again after h, and even if some field it writes was read
// again after h, individually — only rejecting when BOTH hold at once (a
// genuine rw + wr antidependency pair), or when two writes collide
// head-on on the same field (an immediate OCC-style reject).
type SSIConflictCheck struct{}

func (SSIConflictCheck) HasConflict(m *AccessMap, h common.BlockHeight, reads common.TxReadData, writes common.TxWriteData) bool {
	rwAntidependency := false
	wrAntidependency := false

	for addr, accWrite := range writes {
		rev, ok := m.GetWriteRev(addr)
		if ok && rev.HasConflictInWriteSet(h, accWrite) {
			return true
		}

		if readRev, ok := m.GetReadRev(addr); ok {
			rwAntidependency = rwAntidependency || readRev.HasConflictInWriteSet(h, accWrite)
		}
	}

	for addr, accRead := range reads {
		rev, ok := m.GetWriteRev(addr)
		if !ok {
			continue
		}
		wrAntidependency = wrAntidependency || rev.HasConflictInReadSet(h, accRead)
	}

	return rwAntidependency && wrAntidependency
}

func New(name string) (ConflictCheck, bool) {
	switch name {
	case "occ":
		return OCCConflictCheck{}, true
	case "ssi":
		return SSIConflictCheck{}, true
	default:
		return nil, false
	}
}
