package chain

import (
	"sync/atomic"

	"github.com/slimchain-go/slimchain/pkg/common"
)

// LatestHeaderCell is a process-wide atomic slot publishing the most
// recently committed header, so readers (admission, RPC) can get a
// stable snapshot without taking a lock on the snapshot itself (§4.L).
type LatestHeaderCell struct {
	v atomic.Pointer[Header]
}

// Set replaces the published header. Only the verify/commit pipeline
// calls this, after a successful commit.
func (c *LatestHeaderCell) Set(h Header) {
	c.v.Store(&h)
}

// Get returns the current header, or NotFound if nothing has been
// committed yet.
func (c *LatestHeaderCell) Get() (Header, error) {
	p := c.v.Load()
	if p == nil {
		return nil, Errorf(NotFound, "no block has been committed yet")
	}
	return *p, nil
}

// GetHeightAndStateRoot is the common case: just enough to answer a
// freshness check or a client's "what height are you at" query.
func (c *LatestHeaderCell) GetHeightAndStateRoot() (common.BlockHeight, common.H256, error) {
	h, err := c.Get()
	if err != nil {
		return 0, common.ZeroH256, err
	}
	return h.Height(), h.StateRoot(), nil
}
