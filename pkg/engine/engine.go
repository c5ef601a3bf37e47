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

// Package engine implements the bounded tx-execution worker pool (§4.G): a
// push_task/pop_result/remaining_tasks/shutdown contract around N worker
// goroutines, each pulling a TxEngineTask, running it through a Backend,
// applying its write set, signing the result, and depositing a
// TxTaskOutput on the result queue.
package engine

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/slimchain-go/slimchain/internal/log"
	"github.com/slimchain-go/slimchain/pkg/backend"
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/state"
	"github.com/slimchain-go/slimchain/pkg/txstate"
)

var logger = log.NewModuleLogger("engine")

// TxEngineTask is one unit of work submitted to the pool.
type TxEngineTask struct {
	ID          uint64
	BlockHeight common.BlockHeight
	StateView   state.TxStateView
	StateRoot   common.H256
	Caller      common.Address
	SignedReq   chain.TxRequest
}

// TxTaskOutput is a completed task: either a signed transaction proposal
// ready for the miner, or an error if execution failed.
type TxTaskOutput struct {
	ID   uint64
	Tx   *chain.SignedTx
	Err  error
	Took time.Duration
}

// Signer produces the signature (and, optionally, attestation) that turns
// an executed RawTx into a SignedTx. A real deployment's Signer holds a
// private key (and, under an enclave build, requests a quote); tests can
// substitute a stub.
type Signer interface {
	Sign(raw *chain.RawTx) (chain.PubSigPair, chain.Attestation, error)
}

// DefaultThreadsEnv is the environment variable overriding the default
// worker count (§6).
const DefaultThreadsEnv = "TX_ENGINE_THREADS"

// DefaultThreads returns max(1, NumCPU-1), overridable by TX_ENGINE_THREADS.
func DefaultThreads() int {
	if v := os.Getenv(DefaultThreadsEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Engine is the bounded worker pool. push_task is non-blocking (the task
// channel is unbounded via a buffered fan-in goroutine would be one
// option; here it is simply sized generously, backpressure is the
// caller's discretion per §4.G).
type Engine struct {
	signer Signer

	tasks   chan TxEngineTask
	results chan TxTaskOutput

	inFlight int64
	queued   int64

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// New starts n worker goroutines pulling from an internally buffered task
// queue, executing against backend, and signing with signer. The pool is
// joined on Shutdown through an errgroup.Group rather than a bare
// sync.WaitGroup, since workers also need a shared cancellation signal
// (ctx.Done) to stop selecting on the results channel once Shutdown is
// underway.
func New(n int, bk backend.Backend, signer Signer) *Engine {
	if n < 1 {
		n = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, _ := errgroup.WithContext(ctx)
	e := &Engine{
		signer:  signer,
		tasks:   make(chan TxEngineTask, 4096),
		results: make(chan TxTaskOutput, 4096),
		group:   group,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < n; i++ {
		e.group.Go(func() error {
			e.worker(bk)
			return nil
		})
	}
	return e
}

// PushTask enqueues a task. Non-blocking up to the queue's capacity; a
// full queue blocks the caller, who is expected to size the engine (or
// its own admission rate) accordingly.
func (e *Engine) PushTask(t TxEngineTask) {
	atomic.AddInt64(&e.queued, 1)
	e.tasks <- t
}

// PopResult returns the next completed output, blocking until one is
// ready or the engine has fully drained after Shutdown.
func (e *Engine) PopResult() (TxTaskOutput, bool) {
	out, ok := <-e.results
	return out, ok
}

// Results exposes the output channel directly, for callers (propose.Propose)
// that need to select on it alongside a context or deadline rather than
// blocking in PopResult.
func (e *Engine) Results() <-chan TxTaskOutput {
	return e.results
}

// RemainingTasks is in_flight + queued, for drain-progress observability.
func (e *Engine) RemainingTasks() int64 {
	return atomic.LoadInt64(&e.inFlight) + atomic.LoadInt64(&e.queued)
}

// Shutdown closes the task queue and waits for every worker to finish its
// in-flight task; anything still queued is dropped, not executed (§4.G).
func (e *Engine) Shutdown() {
	e.once.Do(func() {
		e.cancel()
		close(e.tasks)
	})
	_ = e.group.Wait()
	close(e.results)
}

func (e *Engine) worker(bk backend.Backend) {
	for t := range e.tasks {
		if e.ctx.Err() != nil {
			return
		}
		atomic.AddInt64(&e.queued, -1)
		atomic.AddInt64(&e.inFlight, 1)
		out := e.run(bk, t)
		atomic.AddInt64(&e.inFlight, -1)
		select {
		case e.results <- out:
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) run(bk backend.Backend, t TxEngineTask) TxTaskOutput {
	start := time.Now()
	_, reads, writes, err := bk.Execute(t.StateView, t.StateRoot, t.Caller, t.SignedReq)
	if err != nil {
		logger.Warn("tx execution failed", "id", t.ID, "err", err)
		return TxTaskOutput{ID: t.ID, Err: err, Took: time.Since(start)}
	}

	// Speculative: confirms the write set actually applies before the tx is
	// signed and handed to the miner. The resulting nodes aren't persisted
	// here; the miner recomputes the authoritative root against its
	// accumulator once it decides to include this tx (§4.I).
	if _, err := txstate.UpdateTxState(t.StateView, t.StateRoot, writes); err != nil {
		logger.Warn("update_tx_state failed", "id", t.ID, "err", err)
		return TxTaskOutput{ID: t.ID, Err: err, Took: time.Since(start)}
	}

	raw := chain.RawTx{
		Caller:        t.Caller,
		Input:         t.SignedReq,
		ExecHeight:    t.BlockHeight,
		ExecStateRoot: t.StateRoot,
		Reads:         reads,
		Writes:        writes,
	}
	pkSig, attestation, err := e.signer.Sign(&raw)
	if err != nil {
		logger.Warn("signing failed", "id", t.ID, "err", err)
		return TxTaskOutput{ID: t.ID, Err: err, Took: time.Since(start)}
	}

	tx := &chain.SignedTx{Raw: raw, PkSig: pkSig, Attestation: attestation}
	return TxTaskOutput{ID: t.ID, Tx: tx, Took: time.Since(start)}
}
