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

// Command slimnode is the node binary: load config, open the durable
// store, wire the executor/propose/verify pipeline, and run until
// interrupted (§6). Peer discovery, gossip, and HTTP admission are out of
// scope (§1), so this binary drives itself: it generates its own stream
// of transaction requests against pkg/backend.AccountBackend, exercising
// the full engine -> propose -> verify/commit loop end to end against a
// single local Snapshot, the same role the teacher's cmd/kcn plays for
// its own consensus node minus the network stack.
package main

import (
	"context"
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/slimchain-go/slimchain/internal/config"
	"github.com/slimchain-go/slimchain/internal/log"
	"github.com/slimchain-go/slimchain/internal/metrics"
	"github.com/slimchain-go/slimchain/pkg/accessmap"
	"github.com/slimchain-go/slimchain/pkg/backend"
	"github.com/slimchain-go/slimchain/pkg/chain"
	"github.com/slimchain-go/slimchain/pkg/common"
	"github.com/slimchain-go/slimchain/pkg/consensus"
	"github.com/slimchain-go/slimchain/pkg/engine"
	"github.com/slimchain-go/slimchain/pkg/propose"
	"github.com/slimchain-go/slimchain/pkg/store"
	"github.com/slimchain-go/slimchain/pkg/tee"
	"github.com/slimchain-go/slimchain/pkg/verify"
)

var logger = log.NewModuleLogger("slimnode")

func main() {
	app := cli.NewApp()
	app.Name = "slimnode"
	app.Usage = "run a slimchain node"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a TOML config file"},
		cli.StringFlag{Name: "db-path", Usage: "overrides store.dir from the config file"},
		cli.StringFlag{Name: "enclave", Usage: "path to an enclave descriptor (unused under SGX_MODE=SW)"},
		cli.StringFlag{Name: "metrics-addr", Value: "", Usage: "if set, serve Prometheus metrics on this address"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logger.Crit("slimnode exited", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dbPath := c.String("db-path"); dbPath != "" {
		cfg.Store.Dir = dbPath
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		metrics.ServeHTTP(addr)
	}

	st, err := store.Open(store.Config{
		Dir:         cfg.Store.Dir,
		Backend:     store.Backend(cfg.Store.Backend),
		CacheSizeMB: cfg.Store.CacheSizeMB,
		NumHandles:  cfg.Store.NumHandles,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	conflictCheck, ok := accessmap.New(cfg.Chain.ConflictCheck)
	if !ok {
		return fmt.Errorf("slimnode: unknown conflict check %q", cfg.Chain.ConflictCheck)
	}

	hooks, err := consensus.New(consensus.Name(cfg.Chain.Consensus), cfg.PoW.InitDiff)
	if err != nil {
		return err
	}

	genesis := chain.GenesisBlock(hooks.Name == consensus.Raft)
	snap := chain.NewSnapshot(st, conflictCheck, cfg.Chain.StateLen, genesis)

	latest := &chain.LatestHeaderCell{}
	latest.Set(genesis.Header)

	attestFn := tee.VerifyFn(&tee.Config{APIKey: cfg.Tee.APIKey, SPID: cfg.Tee.SPID, Linkable: cfg.Tee.Linkable})

	pub, priv, err := ed25519.GenerateKey(cryptorand.Reader)
	if err != nil {
		return err
	}
	signer := &ed25519Signer{priv: priv}
	caller := common.BytesToAddress(pub)

	minerDuration, err := cfg.Miner.Duration()
	if err != nil {
		return err
	}
	minerCfg := propose.MinerConfig{MinTxs: cfg.Miner.MinTxs, MaxTxs: cfg.Miner.MaxTxs, MaxBlockInterval: minerDuration}

	eng := engine.New(engine.DefaultThreads(), backend.AccountBackend{}, signer)
	defer eng.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	go submitSyntheticRequests(ctx, eng, snap, caller)

	for {
		select {
		case <-ctx.Done():
			logger.Info("slimnode stopped")
			return nil
		default:
		}

		block, txs, err := propose.Propose(ctx, snap, hooks, attestFn, eng.Results(), minerCfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("propose failed", "err", err)
			continue
		}
		if block == nil {
			continue
		}
		metrics.ProposedBlocks.Inc(1)
		metrics.ProposedTxs.Inc(int64(len(txs)))

		if err := verify.CommitBlock(snap, hooks, attestFn, block, txs, st, st, latest); err != nil {
			metrics.RejectedBlocks.Inc(1)
			logger.Error("commit failed", "height", block.Height(), "err", err)
			continue
		}
		metrics.CommittedBlocks.Inc(1)
		logger.Info("committed block", "height", block.Height(), "txs", len(txs))
	}
}

// submitSyntheticRequests feeds the engine a steady trickle of create/call
// requests, all from the node's own caller address (calls target that same
// address), standing in for the inbound tx-request stream an HTTP
// admission layer would otherwise supply (§1 Non-goals).
func submitSyntheticRequests(ctx context.Context, eng *engine.Engine, snap *chain.Snapshot, caller common.Address) {
	var id uint64
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id++
			latestBlock := snap.LatestBlock()
			req := syntheticRequest(id, caller)
			eng.PushTask(engine.TxEngineTask{
				ID:          id,
				BlockHeight: latestBlock.Height(),
				StateView:   snap.Store,
				StateRoot:   latestBlock.StateRoot(),
				Caller:      caller,
				SignedReq:   req,
			})
		}
	}
}

func syntheticRequest(id uint64, caller common.Address) chain.TxRequest {
	if id%4 == 0 {
		code := make(common.Code, 32)
		rand.Read(code)
		return chain.NewCreateRequest(common.Nonce(id), code)
	}
	data := make([]byte, 16)
	rand.Read(data)
	return chain.NewCallRequest(caller, common.Nonce(id), data)
}

// ed25519Signer is the engine.Signer this binary runs with: a fixed
// in-process keypair, no TEE attestation (tee.VerifyFn's simulated path
// accepts any non-empty attestation, so a single marker byte suffices
// under SGX_MODE=SW; a real enclave build supplies a genuine quote here
// instead).
type ed25519Signer struct {
	priv ed25519.PrivateKey
}

func (s *ed25519Signer) Sign(raw *chain.RawTx) (chain.PubSigPair, chain.Attestation, error) {
	return raw.Sign(s.priv), chain.Attestation{0x01}, nil
}
