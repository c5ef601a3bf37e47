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

// Package config loads the node's TOML configuration file (§6): the
// chain/miner/pow/tee/network sections, decoded with the same strict
// naoina/toml settings (field names must match exactly, unknown fields
// are rejected) the teacher uses for its own node config
// (cmd/utils/nodecmd/dumpconfigcmd.go's tomlSettings).
package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"time"
	"unicode"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

// tomlSettings mirrors the teacher's: TOML keys must match Go field names
// exactly, and a field present in the file but absent from the struct is
// a hard error rather than silently ignored.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see the %s struct for available fields", rt.Name())
		}
		return errors.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// ChainConfig selects the consensus variant, conflict-check algorithm,
// and sliding-window length (§4.H, §6).
type ChainConfig struct {
	Consensus     string `toml:"consensus"`      // "pow" | "raft"
	ConflictCheck string `toml:"conflict_check"` // "occ" | "ssi"
	StateLen      int    `toml:"state_len"`      // >= 1
}

// MinerConfig mirrors pkg/propose.MinerConfig's fields, expressed in
// TOML-friendly types (a duration string rather than time.Duration).
type MinerConfig struct {
	MaxTxs           int    `toml:"max_txs"`
	MinTxs           int    `toml:"min_txs"`
	MaxBlockInterval string `toml:"max_block_interval"`
}

// Duration parses MaxBlockInterval, defaulting to one second if empty.
func (m MinerConfig) Duration() (time.Duration, error) {
	if m.MaxBlockInterval == "" {
		return time.Second, nil
	}
	return time.ParseDuration(m.MaxBlockInterval)
}

// PoWConfig carries the genesis difficulty target a PoW node searches
// nonces against (§3, chain.PoWHeader.Difficulty).
type PoWConfig struct {
	InitDiff uint64 `toml:"init_diff"`
}

// TeeConfig mirrors pkg/tee.Config field-for-field, as the §6 schema
// names it (tee.api_key, tee.spid, tee.linkable).
type TeeConfig struct {
	APIKey   string `toml:"api_key"`
	SPID     string `toml:"spid"`
	Linkable bool   `toml:"linkable"`
}

// NetworkConfig names this node's signing keypair file, its inbound HTTP
// admission listen address, and its static peer list (§6). Peer discovery
// and the wire protocol itself are out of this node's scope (§1); this
// only names where to find the keypair and who to dial.
type NetworkConfig struct {
	Keypair    string   `toml:"keypair"`
	HTTPListen string   `toml:"http_listen"`
	Peers      []string `toml:"peers"`
}

// StoreConfig names the durable store's on-disk layout and engine choice
// (§6, pkg/store.Config).
type StoreConfig struct {
	Dir         string `toml:"dir"`
	Backend     string `toml:"backend"` // "leveldb" | "badger"
	CacheSizeMB int    `toml:"cache_size_mb"`
	NumHandles  int    `toml:"num_handles"`
}

// Config is the top-level §6 TOML document.
type Config struct {
	Chain   ChainConfig   `toml:"chain"`
	Miner   MinerConfig   `toml:"miner"`
	PoW     PoWConfig     `toml:"pow"`
	Tee     TeeConfig     `toml:"tee"`
	Network NetworkConfig `toml:"network"`
	Store   StoreConfig   `toml:"store"`
}

// Default returns the configuration a fresh single-node PoW deployment
// starts from, overridden by whatever a config file or flag supplies on
// top of it.
func Default() Config {
	return Config{
		Chain: ChainConfig{Consensus: "pow", ConflictCheck: "occ", StateLen: 64},
		Miner: MinerConfig{MaxTxs: 256, MinTxs: 1, MaxBlockInterval: "1s"},
		PoW:   PoWConfig{InitDiff: 16},
		Store: StoreConfig{Dir: "./data", Backend: "leveldb", CacheSizeMB: 256, NumHandles: 512},
	}
}

// Load reads and strictly decodes the TOML file at path on top of
// Default(), failing on any unrecognized key (loadConfig's behavior in
// the teacher's dumpconfigcmd.go).
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.WithMessage(err, "config: opening file")
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			return Config{}, errors.Errorf("config: %s: %v", path, err)
		}
		return Config{}, errors.WithMessage(err, "config: decoding")
	}
	return cfg, Validate(cfg)
}

// Validate checks the cross-field invariants §6 implies but a bare TOML
// decode can't: state_len must be positive, and the named consensus/
// conflict-check variants must be ones pkg/consensus/pkg/accessmap
// actually resolve.
func Validate(cfg Config) error {
	if cfg.Chain.StateLen < 1 {
		return errors.Errorf("config: chain.state_len must be >= 1, got %d", cfg.Chain.StateLen)
	}
	switch cfg.Chain.Consensus {
	case "pow", "raft":
	default:
		return errors.Errorf("config: chain.consensus must be \"pow\" or \"raft\", got %q", cfg.Chain.Consensus)
	}
	switch cfg.Chain.ConflictCheck {
	case "occ", "ssi":
	default:
		return errors.Errorf("config: chain.conflict_check must be \"occ\" or \"ssi\", got %q", cfg.Chain.ConflictCheck)
	}
	if cfg.Miner.MinTxs < 0 || cfg.Miner.MaxTxs < cfg.Miner.MinTxs {
		return errors.Errorf("config: miner.max_txs (%d) must be >= miner.min_txs (%d)", cfg.Miner.MaxTxs, cfg.Miner.MinTxs)
	}
	if _, err := cfg.Miner.Duration(); err != nil {
		return errors.WithMessage(err, "config: miner.max_block_interval")
	}
	return nil
}
