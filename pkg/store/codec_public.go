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

// Exported wrappers around this package's block/tx codec, so pkg/wire can
// frame the same canonical encoding this package persists (§6: peer framing
// "carrying the same canonical binary codec as the store"). These return
// the encoding before the snappy compression applied on disk.
package store

import "github.com/slimchain-go/slimchain/pkg/chain"

func EncodeBlock(b *chain.Block) ([]byte, error) { return encodeBlock(b) }
func DecodeBlock(b []byte) (*chain.Block, error) { return decodeBlock(b) }

func EncodeSignedTx(t *chain.SignedTx) []byte          { return encodeSignedTx(t) }
func DecodeSignedTx(b []byte) (*chain.SignedTx, error) { return decodeSignedTx(b) }
