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

// Package ordered implements the ordered delivery stream (§4.K): given an
// inbound unordered stream of (key, item) pairs — block proposals
// arriving out of order via gossip, keyed by height — it buffers
// out-of-order items and yields them back in strict key order.
package ordered

import "github.com/slimchain-go/slimchain/internal/log"

var logger = log.NewModuleLogger("ordered")

// Stream buffers items keyed by K (any ordered, steppable key — a
// BlockHeight in this node) and releases them in order starting from a
// configured current key, advancing current via nextKey after each
// release. Not safe for concurrent use; callers serialize Push
// themselves, matching §5's single-writer-per-snapshot model.
type Stream[K comparable, T any] struct {
	current  K
	nextKey  func(K) K
	less     func(a, b K) bool
	buffer   map[K]T
	finished bool
}

// New builds a stream expecting start as the first key to deliver. less
// reports strict ordering (a < b); nextKey computes the key that
// immediately follows a given key.
func New[K comparable, T any](start K, less func(a, b K) bool, nextKey func(K) K) *Stream[K, T] {
	return &Stream[K, T]{
		current: start,
		less:    less,
		nextKey: nextKey,
		buffer:  make(map[K]T),
	}
}

// Push offers one (key, item) pair. It returns the run of items that are
// now deliverable in order — empty if key is ahead of current and must
// wait, a single item if key is exactly current, or several if this push
// was the missing piece unblocking a run of already-buffered items. Late
// items (key before current) are logged and dropped, matching §4.K.
func (s *Stream[K, T]) Push(key K, item T) []T {
	if s.less(key, s.current) {
		logger.Warn("dropping late item", "key", key, "current", s.current)
		return nil
	}
	if key != s.current {
		s.buffer[key] = item
		return nil
	}

	var out []T
	out = append(out, item)
	s.current = s.nextKey(s.current)
	for {
		next, ok := s.buffer[s.current]
		if !ok {
			break
		}
		delete(s.buffer, s.current)
		out = append(out, next)
		s.current = s.nextKey(s.current)
	}
	return out
}

// Finish marks the upstream as terminated. Drained reports whether every
// buffered item has already been delivered (§4.K: "upstream termination
// yields termination once the buffer is drained of in-order entries").
func (s *Stream[K, T]) Finish() { s.finished = true }

func (s *Stream[K, T]) Drained() bool { return s.finished && len(s.buffer) == 0 }

// Pending is the number of items waiting for their predecessor to arrive.
func (s *Stream[K, T]) Pending() int { return len(s.buffer) }
