// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport moves reports from the glove to the host and queues
// whatever the host sends back. Implementations never block the report
// loop on a slow or missing peer: failed writes are logged and dropped.
package transport

import (
	"io"
	"sync"
)

// Transport is a bidirectional link to the host driver.
type Transport interface {
	io.Closer

	// HasData reports whether an inbound message is waiting.
	HasData() bool
	// ReadData pops one inbound message into buf, truncating it to
	// len(buf). It returns false when nothing was waiting.
	ReadData(buf []byte) (int, bool)
	// Output sends one report. The transport does not retain report.
	Output(report []byte)
}

// DefaultQueueSize bounds inbound messages held per transport.
const DefaultQueueSize = 32

// Queue is a bounded FIFO of inbound messages shared between a transport's
// receive goroutine and the report loop. When full, the oldest message is
// dropped.
type Queue struct {
	mu   sync.Mutex
	msgs [][]byte
	max  int
}

// NewQueue returns a queue holding at most max messages.
func NewQueue(max int) *Queue {
	if max <= 0 {
		max = DefaultQueueSize
	}
	return &Queue{max: max}
}

// Push appends a copy of msg.
func (q *Queue) Push(msg []byte) {
	m := make([]byte, len(msg))
	copy(m, msg)

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) >= q.max {
		q.msgs[0] = nil
		q.msgs = q.msgs[1:]
	}
	q.msgs = append(q.msgs, m)
}

func (q *Queue) HasData() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs) > 0
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

func (q *Queue) ReadData(buf []byte) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return 0, false
	}
	m := q.msgs[0]
	q.msgs[0] = nil
	q.msgs = q.msgs[1:]
	return copy(buf, m), true
}

// Discard has no peer: reports vanish and nothing ever arrives.
type Discard struct{}

func (Discard) HasData() bool               { return false }
func (Discard) ReadData([]byte) (int, bool) { return 0, false }
func (Discard) Output([]byte)               {}
func (Discard) Close() error                { return nil }
