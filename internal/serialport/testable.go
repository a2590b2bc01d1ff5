// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"sync"
	"time"
)

// TestablePort is an in-memory TimeoutPort for tests and dry runs.
//
// Every AddReadData call is delivered by a single Read, the way bytes that
// arrive together come out of a real UART buffer. With no read timeout set,
// Read blocks until data arrives or the port is closed.
type TestablePort struct {
	mu sync.Mutex

	reads       [][]byte
	writes      [][]byte
	readTimeout time.Duration
	readErr     error
	writeErr    error
	shortWrite  bool
	closed      bool
	readCalls   int

	// OnWrite, when set, observes every successful write after it has been
	// recorded.
	OnWrite func(p []byte)

	notify chan struct{}
	done   chan struct{}
}

// NewTestablePort creates an open, empty port.
func NewTestablePort() *TestablePort {
	return &TestablePort{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Read returns the next queued chunk, waiting up to the read timeout for one.
func (t *TestablePort) Read(p []byte) (int, error) {
	var deadline <-chan time.Time
	for {
		t.mu.Lock()
		t.readCalls++
		if t.closed {
			t.mu.Unlock()
			return 0, ErrPortClosed
		}
		if t.readErr != nil {
			err := t.readErr
			t.readErr = nil
			t.mu.Unlock()
			return 0, err
		}
		if len(t.reads) > 0 {
			chunk := t.reads[0]
			n := copy(p, chunk)
			if n < len(chunk) {
				t.reads[0] = chunk[n:]
			} else {
				t.reads = t.reads[1:]
			}
			t.mu.Unlock()
			return n, nil
		}
		timeout := t.readTimeout
		t.mu.Unlock()

		if timeout > 0 && deadline == nil {
			deadline = time.After(timeout)
		}

		select {
		case <-t.notify:
		case <-t.done:
		case <-deadline:
			return 0, nil
		}
	}
}

// Write records p, or fails with the injected error.
func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrPortClosed
	}
	if t.writeErr != nil {
		err := t.writeErr
		t.writeErr = nil
		t.mu.Unlock()
		return 0, err
	}
	if t.shortWrite && len(p) > 0 {
		t.shortWrite = false
		t.mu.Unlock()
		return len(p) - 1, nil
	}
	frame := make([]byte, len(p))
	copy(frame, p)
	t.writes = append(t.writes, frame)
	hook := t.OnWrite
	t.mu.Unlock()

	if hook != nil {
		hook(frame)
	}
	return len(p), nil
}

// Close marks the port closed and wakes any blocked reader.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.done)
	}
	return nil
}

// SetReadTimeout implements TimeoutPort.
func (t *TestablePort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readTimeout = timeout
	return nil
}

// ReadTimeout reports the timeout last set.
func (t *TestablePort) ReadTimeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readTimeout
}

// AddReadData queues bytes to be returned by one Read.
func (t *TestablePort) AddReadData(data []byte) {
	chunk := make([]byte, len(data))
	copy(chunk, data)

	t.mu.Lock()
	t.reads = append(t.reads, chunk)
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// FailNextRead makes the next Read return err.
func (t *TestablePort) FailNextRead(err error) {
	t.mu.Lock()
	t.readErr = err
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// FailNextWrite makes the next Write return err.
func (t *TestablePort) FailNextWrite(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// ShortNextWrite makes the next Write report one byte fewer than asked.
func (t *TestablePort) ShortNextWrite() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shortWrite = true
}

// Writes returns a copy of every recorded write, in order.
func (t *TestablePort) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// Pending reports how many queued chunks have not been read yet.
func (t *TestablePort) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reads)
}

// ReadCalls reports how many times Read has looked for data.
func (t *TestablePort) ReadCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readCalls
}

// Closed reports whether Close has been called.
func (t *TestablePort) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// WaitForWrites polls until at least n writes have been recorded or timeout
// passes.
func (t *TestablePort) WaitForWrites(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if len(t.Writes()) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// WaitForDrain polls until every queued chunk has been read or timeout
// passes.
func (t *TestablePort) WaitForDrain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if t.Pending() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// NewTestableOpener returns an Opener that always hands out port, or err
// when err is non-nil.
func NewTestableOpener(port Port, err error) Opener {
	return func(path string, opts Options) (Port, error) {
		if err != nil {
			return nil, err
		}
		return port, nil
	}
}
