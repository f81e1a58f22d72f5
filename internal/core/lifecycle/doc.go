// SPDX-License-Identifier: MPL-2.0

// Package lifecycle provides the start/stop state machine shared by the
// long-running components of pyenvs, such as the inspection worker pool.
//
// A Base tracks its state atomically, owns the context handed to its
// goroutines and waits for them on shutdown.
package lifecycle
