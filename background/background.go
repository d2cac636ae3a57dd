// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - run and later stop a set of goroutines
package background

// Process - a single background loop
//
// Run must return promptly after the shutdown channel is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - the processes to start as a group
type Processes []Process

// T - handle to a started group
type T struct {
	finished []chan struct{}
	shutdown chan struct{}
}

// Start - start up the background processes
//
// all share one shutdown channel but each gets its own finished
// channel so Stop can wait for every loop to unwind
func Start(processes Processes, args interface{}) *T {

	register := &T{
		finished: make([]chan struct{}, len(processes)),
		shutdown: make(chan struct{}),
	}

	for i, p := range processes {
		finished := make(chan struct{})
		register.finished[i] = finished
		go func(p Process) {
			defer close(finished)
			p.Run(args, register.shutdown)
		}(p)
	}
	return register
}

// Stop - shut down the background processes and wait for them
func (t *T) Stop() {

	if nil == t {
		return
	}

	close(t.shutdown)

	for _, finished := range t.finished {
		<-finished
	}
}
