// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package consumer - feed committed mutations into the stores
//
// each mutation is applied in order: first to the ledger state
// through the handler, then journalled, then mirrored into the
// relational projection; a mutation the handler rejects is logged
// and skipped so one bad payload cannot stall the feed
package consumer

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/mfgledger/mfgledgerd/addressing"
	"github.com/mfgledger/mfgledgerd/background"
	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/batchstate"
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/handler"
	"github.com/mfgledger/mfgledgerd/projection"
	"github.com/mfgledger/mfgledgerd/storage"
)

// Mutation - one committed payload and its ledger position
type Mutation struct {
	Signer  string
	Commit  int64
	Payload batchrecord.Packed
}

// how long one projection write may take
const projectionTimeout = 30 * time.Second

// pause before re-attempting a transient projection failure
const transientRetryDelay = 2 * time.Second

// feeder background
type feedData struct {
	log   *logger.L
	queue chan Mutation
}

// globals
type globalDataType struct {
	sync.RWMutex
	log         *logger.L
	feed        feedData
	state       batchstate.KeyValue
	handler     *handler.Handler
	store       *projection.Store
	journal     *storage.PoolHandle
	background  *background.T
	initialised bool
}

// global storage
var globalData globalDataType

// Initialise - start the mutation feed
//
// state is the ledger state view the handler writes through; journal
// may be nil when no local journal is kept
func Initialise(state batchstate.KeyValue, h *handler.Handler, store *projection.Store, journal *storage.PoolHandle) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	globalData.log = logger.New("consumer")
	globalData.log.Info("starting…")

	globalData.state = state
	globalData.handler = h
	globalData.store = store
	globalData.journal = journal

	globalData.feed.log = logger.New("consumer-feed")
	globalData.feed.queue = make(chan Mutation, 256)

	if nil != journal {
		if last, found := journal.LastElement(); found {
			globalData.log.Infof("resuming after commit: %d", binary.BigEndian.Uint64(last.Key))
		}
	}

	processes := background.Processes{
		&globalData.feed,
	}

	globalData.initialised = true
	globalData.background = background.Start(processes, globalData.log)

	return nil
}

// Finalise - stop the feed
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.background.Stop()
	globalData.initialised = false
	globalData.log.Info("finished")

	return nil
}

// Submit - queue a committed mutation for application
func Submit(mutation Mutation) {
	globalData.RLock()
	queue := globalData.feed.queue
	globalData.RUnlock()
	queue <- mutation
}

// feed loop
//
// a rejected mutation is logged and skipped, but a transient
// projection failure is retried in place: the ledger write already
// happened, so dropping the mirror would leave the projection
// permanently behind while later commits advance past the gap;
// later commits queue behind the retry, preserving commit order
func (state *feedData) Run(args interface{}, shutdown <-chan struct{}) {

	log := state.log

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case mutation := <-state.queue:
			err := applyLedger(mutation)
			if nil != err {
				log.Warnf("commit: %d  rejected: %s", mutation.Commit, err)
				continue loop
			}

			err = mirror(mutation)
			for nil != err && fault.IsErrTransient(err) {
				log.Warnf("commit: %d  projection retry: %s", mutation.Commit, err)
				select {
				case <-shutdown:
					break loop
				case <-time.After(transientRetryDelay):
				}
				err = mirror(mutation)
			}
			if nil != err {
				log.Errorf("commit: %d  projection failed: %s", mutation.Commit, err)
			}
		}
	}
}

// Apply - apply one committed mutation synchronously
//
// the handler validates and writes the ledger state; only a mutation
// it accepts is journalled and mirrored to the projection
func Apply(mutation Mutation) error {
	err := applyLedger(mutation)
	if nil != err {
		return err
	}
	return mirror(mutation)
}

// validate and write the ledger state, then journal the payload
//
// not repeatable: re-running a create trips the duplicate check, so
// the feed loop only ever retries the mirror step
func applyLedger(mutation Mutation) error {
	globalData.RLock()
	defer globalData.RUnlock()

	err := globalData.handler.Apply(mutation.Signer, mutation.Commit, mutation.Payload)
	if nil != err {
		return err
	}

	if nil != globalData.journal {
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, uint64(mutation.Commit))
		globalData.journal.Put(key, mutation.Payload)
	}

	return nil
}

// mirror one accepted mutation into the projection
//
// repeatable: a failed attempt rolls back completely, so the feed
// loop retries it on a transient error
func mirror(mutation Mutation) error {
	globalData.RLock()
	defer globalData.RUnlock()

	record, _, err := mutation.Payload.Unpack()
	if nil != err {
		return err
	}
	payload := record.(*batchrecord.Payload)

	ctx, cancel := context.WithTimeout(context.Background(), projectionTimeout)
	defer cancel()

	switch payload.Action {

	case batchrecord.CreateBatch, batchrecord.UpdateBatch:
		batchId := ""
		if batchrecord.CreateBatch == payload.Action {
			batchId = payload.Create.BatchId
		} else {
			batchId = payload.Update.BatchId
		}

		// read back the merged entity so the projection sees exactly
		// what the ledger holds
		entity, err := batchstate.Get(globalData.state, batchId)
		if nil != err {
			return err
		}
		if nil == entity {
			return fault.ErrBatchNotFound
		}
		return globalData.store.Add(ctx, entity)

	case batchrecord.DeleteBatch:
		address, err := addressing.BatchAddress(payload.Delete.BatchId)
		if nil != err {
			return err
		}
		return globalData.store.Delete(ctx, address.String(), mutation.Commit)

	default:
		return fault.InvalidError("unknown payload action")
	}
}
