// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchstate

import (
	"github.com/mfgledger/mfgledgerd/addressing"
	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
)

// KeyValue - the narrow view of the ledger key-value substrate
//
// satisfied by storage.PoolHandle; Get returns nil for an absent key
type KeyValue interface {
	Get(key []byte) []byte
	Put(key []byte, value []byte)
	Delete(key []byte)
}

// Get - fetch one batch entity by business key
//
// an absent address or an address whose list lacks the id both give
// nil with no error; a blob that fails to decode is a process error
// and aborts the enclosing mutation
func Get(kv KeyValue, batchId string) (*batchrecord.BatchEntity, error) {
	address, err := addressing.BatchAddress(batchId)
	if nil != err {
		return nil, err
	}

	packed := kv.Get(address.Bytes())
	if 0 == len(packed) {
		return nil, nil
	}

	list, err := batchrecord.Packed(packed).UnpackRecordList()
	if nil != err {
		return nil, err
	}

	entity, ok := list.Find(batchId)
	if !ok {
		return nil, nil
	}
	// copy so the caller cannot alias the decoded list
	result := *entity
	return &result, nil
}

// Set - insert or replace one batch entity
//
// the merged list is re-sorted by batch id before encoding so that
// every node applying the same operation writes identical bytes; the
// batch id must match the entity, otherwise the entity would be filed
// under an address where Get can never find it
func Set(kv KeyValue, batchId string, entity *batchrecord.BatchEntity) error {
	if batchId != entity.BatchId {
		return fault.ErrBatchIdMismatch
	}
	address, err := addressing.BatchAddress(batchId)
	if nil != err {
		return err
	}
	if err := entity.Validate(); nil != err {
		return err
	}

	list := batchrecord.RecordList{}
	if packed := kv.Get(address.Bytes()); 0 != len(packed) {
		list, err = batchrecord.Packed(packed).UnpackRecordList()
		if nil != err {
			return err
		}
	}

	list = list.Merge(*entity)

	packed, err := list.Pack()
	if nil != err {
		return err
	}
	kv.Put(address.Bytes(), packed)
	return nil
}

// Remove - delete one batch entity
//
// when the last entity at an address is removed the address entry is
// deleted outright; an empty list is never written back
func Remove(kv KeyValue, batchId string) error {
	address, err := addressing.BatchAddress(batchId)
	if nil != err {
		return err
	}

	list := batchrecord.RecordList{}
	if packed := kv.Get(address.Bytes()); 0 != len(packed) {
		list, err = batchrecord.Packed(packed).UnpackRecordList()
		if nil != err {
			return err
		}
	}

	filtered := list.Without(batchId)
	if 0 == len(filtered) {
		kv.Delete(address.Bytes())
		return nil
	}

	packed, err := filtered.Pack()
	if nil != err {
		return err
	}
	kv.Put(address.Bytes(), packed)
	return nil
}
