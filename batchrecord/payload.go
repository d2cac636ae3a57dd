// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/util"
)

// Action - payload action enumeration
type Action uint64

// possible actions
const (
	UnsetAction   Action = iota // this must be the first value
	CreateBatch   Action = iota
	UpdateBatch   Action = iota
	DeleteBatch   Action = iota
	maximumAction Action = iota // this must be the last value
)

// String - the action name
func (action Action) String() string {
	switch action {
	case CreateBatch:
		return "create"
	case UpdateBatch:
		return "update"
	case DeleteBatch:
		return "delete"
	default:
		return "unset"
	}
}

// CreateAction - request to create a new batch
type CreateAction struct {
	BatchId    string          `json:"batchId"`
	Namespace  Namespace       `json:"batchNamespace"`
	Owner      string          `json:"owner"`
	Properties []PropertyValue `json:"properties"`
}

// UpdateAction - request to replace the property set of a batch
type UpdateAction struct {
	BatchId    string          `json:"batchId"`
	Namespace  Namespace       `json:"batchNamespace"`
	Properties []PropertyValue `json:"properties"`
}

// DeleteAction - request to remove a batch from the ledger
type DeleteAction struct {
	BatchId   string    `json:"batchId"`
	Namespace Namespace `json:"batchNamespace"`
}

// Payload - one requested mutation
//
// exactly one of the action fields is set, selected by Action
type Payload struct {
	Action    Action        `json:"action"`
	Timestamp uint64        `json:"timestamp"`
	Create    *CreateAction `json:"create,omitempty"`
	Update    *UpdateAction `json:"update,omitempty"`
	Delete    *DeleteAction `json:"delete,omitempty"`
}

// Validate - reject malformed payloads before any state is read
//
// these are always caller input errors
func (payload *Payload) Validate() error {
	if 0 == payload.Timestamp {
		return fault.ErrPayloadTimestampMissing
	}

	switch payload.Action {
	case CreateBatch:
		if nil == payload.Create {
			return fault.InvalidError("create action body is missing")
		}
		if "" == payload.Create.BatchId {
			return fault.ErrMissingBatchId
		}
		if "" == payload.Create.Owner {
			return fault.ErrMissingOwner
		}
		if !payload.Create.Namespace.IsValid() {
			return fault.ErrInvalidBatchNamespace
		}
	case UpdateBatch:
		if nil == payload.Update {
			return fault.InvalidError("update action body is missing")
		}
		if "" == payload.Update.BatchId {
			return fault.ErrMissingBatchId
		}
		if !payload.Update.Namespace.IsValid() {
			return fault.ErrInvalidBatchNamespace
		}
	case DeleteBatch:
		if nil == payload.Delete {
			return fault.InvalidError("delete action body is missing")
		}
		if "" == payload.Delete.BatchId {
			return fault.ErrMissingBatchId
		}
		if !payload.Delete.Namespace.IsValid() {
			return fault.ErrInvalidBatchNamespace
		}
	default:
		return fault.InvalidError("unknown payload action")
	}
	return nil
}

// Pack - serialize a payload
//
// Pack Varint64(tag) ++ action ++ timestamp ++ action body
func (payload *Payload) Pack() (Packed, error) {
	if err := payload.Validate(); nil != err {
		return nil, err
	}

	message := util.ToVarint64(uint64(PayloadTag))
	message = appendUint64(message, uint64(payload.Action))
	message = appendUint64(message, payload.Timestamp)

	switch payload.Action {
	case CreateBatch:
		message = appendString(message, payload.Create.BatchId)
		message = appendUint64(message, payload.Create.Namespace.Uint64())
		message = appendString(message, payload.Create.Owner)
		var err error
		message, err = appendProperties(message, payload.Create.Properties)
		if nil != err {
			return nil, err
		}
	case UpdateBatch:
		message = appendString(message, payload.Update.BatchId)
		message = appendUint64(message, payload.Update.Namespace.Uint64())
		var err error
		message, err = appendProperties(message, payload.Update.Properties)
		if nil != err {
			return nil, err
		}
	case DeleteBatch:
		message = appendString(message, payload.Delete.BatchId)
		message = appendUint64(message, payload.Delete.Namespace.Uint64())
	}
	return message, nil
}

func appendProperties(message []byte, properties []PropertyValue) ([]byte, error) {
	if len(properties) > maxPropertyCount {
		return nil, fault.InvalidError("too many properties")
	}
	message = appendUint64(message, uint64(len(properties)))
	for i := range properties {
		var err error
		message, err = properties[i].appendTo(message, 1)
		if nil != err {
			return nil, err
		}
	}
	return message, nil
}

// fields of a payload after its tag
func unpackPayloadBody(buffer []byte) (*Payload, int, error) {
	n := 0

	actionValue, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count
	action := Action(actionValue)
	if action <= UnsetAction || action >= maximumAction {
		return nil, 0, fault.ErrNotBatchRecordPack
	}

	timestamp, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count

	payload := &Payload{
		Action:    action,
		Timestamp: timestamp,
	}

	batchId, count, err := readString(buffer[n:], maxBatchIdLength)
	if nil != err {
		return nil, 0, err
	}
	n += count

	namespaceValue, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count
	namespace, err := NamespaceFromUint64(namespaceValue)
	if nil != err {
		return nil, 0, err
	}

	switch action {
	case CreateBatch:
		owner, count, err := readString(buffer[n:], maxOwnerLength)
		if nil != err {
			return nil, 0, err
		}
		n += count
		properties, count, err := readProperties(buffer[n:])
		if nil != err {
			return nil, 0, err
		}
		n += count
		payload.Create = &CreateAction{
			BatchId:    batchId,
			Namespace:  namespace,
			Owner:      owner,
			Properties: properties,
		}
	case UpdateBatch:
		properties, count, err := readProperties(buffer[n:])
		if nil != err {
			return nil, 0, err
		}
		n += count
		payload.Update = &UpdateAction{
			BatchId:    batchId,
			Namespace:  namespace,
			Properties: properties,
		}
	case DeleteBatch:
		payload.Delete = &DeleteAction{
			BatchId:   batchId,
			Namespace: namespace,
		}
	}

	if err := payload.Validate(); nil != err {
		return nil, 0, err
	}
	return payload, n, nil
}

func readProperties(buffer []byte) ([]PropertyValue, int, error) {
	n := 0
	propertyCount, count := util.FromVarint64(buffer[n:])
	if 0 == count || propertyCount > maxPropertyCount {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count

	properties := make([]PropertyValue, 0, propertyCount)
	for i := uint64(0); i < propertyCount; i += 1 {
		property, count, err := unpackPropertyValue(buffer[n:], 1)
		if nil != err {
			return nil, 0, err
		}
		n += count
		properties = append(properties, *property)
	}
	return properties, n, nil
}
