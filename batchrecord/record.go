// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"math"
	"sort"

	"github.com/mfgledger/mfgledgerd/fault"
)

// MaxCommitNumber - sentinel end commit of the version that has no
// successor yet; a record is visible for commits in
// [StartCommit, EndCommit)
const MaxCommitNumber int64 = math.MaxInt64

// TagType - type code at the start of every packed record
type TagType uint64

// enumerate the possible record types
const (
	// null marks beginning of list - not used as a record type
	NullTag = TagType(iota)

	// valid record types
	BatchTag      = TagType(iota) // one batch entity
	RecordListTag = TagType(iota) // all entities sharing one address
	PayloadTag    = TagType(iota) // a requested mutation

	// this item must be last
	InvalidTag = TagType(iota)
)

// Packed - packed records are just a byte slice
type Packed []byte

// Record - generic packable record interface
type Record interface {
	Pack() (Packed, error)
}

// LatLong - a coordinate pair in millionths of a degree
type LatLong struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// PropertyValue - a single typed attribute of a batch
//
// the DataType selects which value slot is meaningful; a Struct
// property carries its children in StructValues and its own scalar
// slots are ignored
type PropertyValue struct {
	Name         string          `json:"name"`
	DataType     DataType        `json:"dataType"`
	BytesValue   []byte          `json:"bytesValue,omitempty"`
	BooleanValue bool            `json:"booleanValue,omitempty"`
	NumberValue  int64           `json:"numberValue,omitempty"`
	StringValue  string          `json:"stringValue,omitempty"`
	EnumValue    int32           `json:"enumValue,omitempty"`
	LatLongValue LatLong         `json:"latLongValue,omitempty"`
	StructValues []PropertyValue `json:"structValues,omitempty"`
	StartCommit  int64           `json:"startCommitNum"`
	EndCommit    int64           `json:"endCommitNum"`
	ServiceId    string          `json:"serviceId,omitempty"`
}

// BatchEntity - one manufactured batch record
type BatchEntity struct {
	BatchId     string          `json:"batchId"`
	Namespace   Namespace       `json:"batchNamespace"`
	Owner       string          `json:"owner"`
	Properties  []PropertyValue `json:"properties"`
	StartCommit int64           `json:"startCommitNum"`
	EndCommit   int64           `json:"endCommitNum"`
	ServiceId   string          `json:"serviceId,omitempty"`
}

// RecordList - the decoded content of one ledger address
//
// kept sorted by batch id with no duplicate ids; the ordering is a
// determinism requirement, not an optimisation
type RecordList []BatchEntity

// NewBatchEntity - construct a validated batch entity
//
// the distinct error values let a caller report which field was
// missing rather than a generic build failure
func NewBatchEntity(batchId string, namespace Namespace, owner string, properties []PropertyValue, startCommit int64, endCommit int64, serviceId string) (*BatchEntity, error) {
	entity := &BatchEntity{
		BatchId:     batchId,
		Namespace:   namespace,
		Owner:       owner,
		Properties:  properties,
		StartCommit: startCommit,
		EndCommit:   endCommit,
		ServiceId:   serviceId,
	}
	if err := entity.Validate(); nil != err {
		return nil, err
	}
	return entity, nil
}

// Validate - required field presence and the interval invariant
func (entity *BatchEntity) Validate() error {
	if "" == entity.BatchId {
		return fault.ErrMissingBatchId
	}
	if !entity.Namespace.IsValid() {
		return fault.ErrInvalidBatchNamespace
	}
	if "" == entity.Owner {
		return fault.ErrMissingOwner
	}
	if entity.StartCommit >= entity.EndCommit {
		return fault.ErrInvalidCommitInterval
	}
	for i := range entity.Properties {
		if err := entity.Properties[i].Validate(); nil != err {
			return err
		}
	}
	return nil
}

// NewPropertyValue - construct a validated property value
func NewPropertyValue(name string, dataType DataType, startCommit int64, endCommit int64, serviceId string) (*PropertyValue, error) {
	property := &PropertyValue{
		Name:        name,
		DataType:    dataType,
		StartCommit: startCommit,
		EndCommit:   endCommit,
		ServiceId:   serviceId,
	}
	if "" == name {
		return nil, fault.ErrMissingPropertyName
	}
	if !dataType.IsValid() {
		return nil, fault.ErrMissingDataType
	}
	if startCommit >= endCommit {
		return nil, fault.ErrInvalidCommitInterval
	}
	return property, nil
}

// Validate - required fields, the interval invariant and the
// one-slot-per-data-type rule
func (property *PropertyValue) Validate() error {
	if "" == property.Name {
		return fault.ErrMissingPropertyName
	}
	if !property.DataType.IsValid() {
		return fault.ErrMissingDataType
	}
	if property.StartCommit >= property.EndCommit {
		return fault.ErrInvalidCommitInterval
	}

	if Struct == property.DataType {
		if 0 == len(property.StructValues) {
			return fault.ErrWrongValueForDataType
		}
	} else if 0 != len(property.StructValues) {
		return fault.ErrWrongValueForDataType
	}
	if Bytes != property.DataType && nil != property.BytesValue {
		return fault.ErrWrongValueForDataType
	}

	for i := range property.StructValues {
		if err := property.StructValues[i].Validate(); nil != err {
			return err
		}
	}
	return nil
}

// Find - linear scan of a record list for a batch id
func (list RecordList) Find(batchId string) (*BatchEntity, bool) {
	for i := range list {
		if list[i].BatchId == batchId {
			return &list[i], true
		}
	}
	return nil, false
}

// Merge - replace or append one entity, restoring the canonical order
//
// two nodes applying the identical operation sequence must produce
// byte-identical serialized output, so the result is always sorted by
// batch id
func (list RecordList) Merge(entity BatchEntity) RecordList {
	merged := list.Without(entity.BatchId)
	merged = append(merged, entity)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].BatchId < merged[j].BatchId
	})
	return merged
}

// Without - the list with any entity matching the batch id removed
func (list RecordList) Without(batchId string) RecordList {
	filtered := make(RecordList, 0, len(list))
	for _, entity := range list {
		if entity.BatchId != batchId {
			filtered = append(filtered, entity)
		}
	}
	return filtered
}
