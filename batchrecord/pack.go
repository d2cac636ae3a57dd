// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/util"
)

// byte sizes for various fields
const (
	maxBatchIdLength      = 14
	maxOwnerLength        = 256
	maxPropertyNameLength = 128
	maxStringValueLength  = 8192
	maxBytesValueLength   = 8192
	maxServiceIdLength    = 256
	maxPropertyCount      = 1024
	maxRecordListCount    = 1024
	maxStructDepth        = 32
)

// Pack - serialize one batch entity
//
// Pack Varint64(tag) followed by fields in struct order; all lengths
// and counts are Varint64, signed values are zig-zag encoded
func (entity *BatchEntity) Pack() (Packed, error) {
	if err := entity.Validate(); nil != err {
		return nil, err
	}
	if len(entity.BatchId) > maxBatchIdLength {
		return nil, fault.ErrBatchIdTooLong
	}
	if len(entity.Owner) > maxOwnerLength {
		return nil, fault.InvalidError("owner is too long")
	}
	if len(entity.ServiceId) > maxServiceIdLength {
		return nil, fault.InvalidError("service id is too long")
	}
	if len(entity.Properties) > maxPropertyCount {
		return nil, fault.InvalidError("too many properties")
	}

	// concatenate bytes
	message := util.ToVarint64(uint64(BatchTag))
	message = appendString(message, entity.BatchId)
	message = appendUint64(message, entity.Namespace.Uint64())
	message = appendString(message, entity.Owner)
	message = appendUint64(message, uint64(len(entity.Properties)))
	for i := range entity.Properties {
		var err error
		message, err = entity.Properties[i].appendTo(message, 1)
		if nil != err {
			return nil, err
		}
	}
	message = appendUint64(message, uint64(entity.StartCommit))
	message = appendUint64(message, uint64(entity.EndCommit))
	message = appendString(message, entity.ServiceId)
	return message, nil
}

// Pack - serialize all entities sharing one address
//
// element order is already canonical (sorted by batch id); packing is
// a pure fold so equal lists always give equal bytes
func (list RecordList) Pack() (Packed, error) {
	if len(list) > maxRecordListCount {
		return nil, fault.InvalidError("too many records at one address")
	}

	message := util.ToVarint64(uint64(RecordListTag))
	message = appendUint64(message, uint64(len(list)))
	for i := range list {
		packed, err := list[i].Pack()
		if nil != err {
			return nil, err
		}
		message = append(message, packed...)
	}
	return message, nil
}

// serialize one property value, recursing through struct children
func (property *PropertyValue) appendTo(message []byte, depth int) ([]byte, error) {
	if depth > maxStructDepth {
		return nil, fault.InvalidError("property struct nesting is too deep")
	}
	if len(property.Name) > maxPropertyNameLength {
		return nil, fault.InvalidError("property name is too long")
	}

	message = appendString(message, property.Name)
	message = appendUint64(message, property.DataType.Uint64())

	switch property.DataType {
	case Bytes:
		if len(property.BytesValue) > maxBytesValueLength {
			return nil, fault.InvalidError("bytes value is too long")
		}
		message = appendBytes(message, property.BytesValue)
	case Boolean:
		b := byte(0)
		if property.BooleanValue {
			b = 1
		}
		message = append(message, b)
	case Number:
		message = appendZigZag64(message, property.NumberValue)
	case String:
		if len(property.StringValue) > maxStringValueLength {
			return nil, fault.InvalidError("string value is too long")
		}
		message = appendString(message, property.StringValue)
	case Enum:
		message = appendZigZag64(message, int64(property.EnumValue))
	case LatLongType:
		message = appendZigZag64(message, property.LatLongValue.Latitude)
		message = appendZigZag64(message, property.LatLongValue.Longitude)
	case Struct:
		if len(property.StructValues) > maxPropertyCount {
			return nil, fault.InvalidError("too many struct children")
		}
		message = appendUint64(message, uint64(len(property.StructValues)))
		for i := range property.StructValues {
			var err error
			message, err = property.StructValues[i].appendTo(message, depth+1)
			if nil != err {
				return nil, err
			}
		}
	default:
		return nil, fault.ErrInvalidDataType
	}

	message = appendUint64(message, uint64(property.StartCommit))
	message = appendUint64(message, uint64(property.EndCommit))
	message = appendString(message, property.ServiceId)
	return message, nil
}

// append a single field of various types

func appendUint64(buffer []byte, value uint64) []byte {
	return append(buffer, util.ToVarint64(value)...)
}

func appendZigZag64(buffer []byte, value int64) []byte {
	return appendUint64(buffer, uint64(value)<<1^uint64(value>>63))
}

func appendString(buffer []byte, s string) []byte {
	return appendBytes(buffer, []byte(s))
}

func appendBytes(buffer []byte, data []byte) []byte {
	buffer = append(buffer, util.ToVarint64(uint64(len(data)))...)
	return append(buffer, data...)
}
