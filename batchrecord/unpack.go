// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/util"
)

// Unpack - turn a byte slice back into a record
//
// must cast the result to the correct type, e.g.
//
//	entity, ok := result.(*BatchEntity)
//
// a decode failure is always a ProcessError: packed bytes come from
// this codec, so malformed input means a corrupt blob or an
// incompatible encoder, never "absent data"
func (record Packed) Unpack() (r Record, n int, e error) {

	defer func() {
		if p := recover(); nil != p {
			r = nil
			n = 0
			e = fault.ErrNotBatchRecordPack
		}
	}()

	recordType, n := util.ClippedVarint64(record, 1, int(InvalidTag)-1)
	if 0 == n {
		return nil, 0, fault.ErrNotBatchRecordPack
	}

	switch TagType(recordType) {

	case BatchTag:
		entity, count, err := unpackBatchBody(record[n:])
		if nil != err {
			return nil, 0, err
		}
		return entity, n + count, nil

	case RecordListTag:
		list, count, err := unpackRecordListBody(record[n:])
		if nil != err {
			return nil, 0, err
		}
		return list, n + count, nil

	case PayloadTag:
		payload, count, err := unpackPayloadBody(record[n:])
		if nil != err {
			return nil, 0, err
		}
		return payload, n + count, nil

	default:
		return nil, 0, fault.ErrNotBatchRecordPack
	}
}

// UnpackRecordList - decode the blob stored at one ledger address
func (record Packed) UnpackRecordList() (RecordList, error) {
	r, n, err := record.Unpack()
	if nil != err {
		return nil, fault.ErrCorruptRecordList
	}
	list, ok := r.(RecordList)
	if !ok || n != len(record) {
		return nil, fault.ErrCorruptRecordList
	}
	return list, nil
}

// fields of a batch entity after its tag
func unpackBatchBody(buffer []byte) (*BatchEntity, int, error) {
	n := 0

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

	owner, count, err := readString(buffer[n:], maxOwnerLength)
	if nil != err {
		return nil, 0, err
	}
	n += count

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

	startCommit, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count

	endCommit, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count

	serviceId, count, err := readString(buffer[n:], maxServiceIdLength)
	if nil != err {
		return nil, 0, err
	}
	n += count

	entity := &BatchEntity{
		BatchId:     batchId,
		Namespace:   namespace,
		Owner:       owner,
		Properties:  properties,
		StartCommit: int64(startCommit),
		EndCommit:   int64(endCommit),
		ServiceId:   serviceId,
	}
	if err := entity.Validate(); nil != err {
		return nil, 0, err
	}
	return entity, n, nil
}

// elements of a record list after its tag
func unpackRecordListBody(buffer []byte) (RecordList, int, error) {
	n := 0

	elementCount, count := util.FromVarint64(buffer[n:])
	if 0 == count || elementCount > maxRecordListCount {
		return nil, 0, fault.ErrNotRecordListPack
	}
	n += count

	list := make(RecordList, 0, elementCount)
	previousId := ""
	for i := uint64(0); i < elementCount; i += 1 {
		r, count, err := Packed(buffer[n:]).Unpack()
		if nil != err {
			return nil, 0, err
		}
		entity, ok := r.(*BatchEntity)
		if !ok {
			return nil, 0, fault.ErrNotRecordListPack
		}
		// canonical order with unique ids
		if i > 0 && entity.BatchId <= previousId {
			return nil, 0, fault.ErrNotRecordListPack
		}
		previousId = entity.BatchId
		n += count
		list = append(list, *entity)
	}
	return list, n, nil
}

// one property value, recursing through struct children
func unpackPropertyValue(buffer []byte, depth int) (*PropertyValue, int, error) {
	if depth > maxStructDepth {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n := 0

	name, count, err := readString(buffer[n:], maxPropertyNameLength)
	if nil != err {
		return nil, 0, err
	}
	n += count

	dataTypeValue, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count
	dataType, err := DataTypeFromUint64(dataTypeValue)
	if nil != err {
		return nil, 0, err
	}

	property := &PropertyValue{
		Name:     name,
		DataType: dataType,
	}

	switch dataType {
	case Bytes:
		data, count, err := readBytes(buffer[n:], maxBytesValueLength)
		if nil != err {
			return nil, 0, err
		}
		n += count
		property.BytesValue = data
	case Boolean:
		if n >= len(buffer) {
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		switch buffer[n] {
		case 0:
			property.BooleanValue = false
		case 1:
			property.BooleanValue = true
		default:
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		n += 1
	case Number:
		value, count := readZigZag64(buffer[n:])
		if 0 == count {
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		n += count
		property.NumberValue = value
	case String:
		s, count, err := readString(buffer[n:], maxStringValueLength)
		if nil != err {
			return nil, 0, err
		}
		n += count
		property.StringValue = s
	case Enum:
		value, count := readZigZag64(buffer[n:])
		if 0 == count {
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		n += count
		property.EnumValue = int32(value)
	case LatLongType:
		latitude, count := readZigZag64(buffer[n:])
		if 0 == count {
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		n += count
		longitude, count := readZigZag64(buffer[n:])
		if 0 == count {
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		n += count
		property.LatLongValue = LatLong{Latitude: latitude, Longitude: longitude}
	case Struct:
		childCount, count := util.FromVarint64(buffer[n:])
		if 0 == count || childCount > maxPropertyCount {
			return nil, 0, fault.ErrNotBatchRecordPack
		}
		n += count
		children := make([]PropertyValue, 0, childCount)
		for i := uint64(0); i < childCount; i += 1 {
			child, count, err := unpackPropertyValue(buffer[n:], depth+1)
			if nil != err {
				return nil, 0, err
			}
			n += count
			children = append(children, *child)
		}
		property.StructValues = children
	}

	startCommit, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count
	property.StartCommit = int64(startCommit)

	endCommit, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n += count
	property.EndCommit = int64(endCommit)

	serviceId, count, err := readString(buffer[n:], maxServiceIdLength)
	if nil != err {
		return nil, 0, err
	}
	n += count
	property.ServiceId = serviceId

	return property, n, nil
}

// length-prefixed field readers; zero length is legitimate and
// decodes as an empty non-nil slice so that a round trip of an empty
// value compares equal (nil and empty encode identically, both
// normalise to empty on decode)

func readBytes(buffer []byte, maximum int) ([]byte, int, error) {
	length, count := util.FromVarint64(buffer)
	if 0 == count || length > uint64(maximum) {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	n := count + int(length)
	if n > len(buffer) {
		return nil, 0, fault.ErrNotBatchRecordPack
	}
	data := make([]byte, length)
	copy(data, buffer[count:n])
	return data, n, nil
}

func readString(buffer []byte, maximum int) (string, int, error) {
	data, n, err := readBytes(buffer, maximum)
	if nil != err {
		return "", 0, err
	}
	return string(data), n, nil
}

func readZigZag64(buffer []byte) (int64, int) {
	value, count := util.FromVarint64(buffer)
	if 0 == count {
		return 0, 0
	}
	return int64(value>>1) ^ -int64(value&1), count
}
