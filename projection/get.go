// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
)

// Get - the current version of a batch
//
// returns nil with no error when the batch has never been added or
// its current version was deleted
func (s *Store) Get(ctx context.Context, batchId string, serviceId string) (*batchrecord.BatchEntity, error) {
	// the open version is the only interval reaching the sentinel
	return s.GetAt(ctx, batchId, serviceId, batchrecord.MaxCommitNumber-1)
}

// GetAt - the version of a batch visible at a commit number
//
// a version is visible at commit C when C falls inside its half-open
// interval [start_commit_num, end_commit_num); nil with no error
// when no version was live at that commit
func (s *Store) GetAt(ctx context.Context, batchId string, serviceId string, commitNum int64) (*batchrecord.BatchEntity, error) {

	tx, err := s.begin(ctx)
	if nil != err {
		return nil, err
	}
	defer tx.Rollback()

	entity, err := s.getBatchRow(ctx, tx, batchId, serviceId, commitNum)
	if nil != err || nil == entity {
		return nil, err
	}

	entity.Properties, err = s.loadProperties(ctx, tx, batchId, serviceId, commitNum)
	if nil != err {
		return nil, err
	}

	return entity, nil
}

// read the batch row visible at a commit, nil if none
func (s *Store) getBatchRow(ctx context.Context, tx *sql.Tx, batchId string, serviceId string, commitNum int64) (*batchrecord.BatchEntity, error) {

	var entity batchrecord.BatchEntity
	var namespace string

	err := tx.QueryRowContext(
		ctx,
		s.rebind(`SELECT batch_id, namespace, owner, start_commit_num, end_commit_num, service_id
			FROM batch
			WHERE batch_id = ? AND service_id = ?
			AND start_commit_num <= ? AND end_commit_num > ?`),
		batchId, serviceId, commitNum, commitNum,
	).Scan(
		&entity.BatchId,
		&namespace,
		&entity.Owner,
		&entity.StartCommit,
		&entity.EndCommit,
		&entity.ServiceId,
	)
	if sql.ErrNoRows == err {
		return nil, nil
	}
	if nil != err {
		return nil, fault.ProcessError(fmt.Sprintf("projection: get batch: %s", err))
	}

	entity.Namespace, err = batchrecord.NamespaceFromString(namespace)
	if nil != err {
		return nil, fault.ProcessError(fmt.Sprintf("projection: stored namespace: %q", namespace))
	}

	return &entity, nil
}

// a flat property row before tree assembly
type propertyRow struct {
	parent   string
	property batchrecord.PropertyValue
}

// load one property generation and rebuild the nesting
//
// all rows visible at the commit are fetched in one query in
// insertion order, then the tree is reassembled from the parent
// links; children of a struct stay in the order they were written
func (s *Store) loadProperties(ctx context.Context, tx *sql.Tx, batchId string, serviceId string, commitNum int64) ([]batchrecord.PropertyValue, error) {

	rows, err := tx.QueryContext(
		ctx,
		s.rebind(`SELECT property_name, parent_property, data_type,
			bytes_value, boolean_value, number_value, string_value, enum_value,
			latitude_value, longitude_value,
			start_commit_num, end_commit_num, service_id
			FROM batch_property_value
			WHERE batch_id = ? AND service_id = ?
			AND start_commit_num <= ? AND end_commit_num > ?
			ORDER BY id`),
		batchId, serviceId, commitNum, commitNum,
	)
	if nil != err {
		return nil, fault.ProcessError(fmt.Sprintf("projection: get properties: %s", err))
	}
	defer rows.Close()

	flat := []propertyRow(nil)

	for rows.Next() {
		var r propertyRow
		var dataType string
		var bytesValue []byte
		var booleanValue sql.NullBool
		var numberValue sql.NullInt64
		var stringValue sql.NullString
		var enumValue sql.NullInt32
		var latitudeValue sql.NullInt64
		var longitudeValue sql.NullInt64

		err = rows.Scan(
			&r.property.Name,
			&r.parent,
			&dataType,
			&bytesValue,
			&booleanValue,
			&numberValue,
			&stringValue,
			&enumValue,
			&latitudeValue,
			&longitudeValue,
			&r.property.StartCommit,
			&r.property.EndCommit,
			&r.property.ServiceId,
		)
		if nil != err {
			return nil, fault.ProcessError(fmt.Sprintf("projection: scan property: %s", err))
		}

		r.property.DataType, err = batchrecord.DataTypeFromString(dataType)
		if nil != err {
			return nil, fault.ProcessError(fmt.Sprintf("projection: stored data type: %q", dataType))
		}

		r.property.BytesValue = bytesValue
		r.property.BooleanValue = booleanValue.Bool
		r.property.NumberValue = numberValue.Int64
		r.property.StringValue = stringValue.String
		r.property.EnumValue = enumValue.Int32
		r.property.LatLongValue = batchrecord.LatLong{
			Latitude:  latitudeValue.Int64,
			Longitude: longitudeValue.Int64,
		}

		flat = append(flat, r)
	}
	if err = rows.Err(); nil != err {
		return nil, fault.ProcessError(fmt.Sprintf("projection: get properties: %s", err))
	}

	return assembleProperties(batchId, "", flat), nil
}

// build the subtree under one parent link
//
// the link of a struct's members is the struct's own full path, so
// every recursion step lengthens the key and must terminate
func assembleProperties(batchId string, parent string, flat []propertyRow) []batchrecord.PropertyValue {

	properties := []batchrecord.PropertyValue(nil)

	for i := range flat {
		if flat[i].parent != parent {
			continue
		}
		property := flat[i].property
		if batchrecord.Struct == property.DataType {
			property.StructValues = assembleProperties(
				batchId,
				childLink(batchId, parent, property.Name),
				flat,
			)
		}
		properties = append(properties, property)
	}

	return properties
}
