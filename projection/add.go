// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package projection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfgledger/mfgledgerd/addressing"
	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
)

// Add - record a new batch version
//
// any version currently open for the same batch id is closed at the
// new start commit, so a second Add is how an updated batch reaches
// the projection; the inserted rows stay open until a later Add,
// Update or Delete closes them
func (s *Store) Add(ctx context.Context, entity *batchrecord.BatchEntity) error {

	if err := entity.Validate(); nil != err {
		return err
	}
	if batchrecord.MaxCommitNumber != entity.EndCommit {
		return fault.ErrInvalidCommitInterval
	}

	address, err := addressing.BatchAddress(entity.BatchId)
	if nil != err {
		return err
	}

	tx, err := s.begin(ctx)
	if nil != err {
		return err
	}
	defer tx.Rollback()

	err = s.advanceCheckpoint(ctx, tx, entity.ServiceId, entity.StartCommit)
	if nil != err {
		return err
	}

	// close the open predecessor rows, if any
	err = s.closeBatchRows(ctx, tx, entity.BatchId, entity.ServiceId, entity.StartCommit)
	if nil != err {
		return err
	}
	err = s.closePropertyRows(ctx, tx, entity.BatchId, entity.ServiceId, entity.StartCommit)
	if nil != err {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		s.rebind(`INSERT INTO batch
			(batch_id, batch_address, namespace, owner,
			 start_commit_num, end_commit_num, service_id, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		entity.BatchId,
		address.String(),
		entity.Namespace.String(),
		entity.Owner,
		entity.StartCommit,
		entity.EndCommit,
		entity.ServiceId,
		time.Now().Unix(),
	)
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: add batch: %s", err))
	}

	err = s.insertProperties(
		ctx, tx,
		entity.BatchId, address.String(), "",
		entity.Properties,
		entity.StartCommit, entity.ServiceId,
	)
	if nil != err {
		return err
	}

	return commit(tx)
}

// insert one generation of property rows, depth first
//
// parent is "" for root properties; the members of a struct carry
// the full path of their parent, "batch_id:root" one level down and
// "batch_id:root.child" below that, so a child that happens to share
// its parent's name still gets a distinct link
func (s *Store) insertProperties(
	ctx context.Context,
	tx *sql.Tx,
	batchId string,
	address string,
	parent string,
	properties []batchrecord.PropertyValue,
	startCommit int64,
	serviceId string,
) error {

	for i := range properties {
		property := &properties[i]

		var bytesValue interface{}
		var booleanValue interface{}
		var numberValue interface{}
		var stringValue interface{}
		var enumValue interface{}
		var latitudeValue interface{}
		var longitudeValue interface{}

		switch property.DataType {
		case batchrecord.Bytes:
			bytesValue = property.BytesValue
		case batchrecord.Boolean:
			booleanValue = property.BooleanValue
		case batchrecord.Number:
			numberValue = property.NumberValue
		case batchrecord.String:
			stringValue = property.StringValue
		case batchrecord.Enum:
			enumValue = property.EnumValue
		case batchrecord.LatLongType:
			latitudeValue = property.LatLongValue.Latitude
			longitudeValue = property.LatLongValue.Longitude
		case batchrecord.Struct:
			// the members carry the values
		default:
			return fault.ErrInvalidDataType
		}

		_, err := tx.ExecContext(
			ctx,
			s.rebind(`INSERT INTO batch_property_value
				(batch_id, batch_address, property_name, parent_property, data_type,
				 bytes_value, boolean_value, number_value, string_value, enum_value,
				 latitude_value, longitude_value,
				 start_commit_num, end_commit_num, service_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			batchId,
			address,
			property.Name,
			parent,
			property.DataType.String(),
			bytesValue,
			booleanValue,
			numberValue,
			stringValue,
			enumValue,
			latitudeValue,
			longitudeValue,
			startCommit,
			batchrecord.MaxCommitNumber,
			serviceId,
		)
		if nil != err {
			return fault.ProcessError(fmt.Sprintf("projection: add property: %s", err))
		}

		if batchrecord.Struct == property.DataType {
			err = s.insertProperties(
				ctx, tx,
				batchId, address,
				childLink(batchId, parent, property.Name),
				property.StructValues,
				startCommit, serviceId,
			)
			if nil != err {
				return err
			}
		}
	}

	return nil
}

// the parent link of the members of a struct property
func childLink(batchId string, parent string, name string) string {
	if "" == parent {
		return batchId + ":" + name
	}
	return parent + "." + name
}

// close the open batch rows for a batch id
func (s *Store) closeBatchRows(ctx context.Context, tx *sql.Tx, batchId string, serviceId string, endCommit int64) error {
	_, err := tx.ExecContext(
		ctx,
		s.rebind(`UPDATE batch SET end_commit_num = ?
			WHERE batch_id = ? AND service_id = ? AND end_commit_num = ?`),
		endCommit, batchId, serviceId, batchrecord.MaxCommitNumber,
	)
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: close batch: %s", err))
	}
	return nil
}

// close the open property rows for a batch id
func (s *Store) closePropertyRows(ctx context.Context, tx *sql.Tx, batchId string, serviceId string, endCommit int64) error {
	_, err := tx.ExecContext(
		ctx,
		s.rebind(`UPDATE batch_property_value SET end_commit_num = ?
			WHERE batch_id = ? AND service_id = ? AND end_commit_num = ?`),
		endCommit, batchId, serviceId, batchrecord.MaxCommitNumber,
	)
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: close properties: %s", err))
	}
	return nil
}

func commit(tx *sql.Tx) error {
	if err := tx.Commit(); nil != err {
		return fault.TransientError(fmt.Sprintf("projection: commit: %s", err))
	}
	return nil
}
