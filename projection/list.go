// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package projection

import (
	"context"
	"fmt"
	"math"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
)

// List - one page of current batches, in batch id order
//
// the returned total counts every current batch matching the service
// id, not just the page, so a caller can paginate without a second
// query; limit <= 0 means no page limit
func (s *Store) List(ctx context.Context, serviceId string, offset int64, limit int64) ([]batchrecord.BatchEntity, int64, error) {

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = math.MaxInt64
	}

	tx, err := s.begin(ctx)
	if nil != err {
		return nil, 0, err
	}
	defer tx.Rollback()

	var total int64
	err = tx.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(*) FROM batch
			WHERE service_id = ? AND end_commit_num = ?`),
		serviceId, batchrecord.MaxCommitNumber,
	).Scan(&total)
	if nil != err {
		return nil, 0, fault.ProcessError(fmt.Sprintf("projection: count batches: %s", err))
	}

	rows, err := tx.QueryContext(
		ctx,
		s.rebind(`SELECT batch_id, namespace, owner, start_commit_num, end_commit_num, service_id
			FROM batch
			WHERE service_id = ? AND end_commit_num = ?
			ORDER BY batch_id
			LIMIT ? OFFSET ?`),
		serviceId, batchrecord.MaxCommitNumber, limit, offset,
	)
	if nil != err {
		return nil, 0, fault.ProcessError(fmt.Sprintf("projection: list batches: %s", err))
	}

	entities := []batchrecord.BatchEntity(nil)

	for rows.Next() {
		var entity batchrecord.BatchEntity
		var namespace string

		err = rows.Scan(
			&entity.BatchId,
			&namespace,
			&entity.Owner,
			&entity.StartCommit,
			&entity.EndCommit,
			&entity.ServiceId,
		)
		if nil != err {
			rows.Close()
			return nil, 0, fault.ProcessError(fmt.Sprintf("projection: scan batch: %s", err))
		}

		entity.Namespace, err = batchrecord.NamespaceFromString(namespace)
		if nil != err {
			rows.Close()
			return nil, 0, fault.ProcessError(fmt.Sprintf("projection: stored namespace: %q", namespace))
		}

		entities = append(entities, entity)
	}
	if err = rows.Err(); nil != err {
		return nil, 0, fault.ProcessError(fmt.Sprintf("projection: list batches: %s", err))
	}
	rows.Close()

	// property trees are loaded after the batch cursor is finished to
	// keep a single connection backend usable
	for i := range entities {
		entities[i].Properties, err = s.loadProperties(ctx, tx, entities[i].BatchId, serviceId, batchrecord.MaxCommitNumber-1)
		if nil != err {
			return nil, 0, err
		}
	}

	return entities, total, nil
}
