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

// Update - close the current property generation of a batch
//
// the batch row itself stays open; the caller follows with an Add
// carrying the replacement properties, or leaves the batch with no
// current properties
func (s *Store) Update(ctx context.Context, batchId string, serviceId string, currentCommit int64) error {

	tx, err := s.begin(ctx)
	if nil != err {
		return err
	}
	defer tx.Rollback()

	err = s.advanceCheckpoint(ctx, tx, serviceId, currentCommit)
	if nil != err {
		return err
	}

	exists, err := s.batchIsOpen(ctx, tx, batchId, serviceId)
	if nil != err {
		return err
	}
	if !exists {
		return fault.ErrBatchNotFound
	}

	err = s.closePropertyRows(ctx, tx, batchId, serviceId, currentCommit)
	if nil != err {
		return err
	}

	return commit(tx)
}

// whether a batch has an open version
func (s *Store) batchIsOpen(ctx context.Context, tx *sql.Tx, batchId string, serviceId string) (bool, error) {
	var one int
	err := tx.QueryRowContext(
		ctx,
		s.rebind(`SELECT 1 FROM batch
			WHERE batch_id = ? AND service_id = ? AND end_commit_num = ?`),
		batchId, serviceId, batchrecord.MaxCommitNumber,
	).Scan(&one)
	if sql.ErrNoRows == err {
		return false, nil
	}
	if nil != err {
		return false, fault.ProcessError(fmt.Sprintf("projection: batch lookup: %s", err))
	}
	return true, nil
}
