// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package projection

import (
	"context"
	"fmt"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
)

// Delete - close the current batch and property rows at an address
//
// nothing is inserted in their place so the batch has no current
// version afterwards; the closed history remains queryable by commit
// interval
func (s *Store) Delete(ctx context.Context, address string, currentCommit int64) error {

	tx, err := s.begin(ctx)
	if nil != err {
		return err
	}
	defer tx.Rollback()

	err = s.advanceCheckpoint(ctx, tx, "", currentCommit)
	if nil != err {
		return err
	}

	result, err := tx.ExecContext(
		ctx,
		s.rebind(`UPDATE batch SET end_commit_num = ?
			WHERE batch_address = ? AND end_commit_num = ?`),
		currentCommit, address, batchrecord.MaxCommitNumber,
	)
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: delete batch: %s", err))
	}

	closed, err := result.RowsAffected()
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: delete batch: %s", err))
	}
	if 0 == closed {
		return fault.ErrBatchNotFound
	}

	_, err = tx.ExecContext(
		ctx,
		s.rebind(`UPDATE batch_property_value SET end_commit_num = ?
			WHERE batch_address = ? AND end_commit_num = ?`),
		currentCommit, address, batchrecord.MaxCommitNumber,
	)
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: delete properties: %s", err))
	}

	return commit(tx)
}
