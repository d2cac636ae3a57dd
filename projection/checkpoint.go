// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mfgledger/mfgledgerd/fault"
)

// Checkpoint - highest commit number applied for a service id
//
// zero when nothing has been applied yet
func (s *Store) Checkpoint(ctx context.Context, serviceId string) (int64, error) {
	var commit int64
	err := s.db.QueryRowContext(
		ctx,
		s.rebind("SELECT commit_num FROM projection_checkpoint WHERE service_id = ?"),
		serviceId,
	).Scan(&commit)
	if sql.ErrNoRows == err {
		return 0, nil
	}
	if nil != err {
		return 0, fault.ProcessError(fmt.Sprintf("projection: checkpoint: %s", err))
	}
	return commit, nil
}

// advance the checkpoint inside an open transaction
//
// a commit may carry several mutations so equal commit numbers are
// accepted; going backwards is refused to keep the projection in step
// with the ledger
func (s *Store) advanceCheckpoint(ctx context.Context, tx *sql.Tx, serviceId string, commitNum int64) error {

	var current int64
	err := tx.QueryRowContext(
		ctx,
		s.rebind("SELECT commit_num FROM projection_checkpoint WHERE service_id = ?"),
		serviceId,
	).Scan(&current)
	if nil != err && sql.ErrNoRows != err {
		return fault.ProcessError(fmt.Sprintf("projection: checkpoint: %s", err))
	}

	if commitNum < current {
		return fault.ErrCommitNotMonotonic
	}

	_, err = tx.ExecContext(
		ctx,
		s.rebind(`INSERT INTO projection_checkpoint (service_id, commit_num)
			VALUES (?, ?)
			ON CONFLICT (service_id) DO UPDATE SET commit_num = excluded.commit_num`),
		serviceId, commitNum,
	)
	if nil != err {
		return fault.ProcessError(fmt.Sprintf("projection: checkpoint: %s", err))
	}
	return nil
}
