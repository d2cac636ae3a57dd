// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package projection - relational read model of the ledger state
//
// every batch mutation that commits on the ledger is mirrored here as
// versioned rows: the row current at commit C is the one whose
// interval [start_commit_num, end_commit_num) contains C, and the
// newest version carries the sentinel end commit so it matches any
// future commit
//
// three tables:
//
//	batch                 - one row per batch version
//	batch_property_value  - one row per property version, nested
//	                        struct members link to their parent by
//	                        its full path "batch_id:root.child..."
//	projection_checkpoint - highest commit applied so far, one row
//	                        per service id
//
// each operation runs inside a single database transaction and rolls
// back completely on error; replaying commits out of order is refused
// so the projection can never silently diverge from the ledger
//
// two backends are supported through database/sql: PostgreSQL (pgx)
// and SQLite (modernc), selected by dialect at Open
package projection
