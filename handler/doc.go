// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package handler - apply requested mutations to the ledger state
//
// a payload is checked against the signer's permissions, the owning
// organization's GS1 company prefix and the registered batch schema
// before the merge engine touches the state; every rejection is a
// distinct error value so a gateway can report the exact field that
// failed
//
// permission, schema and organization lookups are behind small
// interfaces since they belong to the surrounding registry, not to
// this package
package handler
