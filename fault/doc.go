// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches
//
// Errors are grouped into classes so that callers can choose a
// recovery action without inspecting individual instances:
//
//	InvalidError   - caller input was rejected; never retried
//	NotFoundError  - the referenced item does not exist
//	ProcessError   - internal defect or corrupt stored data
//	TransientError - resource temporarily unavailable; safe to retry
package fault
