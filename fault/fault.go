// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type TransientError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised         = ProcessError("already initialised")
	ErrBatchAlreadyExists         = ExistsError("batch already exists")
	ErrBatchIdMismatch            = InvalidError("batch id does not match the entity")
	ErrBatchIdNotNumeric          = InvalidError("batch id must be numeric")
	ErrBatchIdTooLong             = InvalidError("batch id exceeds address padding width")
	ErrBatchNotFound              = NotFoundError("batch not found")
	ErrCommitNotMonotonic         = InvalidError("commit number is not after the projection checkpoint")
	ErrCorruptRecordList          = ProcessError("cannot deserialize record list")
	ErrGTINCheckDigit             = InvalidError("GTIN check digit mismatch")
	ErrGTINLength                 = InvalidError("GTIN length is invalid")
	ErrInvalidBatchNamespace      = InvalidError("invalid batch namespace")
	ErrInvalidCommitInterval      = InvalidError("start commit number must be less than end commit number")
	ErrInvalidDataType            = InvalidError("invalid property data type")
	ErrInvalidStructPointer       = ProcessError("invalid struct pointer")
	ErrMissingBatchId             = InvalidError("batch id is required")
	ErrMissingCompanyPrefix       = InvalidError("organization has no gs1_company_prefix alternate id")
	ErrMissingDataType            = InvalidError("property data type is required")
	ErrMissingOwner               = InvalidError("owner is required")
	ErrMissingPropertyName        = InvalidError("property name is required")
	ErrNotBatchRecordPack         = ProcessError("not a batch record")
	ErrNotInitialised             = ProcessError("not initialised")
	ErrNotRecordListPack          = ProcessError("not a record list")
	ErrOrganizationNotFound       = NotFoundError("organization not found")
	ErrPayloadTimestampMissing    = InvalidError("payload timestamp is not set")
	ErrSchemaNotFound             = NotFoundError("schema has not been defined")
	ErrWrongCompanyPrefix         = InvalidError("organization does not own the GS1 company prefix of the batch id")
	ErrWrongValueForDataType      = InvalidError("populated value slot does not match the data type")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string    { return string(e) }
func (e InvalidError) Error() string   { return string(e) }
func (e NotFoundError) Error() string  { return string(e) }
func (e ProcessError) Error() string   { return string(e) }
func (e TransientError) Error() string { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool    { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool   { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool  { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool   { _, ok := e.(ProcessError); return ok }
func IsErrTransient(e error) bool { _, ok := e.(TransientError); return ok }
