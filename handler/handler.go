// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"fmt"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/mfgledger/mfgledgerd/addressing"
	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/batchstate"
	"github.com/mfgledger/mfgledgerd/fault"
)

// permission strings checked against the signer
const (
	CanCreateBatch = "batch.create"
	CanUpdateBatch = "batch.update"
	CanDeleteBatch = "batch.delete"
)

// GS1SchemaName - schema every GS1 batch must conform to
const GS1SchemaName = "gs1_batch"

// CompanyPrefixIdType - alternate id carrying an organization's GS1
// company prefix
const CompanyPrefixIdType = "gs1_company_prefix"

// PermissionChecker - can a signer act on records of an organization
type PermissionChecker interface {
	HasPermission(signer string, permission string, recordOwner string) (bool, error)
}

// PropertySchema - one attribute a schema defines
type PropertySchema struct {
	Name     string
	DataType batchrecord.DataType
	Required bool
}

// Schema - the attribute set registered for a namespace
type Schema struct {
	Name       string
	Properties []PropertySchema
}

// SchemaGetter - schema registry lookup, nil when not defined
type SchemaGetter interface {
	GetSchema(name string) (*Schema, error)
}

// AlternateId - a typed external identifier of an organization
type AlternateId struct {
	IdType string
	Id     string
}

// Organization - the registry view of a batch owner
type Organization struct {
	Id           string
	AlternateIds []AlternateId
}

// OrganizationGetter - organization registry lookup, nil when unknown
type OrganizationGetter interface {
	GetOrganization(id string) (*Organization, error)
}

// Handler - applies payloads to one ledger state view
type Handler struct {
	log           *logger.L
	state         batchstate.KeyValue
	permissions   PermissionChecker
	schemas       SchemaGetter
	organizations OrganizationGetter
}

// New - create a handler over a state view and its registries
func New(state batchstate.KeyValue, permissions PermissionChecker, schemas SchemaGetter, organizations OrganizationGetter) *Handler {
	return &Handler{
		log:           logger.New("handler"),
		state:         state,
		permissions:   permissions,
		schemas:       schemas,
		organizations: organizations,
	}
}

// Apply - decode one payload and run its action at a commit number
//
// the commit number is assigned by the ledger, not the caller of the
// mutation, and stamps the new record version
func (h *Handler) Apply(signer string, commitNum int64, packed batchrecord.Packed) error {

	record, _, err := packed.Unpack()
	if nil != err {
		return fault.InvalidError(fmt.Sprintf("cannot decode payload: %s", err))
	}
	payload, ok := record.(*batchrecord.Payload)
	if !ok {
		return fault.InvalidError("packed record is not a payload")
	}

	if err := payload.Validate(); nil != err {
		return err
	}

	h.log.Infof("apply: action: %s  timestamp: %d  commit: %d", payload.Action, payload.Timestamp, commitNum)

	switch payload.Action {
	case batchrecord.CreateBatch:
		return h.createBatch(payload.Create, signer, commitNum)
	case batchrecord.UpdateBatch:
		return h.updateBatch(payload.Update, signer, commitNum)
	case batchrecord.DeleteBatch:
		return h.deleteBatch(payload.Delete, signer)
	default:
		return fault.InvalidError("unknown payload action")
	}
}

func (h *Handler) createBatch(create *batchrecord.CreateAction, signer string, commitNum int64) error {

	err := h.checkPermission(signer, CanCreateBatch, create.Owner)
	if nil != err {
		return err
	}

	existing, err := batchstate.Get(h.state, create.BatchId)
	if nil != err {
		return err
	}
	if nil != existing {
		return fault.ErrBatchAlreadyExists
	}

	if batchrecord.GS1 != create.Namespace {
		return fault.ErrInvalidBatchNamespace
	}

	err = addressing.ValidateGTIN(create.BatchId)
	if nil != err {
		return err
	}

	organization, err := h.organizations.GetOrganization(create.Owner)
	if nil != err {
		return err
	}
	if nil == organization {
		return fault.ErrOrganizationNotFound
	}

	err = checkCompanyPrefix(organization, create.BatchId)
	if nil != err {
		return err
	}

	err = h.checkSchema(create.Properties)
	if nil != err {
		return err
	}

	entity, err := batchrecord.NewBatchEntity(
		create.BatchId,
		create.Namespace,
		create.Owner,
		stampProperties(create.Properties, commitNum),
		commitNum,
		batchrecord.MaxCommitNumber,
		"",
	)
	if nil != err {
		return err
	}

	return batchstate.Set(h.state, create.BatchId, entity)
}

func (h *Handler) updateBatch(update *batchrecord.UpdateAction, signer string, commitNum int64) error {

	if batchrecord.GS1 != update.Namespace {
		return fault.ErrInvalidBatchNamespace
	}

	existing, err := batchstate.Get(h.state, update.BatchId)
	if nil != err {
		return err
	}
	if nil == existing {
		return fault.ErrBatchNotFound
	}

	// the owner recorded on the batch gates the update, not the payload
	err = h.checkPermission(signer, CanUpdateBatch, existing.Owner)
	if nil != err {
		return err
	}

	err = addressing.ValidateGTIN(update.BatchId)
	if nil != err {
		return err
	}

	err = h.checkSchema(update.Properties)
	if nil != err {
		return err
	}

	entity, err := batchrecord.NewBatchEntity(
		update.BatchId,
		update.Namespace,
		existing.Owner,
		stampProperties(update.Properties, commitNum),
		commitNum,
		batchrecord.MaxCommitNumber,
		existing.ServiceId,
	)
	if nil != err {
		return err
	}

	return batchstate.Set(h.state, update.BatchId, entity)
}

func (h *Handler) deleteBatch(del *batchrecord.DeleteAction, signer string) error {

	if batchrecord.GS1 != del.Namespace {
		return fault.ErrInvalidBatchNamespace
	}

	existing, err := batchstate.Get(h.state, del.BatchId)
	if nil != err {
		return err
	}
	if nil == existing {
		return fault.ErrBatchNotFound
	}

	err = h.checkPermission(signer, CanDeleteBatch, existing.Owner)
	if nil != err {
		return err
	}

	err = addressing.ValidateGTIN(del.BatchId)
	if nil != err {
		return err
	}

	return batchstate.Remove(h.state, del.BatchId)
}

func (h *Handler) checkPermission(signer string, permission string, recordOwner string) error {
	ok, err := h.permissions.HasPermission(signer, permission, recordOwner)
	if nil != err {
		return fault.InvalidError(fmt.Sprintf("permission check failed: %s", err))
	}
	if !ok {
		return fault.InvalidError(fmt.Sprintf("signer %q does not have the %q permission for organization %q", signer, permission, recordOwner))
	}
	return nil
}

// validate a property set against the registered GS1 schema
//
// unknown names are rejected and every required name must be present
// with the declared data type
func (h *Handler) checkSchema(properties []batchrecord.PropertyValue) error {

	schema, err := h.schemas.GetSchema(GS1SchemaName)
	if nil != err {
		return err
	}
	if nil == schema {
		return fault.ErrSchemaNotFound
	}

	for i := range properties {
		if nil == schemaProperty(schema, properties[i].Name) {
			return fault.InvalidError(fmt.Sprintf("%q is not a property defined by the %s schema", properties[i].Name, schema.Name))
		}
	}

	for _, required := range schema.Properties {
		if !required.Required {
			continue
		}
		found := false
		for i := range properties {
			if properties[i].Name == required.Name && properties[i].DataType == required.DataType {
				found = true
				break
			}
		}
		if !found {
			return fault.InvalidError(fmt.Sprintf("missing required property %q of type %s", required.Name, required.DataType))
		}
	}

	return nil
}

func schemaProperty(schema *Schema, name string) *PropertySchema {
	for i := range schema.Properties {
		if schema.Properties[i].Name == name {
			return &schema.Properties[i]
		}
	}
	return nil
}

func checkCompanyPrefix(organization *Organization, batchId string) error {
	for _, alternate := range organization.AlternateIds {
		if CompanyPrefixIdType != alternate.IdType {
			continue
		}
		if strings.Contains(batchId, alternate.Id) {
			return nil
		}
		return fault.ErrWrongCompanyPrefix
	}
	return fault.ErrMissingCompanyPrefix
}

// copy a property tree stamping the commit interval of a new version
func stampProperties(properties []batchrecord.PropertyValue, commitNum int64) []batchrecord.PropertyValue {
	if nil == properties {
		return nil
	}
	stamped := make([]batchrecord.PropertyValue, len(properties))
	for i := range properties {
		stamped[i] = properties[i]
		stamped[i].StartCommit = commitNum
		stamped[i].EndCommit = batchrecord.MaxCommitNumber
		stamped[i].StructValues = stampProperties(properties[i].StructValues, commitNum)
	}
	return stamped
}
