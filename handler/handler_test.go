// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/batchstate"
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/handler"
)

const testingDirName = "testing"

func TestMain(m *testing.M) {
	_ = os.Mkdir(testingDirName, 0700)
	_ = logger.Initialise(logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})
	rc := m.Run()
	logger.Finalise()
	os.RemoveAll(testingDirName)
	os.Exit(rc)
}

// in-memory ledger state
type memoryState struct {
	entries map[string][]byte
}

func newMemoryState() *memoryState {
	return &memoryState{entries: map[string][]byte{}}
}

func (m *memoryState) Get(key []byte) []byte {
	value, ok := m.entries[string(key)]
	if !ok {
		return nil
	}
	return value
}

func (m *memoryState) Put(key []byte, value []byte) {
	m.entries[string(key)] = value
}

func (m *memoryState) Delete(key []byte) {
	delete(m.entries, string(key))
}

// registry fakes

type fakePermissions struct {
	granted map[string]bool
}

func (f *fakePermissions) HasPermission(signer string, permission string, recordOwner string) (bool, error) {
	return f.granted[signer+"/"+permission+"/"+recordOwner], nil
}

type fakeSchemas struct {
	schema *handler.Schema
	calls  int
}

func (f *fakeSchemas) GetSchema(name string) (*handler.Schema, error) {
	f.calls += 1
	if nil != f.schema && f.schema.Name == name {
		return f.schema, nil
	}
	return nil, nil
}

type fakeOrganizations struct {
	organizations map[string]*handler.Organization
}

func (f *fakeOrganizations) GetOrganization(id string) (*handler.Organization, error) {
	return f.organizations[id], nil
}

// a registry set that allows the happy path
//
// "688955434684" is a valid GTIN-12 owned by org-1 through the
// company prefix "688955"
func testFixture() (*memoryState, *handler.Handler) {
	state := newMemoryState()

	permissions := &fakePermissions{granted: map[string]bool{
		"signer-1/batch.create/org-1": true,
		"signer-1/batch.update/org-1": true,
		"signer-1/batch.delete/org-1": true,
	}}

	schemas := &fakeSchemas{schema: &handler.Schema{
		Name: handler.GS1SchemaName,
		Properties: []handler.PropertySchema{
			{Name: "description", DataType: batchrecord.String, Required: true},
			{Name: "count", DataType: batchrecord.Number},
			{Name: "site", DataType: batchrecord.Struct},
		},
	}}

	organizations := &fakeOrganizations{organizations: map[string]*handler.Organization{
		"org-1": {
			Id: "org-1",
			AlternateIds: []handler.AlternateId{
				{IdType: handler.CompanyPrefixIdType, Id: "688955"},
			},
		},
		"org-no-prefix": {
			Id:           "org-no-prefix",
			AlternateIds: []handler.AlternateId{},
		},
	}}

	return state, handler.New(state, permissions, schemas, organizations)
}

func createPayload(batchId string, owner string) *batchrecord.Payload {
	return &batchrecord.Payload{
		Action:    batchrecord.CreateBatch,
		Timestamp: 1609459200,
		Create: &batchrecord.CreateAction{
			BatchId:   batchId,
			Namespace: batchrecord.GS1,
			Owner:     owner,
			Properties: []batchrecord.PropertyValue{
				{Name: "description", DataType: batchrecord.String, StringValue: "Lot A"},
				{Name: "count", DataType: batchrecord.Number, NumberValue: 10},
			},
		},
	}
}

func apply(t *testing.T, h *handler.Handler, payload *batchrecord.Payload, commitNum int64) error {
	t.Helper()
	packed, err := payload.Pack()
	require.NoError(t, err)
	return h.Apply("signer-1", commitNum, packed)
}

func TestCreateBatch(t *testing.T) {
	state, h := testFixture()

	require.NoError(t, apply(t, h, createPayload("688955434684", "org-1"), 5))

	entity, err := batchstate.Get(state, "688955434684")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "org-1", entity.Owner)
	assert.Equal(t, int64(5), entity.StartCommit)
	assert.Equal(t, batchrecord.MaxCommitNumber, entity.EndCommit)
	require.Len(t, entity.Properties, 2)
	assert.Equal(t, int64(5), entity.Properties[0].StartCommit)
}

func TestCreateDuplicate(t *testing.T) {
	_, h := testFixture()

	require.NoError(t, apply(t, h, createPayload("688955434684", "org-1"), 5))

	err := apply(t, h, createPayload("688955434684", "org-1"), 6)
	assert.Equal(t, fault.ErrBatchAlreadyExists, err)
	assert.True(t, fault.IsErrExists(err))
}

func TestCreateDenied(t *testing.T) {
	state, h := testFixture()

	payload := createPayload("688955434684", "org-1")
	packed, err := payload.Pack()
	require.NoError(t, err)

	err = h.Apply("intruder", 5, packed)
	require.Error(t, err)
	assert.True(t, fault.IsErrInvalid(err))
	assert.Contains(t, err.Error(), "batch.create")
	assert.Empty(t, state.entries)
}

func TestCreateBadCheckDigit(t *testing.T) {
	_, h := testFixture()

	// last digit should be 4
	err := apply(t, h, createPayload("688955434685", "org-1"), 5)
	assert.Equal(t, fault.ErrGTINCheckDigit, err)
}

func TestCreateUnknownOrganization(t *testing.T) {
	permissions := &fakePermissions{granted: map[string]bool{
		"signer-1/batch.create/org-2": true,
	}}
	schemas := &fakeSchemas{}
	organizations := &fakeOrganizations{organizations: map[string]*handler.Organization{}}
	h := handler.New(newMemoryState(), permissions, schemas, organizations)

	err := apply(t, h, createPayload("688955434684", "org-2"), 5)
	assert.Equal(t, fault.ErrOrganizationNotFound, err)
	assert.True(t, fault.IsErrNotFound(err))
}

func TestCreateMissingCompanyPrefix(t *testing.T) {
	permissions := &fakePermissions{granted: map[string]bool{
		"signer-1/batch.create/org-no-prefix": true,
	}}
	schemas := &fakeSchemas{schema: &handler.Schema{Name: handler.GS1SchemaName}}
	organizations := &fakeOrganizations{organizations: map[string]*handler.Organization{
		"org-no-prefix": {Id: "org-no-prefix"},
	}}
	h := handler.New(newMemoryState(), permissions, schemas, organizations)

	err := apply(t, h, createPayload("688955434684", "org-no-prefix"), 5)
	assert.Equal(t, fault.ErrMissingCompanyPrefix, err)
}

func TestCreateWrongCompanyPrefix(t *testing.T) {
	_, h := testFixture()

	// valid GTIN-8 not containing the prefix 688955
	err := apply(t, h, createPayload("96385074", "org-1"), 5)
	assert.Equal(t, fault.ErrWrongCompanyPrefix, err)
}

func TestCreateUnknownProperty(t *testing.T) {
	_, h := testFixture()

	payload := createPayload("688955434684", "org-1")
	payload.Create.Properties = append(payload.Create.Properties, batchrecord.PropertyValue{
		Name:        "colour",
		DataType:    batchrecord.String,
		StringValue: "blue",
	})

	err := apply(t, h, payload, 5)
	require.Error(t, err)
	assert.True(t, fault.IsErrInvalid(err))
	assert.Contains(t, err.Error(), "colour")
}

func TestCreateMissingRequiredProperty(t *testing.T) {
	_, h := testFixture()

	payload := createPayload("688955434684", "org-1")
	payload.Create.Properties = payload.Create.Properties[1:] // drop description

	err := apply(t, h, payload, 5)
	require.Error(t, err)
	assert.True(t, fault.IsErrInvalid(err))
	assert.Contains(t, err.Error(), "description")
}

func TestUpdateBatch(t *testing.T) {
	state, h := testFixture()

	require.NoError(t, apply(t, h, createPayload("688955434684", "org-1"), 5))

	update := &batchrecord.Payload{
		Action:    batchrecord.UpdateBatch,
		Timestamp: 1609459300,
		Update: &batchrecord.UpdateAction{
			BatchId:   "688955434684",
			Namespace: batchrecord.GS1,
			Properties: []batchrecord.PropertyValue{
				{Name: "description", DataType: batchrecord.String, StringValue: "Lot B"},
			},
		},
	}
	require.NoError(t, apply(t, h, update, 9))

	entity, err := batchstate.Get(state, "688955434684")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "org-1", entity.Owner) // owner survives the update
	assert.Equal(t, int64(9), entity.StartCommit)
	require.Len(t, entity.Properties, 1)
	assert.Equal(t, "Lot B", entity.Properties[0].StringValue)
}

func TestUpdateUnknownBatch(t *testing.T) {
	_, h := testFixture()

	update := &batchrecord.Payload{
		Action:    batchrecord.UpdateBatch,
		Timestamp: 1609459300,
		Update: &batchrecord.UpdateAction{
			BatchId:   "688955434684",
			Namespace: batchrecord.GS1,
			Properties: []batchrecord.PropertyValue{
				{Name: "description", DataType: batchrecord.String, StringValue: "Lot B"},
			},
		},
	}

	err := apply(t, h, update, 9)
	assert.Equal(t, fault.ErrBatchNotFound, err)
}

func TestDeleteBatch(t *testing.T) {
	state, h := testFixture()

	require.NoError(t, apply(t, h, createPayload("688955434684", "org-1"), 5))

	del := &batchrecord.Payload{
		Action:    batchrecord.DeleteBatch,
		Timestamp: 1609459400,
		Delete: &batchrecord.DeleteAction{
			BatchId:   "688955434684",
			Namespace: batchrecord.GS1,
		},
	}
	require.NoError(t, apply(t, h, del, 12))

	entity, err := batchstate.Get(state, "688955434684")
	require.NoError(t, err)
	assert.Nil(t, entity)

	// a second delete has nothing to remove
	err = apply(t, h, del, 13)
	assert.Equal(t, fault.ErrBatchNotFound, err)
}

func TestApplyRejectsGarbage(t *testing.T) {
	_, h := testFixture()

	err := h.Apply("signer-1", 5, batchrecord.Packed{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
	assert.True(t, fault.IsErrInvalid(err))
}

func TestSchemaCache(t *testing.T) {
	inner := &fakeSchemas{schema: &handler.Schema{Name: handler.GS1SchemaName}}
	cached := handler.NewCachedSchemas(inner, 0)

	first, err := cached.GetSchema(handler.GS1SchemaName)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cached.GetSchema(handler.GS1SchemaName)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, inner.calls)

	// unknown schemas are not negatively cached
	missing, err := cached.GetSchema("other")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, _ = cached.GetSchema("other")
	assert.Equal(t, 3, inner.calls)
}
