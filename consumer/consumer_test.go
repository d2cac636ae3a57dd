// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consumer_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/batchstate"
	"github.com/mfgledger/mfgledgerd/consumer"
	"github.com/mfgledger/mfgledgerd/fault"
	"github.com/mfgledger/mfgledgerd/handler"
	"github.com/mfgledger/mfgledgerd/projection"
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

type fakePermissions struct{}

func (fakePermissions) HasPermission(signer string, permission string, recordOwner string) (bool, error) {
	return "signer-1" == signer, nil
}

type fakeSchemas struct{}

func (fakeSchemas) GetSchema(name string) (*handler.Schema, error) {
	return &handler.Schema{
		Name: name,
		Properties: []handler.PropertySchema{
			{Name: "description", DataType: batchrecord.String, Required: true},
			{Name: "count", DataType: batchrecord.Number},
		},
	}, nil
}

type fakeOrganizations struct{}

func (fakeOrganizations) GetOrganization(id string) (*handler.Organization, error) {
	return &handler.Organization{
		Id: id,
		AlternateIds: []handler.AlternateId{
			{IdType: handler.CompanyPrefixIdType, Id: "688955"},
		},
	}, nil
}

func setupConsumer(t *testing.T) *projection.Store {
	t.Helper()

	store, err := projection.Open(projection.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	state := &memoryState{entries: map[string][]byte{}}
	h := handler.New(state, fakePermissions{}, fakeSchemas{}, fakeOrganizations{})

	require.NoError(t, consumer.Initialise(state, h, store, nil))
	t.Cleanup(func() { _ = consumer.Finalise() })

	return store
}

func packedPayload(t *testing.T, payload *batchrecord.Payload) batchrecord.Packed {
	t.Helper()
	packed, err := payload.Pack()
	require.NoError(t, err)
	return packed
}

func createMutation(t *testing.T, commit int64) consumer.Mutation {
	return consumer.Mutation{
		Signer: "signer-1",
		Commit: commit,
		Payload: packedPayload(t, &batchrecord.Payload{
			Action:    batchrecord.CreateBatch,
			Timestamp: 1609459200,
			Create: &batchrecord.CreateAction{
				BatchId:   "688955434684",
				Namespace: batchrecord.GS1,
				Owner:     "org-1",
				Properties: []batchrecord.PropertyValue{
					{Name: "description", DataType: batchrecord.String, StringValue: "Lot A"},
				},
			},
		}),
	}
}

func TestApplyLifecycle(t *testing.T) {
	store := setupConsumer(t)
	ctx := context.Background()

	require.NoError(t, consumer.Apply(createMutation(t, 5)))

	entity, err := store.Get(ctx, "688955434684", "")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "org-1", entity.Owner)
	assert.Equal(t, int64(5), entity.StartCommit)

	update := consumer.Mutation{
		Signer: "signer-1",
		Commit: 7,
		Payload: packedPayload(t, &batchrecord.Payload{
			Action:    batchrecord.UpdateBatch,
			Timestamp: 1609459300,
			Update: &batchrecord.UpdateAction{
				BatchId:   "688955434684",
				Namespace: batchrecord.GS1,
				Properties: []batchrecord.PropertyValue{
					{Name: "description", DataType: batchrecord.String, StringValue: "Lot B"},
				},
			},
		}),
	}
	require.NoError(t, consumer.Apply(update))

	entity, err = store.Get(ctx, "688955434684", "")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, int64(7), entity.StartCommit)
	require.Len(t, entity.Properties, 1)
	assert.Equal(t, "Lot B", entity.Properties[0].StringValue)

	del := consumer.Mutation{
		Signer: "signer-1",
		Commit: 9,
		Payload: packedPayload(t, &batchrecord.Payload{
			Action:    batchrecord.DeleteBatch,
			Timestamp: 1609459400,
			Delete: &batchrecord.DeleteAction{
				BatchId:   "688955434684",
				Namespace: batchrecord.GS1,
			},
		}),
	}
	require.NoError(t, consumer.Apply(del))

	entity, err = store.Get(ctx, "688955434684", "")
	require.NoError(t, err)
	assert.Nil(t, entity)

	commit, err := store.Checkpoint(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(9), commit)
}

func TestApplyRejected(t *testing.T) {
	store := setupConsumer(t)

	rejected := createMutation(t, 5)
	rejected.Signer = "intruder"

	err := consumer.Apply(rejected)
	require.Error(t, err)
	assert.True(t, fault.IsErrInvalid(err))

	// nothing reached the projection
	entity, err := store.Get(context.Background(), "688955434684", "")
	require.NoError(t, err)
	assert.Nil(t, entity)

	commit, err := store.Checkpoint(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), commit)
}

func TestSubmit(t *testing.T) {
	store := setupConsumer(t)

	consumer.Submit(createMutation(t, 5))

	deadline := time.Now().Add(5 * time.Second)
	for {
		entity, err := store.Get(context.Background(), "688955434684", "")
		require.NoError(t, err)
		if nil != entity {
			assert.Equal(t, int64(5), entity.StartCommit)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("submitted mutation was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDoubleInitialise(t *testing.T) {
	setupConsumer(t)

	err := consumer.Initialise(&memoryState{entries: map[string][]byte{}}, nil, nil, nil)
	assert.Equal(t, fault.ErrAlreadyInitialised, err)
}

// a projection outage is retryable: the error carries the transient
// class the feed loop branches on, and the ledger write stays intact
// so only the mirror step needs re-running
func TestApplyTransientWhenProjectionDown(t *testing.T) {
	store, err := projection.Open(projection.DialectSQLite, ":memory:")
	require.NoError(t, err)

	state := &memoryState{entries: map[string][]byte{}}
	h := handler.New(state, fakePermissions{}, fakeSchemas{}, fakeOrganizations{})
	require.NoError(t, consumer.Initialise(state, h, store, nil))
	t.Cleanup(func() { _ = consumer.Finalise() })

	// the backend goes away before the mutation arrives
	require.NoError(t, store.Close())

	err = consumer.Apply(createMutation(t, 5))
	require.Error(t, err)
	assert.True(t, fault.IsErrTransient(err), "retryable class")
	assert.False(t, fault.IsErrInvalid(err), "not an input rejection")

	// the ledger state was already written
	entity, err := batchstate.Get(state, "688955434684")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "org-1", entity.Owner)
}
