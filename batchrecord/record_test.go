// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord_test

import (
	"testing"

	"github.com/mfgledger/mfgledgerd/batchrecord"
	"github.com/mfgledger/mfgledgerd/fault"
)

// helper: a current-version property with one scalar slot filled
func stringProperty(name string, value string, startCommit int64) batchrecord.PropertyValue {
	return batchrecord.PropertyValue{
		Name:        name,
		DataType:    batchrecord.String,
		StringValue: value,
		StartCommit: startCommit,
		EndCommit:   batchrecord.MaxCommitNumber,
	}
}

func numberProperty(name string, value int64, startCommit int64) batchrecord.PropertyValue {
	return batchrecord.PropertyValue{
		Name:        name,
		DataType:    batchrecord.Number,
		NumberValue: value,
		StartCommit: startCommit,
		EndCommit:   batchrecord.MaxCommitNumber,
	}
}

func TestNewBatchEntity(t *testing.T) {

	properties := []batchrecord.PropertyValue{
		stringProperty("description", "Lot A", 5),
		numberProperty("count", 10, 5),
	}

	entity, err := batchrecord.NewBatchEntity("00012345000057", batchrecord.GS1, "org-1", properties, 5, batchrecord.MaxCommitNumber, "")
	if nil != err {
		t.Fatalf("NewBatchEntity error: %s", err)
	}
	if "00012345000057" != entity.BatchId || "org-1" != entity.Owner {
		t.Errorf("unexpected entity: %#v", entity)
	}
}

// each missing field must surface as its own named error
func TestNewBatchEntityMissingFields(t *testing.T) {

	items := []struct {
		batchId   string
		namespace batchrecord.Namespace
		owner     string
		start     int64
		end       int64
		err       error
	}{
		{"", batchrecord.GS1, "org-1", 1, 2, fault.ErrMissingBatchId},
		{"1234", batchrecord.UnsetNamespace, "org-1", 1, 2, fault.ErrInvalidBatchNamespace},
		{"1234", batchrecord.GS1, "", 1, 2, fault.ErrMissingOwner},
		{"1234", batchrecord.GS1, "org-1", 2, 2, fault.ErrInvalidCommitInterval},
		{"1234", batchrecord.GS1, "org-1", 3, 2, fault.ErrInvalidCommitInterval},
	}

	for i, item := range items {
		_, err := batchrecord.NewBatchEntity(item.batchId, item.namespace, item.owner, nil, item.start, item.end, "")
		if item.err != err {
			t.Errorf("%d: error: %v  expected: %v", i, err, item.err)
		}
		if !fault.IsErrInvalid(err) {
			t.Errorf("%d: builder error is not an input error: %v", i, err)
		}
	}
}

func TestNewPropertyValue(t *testing.T) {

	_, err := batchrecord.NewPropertyValue("", batchrecord.String, 1, 2, "")
	if fault.ErrMissingPropertyName != err {
		t.Errorf("error: %v  expected: %v", err, fault.ErrMissingPropertyName)
	}

	_, err = batchrecord.NewPropertyValue("description", batchrecord.UnsetDataType, 1, 2, "")
	if fault.ErrMissingDataType != err {
		t.Errorf("error: %v  expected: %v", err, fault.ErrMissingDataType)
	}

	_, err = batchrecord.NewPropertyValue("description", batchrecord.String, 7, 7, "")
	if fault.ErrInvalidCommitInterval != err {
		t.Errorf("error: %v  expected: %v", err, fault.ErrInvalidCommitInterval)
	}
}

// a struct property must carry children; a scalar one must not
func TestPropertyValueSlotDiscipline(t *testing.T) {

	p := stringProperty("description", "Lot A", 1)
	p.StructValues = []batchrecord.PropertyValue{numberProperty("count", 1, 1)}
	if fault.ErrWrongValueForDataType != p.Validate() {
		t.Errorf("scalar with children: error: %v  expected: %v", p.Validate(), fault.ErrWrongValueForDataType)
	}

	s := batchrecord.PropertyValue{
		Name:        "origin",
		DataType:    batchrecord.Struct,
		StartCommit: 1,
		EndCommit:   batchrecord.MaxCommitNumber,
	}
	if fault.ErrWrongValueForDataType != s.Validate() {
		t.Errorf("empty struct: error: %v  expected: %v", s.Validate(), fault.ErrWrongValueForDataType)
	}
}

func TestRecordListMerge(t *testing.T) {

	e1, err := batchrecord.NewBatchEntity("0123", batchrecord.GS1, "org-1", []batchrecord.PropertyValue{stringProperty("description", "first", 1)}, 1, batchrecord.MaxCommitNumber, "")
	if nil != err {
		t.Fatalf("entity error: %s", err)
	}
	e2, err := batchrecord.NewBatchEntity("123", batchrecord.GS1, "org-2", []batchrecord.PropertyValue{stringProperty("description", "second", 2)}, 2, batchrecord.MaxCommitNumber, "")
	if nil != err {
		t.Fatalf("entity error: %s", err)
	}

	// merge keeps sort order regardless of insertion order
	list := batchrecord.RecordList{}.Merge(*e2).Merge(*e1)
	if 2 != len(list) {
		t.Fatalf("list length: %d  expected: 2", len(list))
	}
	if "0123" != list[0].BatchId || "123" != list[1].BatchId {
		t.Errorf("list order: %q, %q  expected: 0123, 123", list[0].BatchId, list[1].BatchId)
	}

	// replace in place, no duplicate
	e1.Owner = "org-9"
	list = list.Merge(*e1)
	if 2 != len(list) {
		t.Fatalf("list length after replace: %d  expected: 2", len(list))
	}
	found, ok := list.Find("0123")
	if !ok || "org-9" != found.Owner {
		t.Errorf("replace lost the update: %#v", found)
	}

	list = list.Without("0123")
	if 1 != len(list) || "123" != list[0].BatchId {
		t.Errorf("unexpected remainder: %#v", list)
	}
}
