// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"fmt"
	"strings"

	"github.com/mfgledger/mfgledgerd/fault"
)

// Namespace - identifier scheme enumeration for a batch
type Namespace uint64

// possible namespace values
const (
	UnsetNamespace   Namespace = iota // this must be the first value
	GS1              Namespace = iota
	maximumNamespace Namespace = iota // this must be the last value
)

// internal conversion
func namespaceToString(namespace Namespace) (string, error) {
	switch namespace {
	case GS1:
		return "GS1", nil
	default:
		return "", fault.ErrInvalidBatchNamespace
	}
}

// NamespaceFromString - convert a symbol to a namespace
func NamespaceFromString(in string) (Namespace, error) {
	switch strings.ToUpper(in) {
	case "GS1":
		return GS1, nil
	default:
		return UnsetNamespace, fault.ErrInvalidBatchNamespace
	}
}

// NamespaceFromUint64 - convert a wire value to a namespace
func NamespaceFromUint64(value uint64) (Namespace, error) {
	namespace := Namespace(value)
	if !namespace.IsValid() {
		return UnsetNamespace, fault.ErrInvalidBatchNamespace
	}
	return namespace, nil
}

// String - convert a namespace to its symbol
func (namespace Namespace) String() string {
	s, err := namespaceToString(namespace)
	if nil != err {
		return fmt.Sprintf("*namespace:%d*", uint64(namespace))
	}
	return s
}

// GoString - enum value and symbol, for debugging
func (namespace Namespace) GoString() string {
	return fmt.Sprintf("<Namespace#%d:%q>", uint64(namespace), namespace.String())
}

// IsValid - a namespace inside the enumerated range
func (namespace Namespace) IsValid() bool {
	return namespace > UnsetNamespace && namespace < maximumNamespace
}

// Uint64 - the wire value
func (namespace Namespace) Uint64() uint64 {
	return uint64(namespace)
}

// MarshalText - convert a namespace into JSON
func (namespace Namespace) MarshalText() ([]byte, error) {
	s, err := namespaceToString(namespace)
	if nil != err {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText - convert a namespace symbol from JSON
func (namespace *Namespace) UnmarshalText(s []byte) error {
	n, err := NamespaceFromString(string(s))
	if nil != err {
		return err
	}
	*namespace = n
	return nil
}
