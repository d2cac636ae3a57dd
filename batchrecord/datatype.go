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

// DataType - the tagged union discriminant of a property value
type DataType uint64

// possible data type values
const (
	UnsetDataType   DataType = iota // this must be the first value
	Bytes           DataType = iota
	Boolean         DataType = iota
	Number          DataType = iota
	String          DataType = iota
	Enum            DataType = iota
	LatLongType     DataType = iota
	Struct          DataType = iota
	maximumDataType DataType = iota // this must be the last value
)

// internal conversion
func dataTypeToString(dataType DataType) (string, error) {
	switch dataType {
	case Bytes:
		return "BYTES", nil
	case Boolean:
		return "BOOLEAN", nil
	case Number:
		return "NUMBER", nil
	case String:
		return "STRING", nil
	case Enum:
		return "ENUM", nil
	case LatLongType:
		return "LAT_LONG", nil
	case Struct:
		return "STRUCT", nil
	default:
		return "", fault.ErrInvalidDataType
	}
}

// DataTypeFromString - convert a symbol to a data type
func DataTypeFromString(in string) (DataType, error) {
	switch strings.ToUpper(in) {
	case "BYTES":
		return Bytes, nil
	case "BOOLEAN":
		return Boolean, nil
	case "NUMBER":
		return Number, nil
	case "STRING":
		return String, nil
	case "ENUM":
		return Enum, nil
	case "LAT_LONG":
		return LatLongType, nil
	case "STRUCT":
		return Struct, nil
	default:
		return UnsetDataType, fault.ErrInvalidDataType
	}
}

// DataTypeFromUint64 - convert a wire value to a data type
func DataTypeFromUint64(value uint64) (DataType, error) {
	dataType := DataType(value)
	if !dataType.IsValid() {
		return UnsetDataType, fault.ErrInvalidDataType
	}
	return dataType, nil
}

// String - convert a data type to its symbol
func (dataType DataType) String() string {
	s, err := dataTypeToString(dataType)
	if nil != err {
		return fmt.Sprintf("*datatype:%d*", uint64(dataType))
	}
	return s
}

// GoString - enum value and symbol, for debugging
func (dataType DataType) GoString() string {
	return fmt.Sprintf("<DataType#%d:%q>", uint64(dataType), dataType.String())
}

// IsValid - a data type inside the enumerated range
func (dataType DataType) IsValid() bool {
	return dataType > UnsetDataType && dataType < maximumDataType
}

// Uint64 - the wire value
func (dataType DataType) Uint64() uint64 {
	return uint64(dataType)
}

// MarshalText - convert a data type into JSON
func (dataType DataType) MarshalText() ([]byte, error) {
	s, err := dataTypeToString(dataType)
	if nil != err {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText - convert a data type symbol from JSON
func (dataType *DataType) UnmarshalText(s []byte) error {
	d, err := DataTypeFromString(string(s))
	if nil != err {
		return err
	}
	*dataType = d
	return nil
}
