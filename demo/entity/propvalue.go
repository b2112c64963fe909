// This file defines the decoded value union for a single SendProp read
// (spec Design Note §9: "naturally expressed as a tagged variant over a
// closed set {Int, Float, Vector, VectorXY, String, Array, DataTable,
// Int64}; flags are a bitset, not a subclass axis").

package entity

import (
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
)

// PropValue is a decoded SendProp value. Exactly one of the typed fields
// is meaningful, selected by Type.
type PropValue struct {
	Type datatable.PropType

	Int      int64
	Float    float32
	Vector   common.Vector
	VectorXY common.VectorXY
	Bytes    []byte
	Array    []PropValue
}

func intValue(v int64) PropValue {
	return PropValue{Type: datatable.PropTypeInt, Int: v}
}

func floatValue(v float32) PropValue {
	return PropValue{Type: datatable.PropTypeFloat, Float: v}
}

func vectorValue(v common.Vector) PropValue {
	return PropValue{Type: datatable.PropTypeVector, Vector: v}
}

func vectorXYValue(v common.VectorXY) PropValue {
	return PropValue{Type: datatable.PropTypeVectorXY, VectorXY: v}
}

func stringValue(b []byte) PropValue {
	return PropValue{Type: datatable.PropTypeString, Bytes: b}
}

func int64Value(v int64) PropValue {
	return PropValue{Type: datatable.PropTypeInt64, Int: v}
}

func arrayValue(elems []PropValue) PropValue {
	return PropValue{Type: datatable.PropTypeArray, Array: elems}
}
