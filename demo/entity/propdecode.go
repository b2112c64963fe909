// This file decodes one SendProp's value off the bit stream, selecting
// among the Coord/CoordMp/Normal/NoScale/bit-coord-scaled float encodings
// by the prop's flags (spec §4.1), and recursing for Array elements.

package entity

import (
	"math"

	"github.com/icza/demorec/bitstream"
	"github.com/icza/demorec/demo/common"
	"github.com/icza/demorec/demo/datatable"
)

const stringLengthBits = 9

func decodeProp(r *bitstream.Reader, prop *datatable.SendProp) (PropValue, error) {
	switch prop.Type {
	case datatable.PropTypeInt:
		return decodeInt(r, prop)

	case datatable.PropTypeFloat:
		f, err := decodeFloat(r, prop)
		if err != nil {
			return PropValue{}, err
		}
		return floatValue(f), nil

	case datatable.PropTypeVector:
		v, err := decodeVector(r, prop)
		if err != nil {
			return PropValue{}, err
		}
		return vectorValue(v), nil

	case datatable.PropTypeVectorXY:
		x, err := decodeFloat(r, prop)
		if err != nil {
			return PropValue{}, err
		}
		y, err := decodeFloat(r, prop)
		if err != nil {
			return PropValue{}, err
		}
		return vectorXYValue(common.VectorXY{X: x, Y: y}), nil

	case datatable.PropTypeString:
		n, err := r.ReadBits(stringLengthBits)
		if err != nil {
			return PropValue{}, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return PropValue{}, err
		}
		return stringValue(b), nil

	case datatable.PropTypeInt64:
		bits := prop.Bits
		if bits == 0 {
			bits = 64
		}
		if prop.Flags.Has(datatable.PropFlagUnsigned) {
			v, err := r.ReadBits(bits)
			if err != nil {
				return PropValue{}, err
			}
			return int64Value(int64(v)), nil
		}
		v, err := r.ReadSignedBits(bits)
		if err != nil {
			return PropValue{}, err
		}
		return int64Value(v), nil

	case datatable.PropTypeArray:
		return decodeArray(r, prop)

	default:
		return PropValue{}, common.NewParseError(common.KindMalformedSubField, "entity.prop", "unexpected DataTable prop in flattened list", nil)
	}
}

func decodeInt(r *bitstream.Reader, prop *datatable.SendProp) (PropValue, error) {
	bits := prop.Bits
	if bits == 0 {
		bits = 32
	}
	if prop.Flags.Has(datatable.PropFlagUnsigned) {
		v, err := r.ReadBits(bits)
		if err != nil {
			return PropValue{}, err
		}
		return intValue(int64(v)), nil
	}
	v, err := r.ReadSignedBits(bits)
	if err != nil {
		return PropValue{}, err
	}
	return intValue(v), nil
}

func decodeVector(r *bitstream.Reader, prop *datatable.SendProp) (common.Vector, error) {
	var v common.Vector
	var err error
	if v.X, err = decodeFloat(r, prop); err != nil {
		return v, err
	}
	if v.Y, err = decodeFloat(r, prop); err != nil {
		return v, err
	}
	if prop.Flags.Has(datatable.PropFlagXYZE) {
		// The Z component is reconstructed from X/Y on a unit sphere; the
		// wire only carries a sign bit for it.
		sign, err := r.ReadBit()
		if err != nil {
			return v, err
		}
		v.Z = zFromXY(v.X, v.Y, sign)
		return v, nil
	}
	v.Z, err = decodeFloat(r, prop)
	return v, err
}

func zFromXY(x, y float32, negative bool) float32 {
	lenSq := float64(x*x + y*y)
	if lenSq > 1 {
		lenSq = 1
	}
	z := float32(math.Sqrt(1 - lenSq))
	if negative {
		z = -z
	}
	return z
}

func decodeFloat(r *bitstream.Reader, prop *datatable.SendProp) (float32, error) {
	switch {
	case prop.Flags.Has(datatable.PropFlagCoordMP):
		return r.ReadCoordMP(coordMPKind(prop))
	case prop.Flags.Has(datatable.PropFlagCoord):
		return r.ReadCoord()
	case prop.Flags.Has(datatable.PropFlagNoScale):
		return r.ReadFloat32()
	case prop.Flags.Has(datatable.PropFlagNormal):
		return r.ReadNormal()
	default:
		roundDown := prop.Flags.Has(datatable.PropFlagRoundDown)
		return r.ReadBitCoordScaled(prop.Bits, prop.Low, prop.High, roundDown)
	}
}

func coordMPKind(prop *datatable.SendProp) bitstream.CoordMPKind {
	switch {
	case prop.Flags.Has(datatable.PropFlagCoordMPIntegral):
		return bitstream.CoordMPIntegral
	case prop.Flags.Has(datatable.PropFlagCoordMPLowPrecision):
		return bitstream.CoordMPLowPrecision
	default:
		return bitstream.CoordMPNormal
	}
}

func decodeArray(r *bitstream.Reader, prop *datatable.SendProp) (PropValue, error) {
	if prop.ArrayElementProp == nil || prop.ArrayNumElements <= 0 {
		return PropValue{}, common.NewParseError(common.KindMalformedSubField, "entity.prop", "array prop missing element descriptor", nil)
	}
	countBits := bitsFor(prop.ArrayNumElements + 1)
	n, err := r.ReadBits(countBits)
	if err != nil {
		return PropValue{}, err
	}
	elems := make([]PropValue, n)
	for i := range elems {
		v, err := decodeProp(r, prop.ArrayElementProp)
		if err != nil {
			return PropValue{}, err
		}
		elems[i] = v
	}
	return arrayValue(elems), nil
}

func bitsFor(n int) int {
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}
