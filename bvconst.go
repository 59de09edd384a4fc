package gosl

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

var zero = big.NewInt(0)
var one = big.NewInt(1)

// BVConst is a concrete bit-vector value, used for per-node data in models.
type BVConst struct {
	Size  uint
	mask  *big.Int
	value *big.Int
}

func makeMask(size uint) *big.Int {
	v := big.NewInt(1)
	v.Lsh(v, size)
	return v.Sub(v, one)
}

func MakeBVConst(value int64, size uint) *BVConst {
	return MakeBVConstFromBigint(big.NewInt(value), size)
}

func MakeBVConstFromBigint(value *big.Int, size uint) *BVConst {
	if size == 0 {
		return nil
	}

	mask := makeMask(size)
	v := new(big.Int).Set(value)
	if v.Cmp(zero) < 0 {
		v.Neg(v)
		v.Sub(v, one)
		v.Sub(mask, v)
	}
	v.And(v, mask)
	return &BVConst{Size: size, mask: mask, value: v}
}

// MakeBVConstFromString parses s in the given base, returns nil if s is not a
// number.
func MakeBVConstFromString(s string, base int, size uint) *BVConst {
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil
	}
	return MakeBVConstFromBigint(v, size)
}

func (bv *BVConst) IsNegative() bool {
	return bv.value.Bit(int(bv.Size)-1) == 1
}

func (bv *BVConst) IsZero() bool {
	return bv.value.Cmp(zero) == 0
}

func (bv *BVConst) Copy() *BVConst {
	return &BVConst{
		Size:  bv.Size,
		mask:  new(big.Int).Set(bv.mask),
		value: new(big.Int).Set(bv.value),
	}
}

func (bv *BVConst) String() string {
	return fmt.Sprintf("<BV%d 0x%x>", bv.Size, bv.value)
}

// Key is a compact textual form used to index function tables.
func (bv *BVConst) Key() string {
	return fmt.Sprintf("#%d:%x", bv.Size, bv.value)
}

func (bv *BVConst) BigInt() *big.Int {
	return new(big.Int).Set(bv.value)
}

func (bv *BVConst) AsULong() uint64 {
	// if the value does not fit, the result is undefined
	return bv.value.Uint64()
}

func (bv *BVConst) AsLong() int64 {
	if !bv.IsNegative() {
		return bv.value.Int64()
	}
	c := bv.Copy()
	c.Neg()
	return -int64(c.AsULong())
}

func (bv *BVConst) Not() {
	bv.value.Not(bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) Neg() {
	bv.value.Sub(bv.value, one)
	bv.value.Sub(bv.mask, bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) checkSize(o *BVConst) error {
	if bv.Size != o.Size {
		return errors.Errorf("different sizes %d and %d", bv.Size, o.Size)
	}
	return nil
}

func (bv *BVConst) Add(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Add(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Mul(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Mul(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) And(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.And(bv.value, o.value)
	return nil
}

func (bv *BVConst) Or(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Or(bv.value, o.value)
	return nil
}

func (bv *BVConst) Xor(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Xor(bv.value, o.value)
	return nil
}

func (bv *BVConst) Concat(o *BVConst) {
	bv.Size += o.Size
	bv.mask = makeMask(bv.Size)
	bv.value.Lsh(bv.value, o.Size)
	bv.value.Or(bv.value, o.value)
}

func (bv *BVConst) Slice(high uint, low uint) *BVConst {
	if high < low || high >= bv.Size {
		return nil
	}

	res := MakeBVConst(0, high-low+1)
	res.value.Rsh(bv.value, low)
	res.value.And(res.value, res.mask)
	return res
}

func (bv *BVConst) ZExt(bits uint) {
	bv.Size += bits
	bv.mask = makeMask(bv.Size)
}

func (bv *BVConst) Eq(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.value.Cmp(o.value) == 0}, nil
}

func (bv *BVConst) UGt(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.value.Cmp(o.value) > 0}, nil
}

func (bv *BVConst) UGe(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.value.Cmp(o.value) >= 0}, nil
}

func (bv *BVConst) Ult(o *BVConst) (BoolConst, error) {
	v, err := bv.UGe(o)
	return v.Not(), err
}

func (bv *BVConst) Ule(o *BVConst) (BoolConst, error) {
	v, err := bv.UGt(o)
	return v.Not(), err
}

func (bv *BVConst) SGt(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}

	if bv.IsNegative() != o.IsNegative() {
		return BoolConst{o.IsNegative()}, nil
	}
	// same sign: the unsigned order agrees with the signed one
	return BoolConst{bv.value.Cmp(o.value) > 0}, nil
}

func (bv *BVConst) SGe(o *BVConst) (BoolConst, error) {
	v, err := bv.Eq(o)
	if err != nil || v.Value {
		return v, err
	}
	return bv.SGt(o)
}

func (bv *BVConst) SLt(o *BVConst) (BoolConst, error) {
	v, err := bv.SGe(o)
	return v.Not(), err
}

func (bv *BVConst) SLe(o *BVConst) (BoolConst, error) {
	v, err := bv.SGt(o)
	return v.Not(), err
}
