package ir

import "fmt"

// VarID names an inference variable. Allocation and resolution live in
// the infer package; ir only needs a comparable handle to embed in
// terms, lifetimes and consts.
type VarID uint32

func (v VarID) String() string { return fmt.Sprintf("?%d", uint32(v)) }

// TyKind narrows what an InferenceVar of kind Ty may ultimately bind
// to: chalk gives integer and float literals their own inference-var
// kind so `0` can default to i32 without ever unifying with a struct.
type TyKind int

const (
	// TyKindGeneral is an ordinary, unconstrained type variable.
	TyKindGeneral TyKind = iota
	// TyKindInteger may only bind to an integer type.
	TyKindInteger
	// TyKindFloat may only bind to a floating-point type.
	TyKindFloat
)

func (k TyKind) String() string {
	switch k {
	case TyKindInteger:
		return "int"
	case TyKindFloat:
		return "float"
	default:
		return "general"
	}
}
