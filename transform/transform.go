// Package transform resolves FBX node transforms (pivots, offsets,
// pre/post rotations and inherit types) into a local 4x4 matrix.
package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/utils"
)

var ErrSingularMatrix = errors.New("singular matrix")

// compared against |det| divided by the product of the column lengths
const singularEpsilon = 1e-12

// EulerOrder lists rotation axes left to right as matrix factors:
// "ZYX" composes Rz * Ry * Rx, so X is applied to a point first.
type EulerOrder string

const (
	ZYX EulerOrder = "ZYX"
	YZX EulerOrder = "YZX"
	XZY EulerOrder = "XZY"
	ZXY EulerOrder = "ZXY"
	YXZ EulerOrder = "YXZ"
	XYZ EulerOrder = "XYZ"
)

// EulerOrders is indexed by the FBX RotationOrder enum.
var EulerOrders = [...]EulerOrder{ZYX, YZX, XZY, ZXY, YXZ, XYZ}

func EulerOrderFromIndex(i int64) (EulerOrder, bool) {
	if i < 0 || i >= int64(len(EulerOrders)) {
		return ZYX, false
	}
	return EulerOrders[i], true
}

type InheritType int

const (
	InheritRrSs InheritType = 0
	InheritRrs  InheritType = 1
	InheritRSrs InheritType = 2
)

func (it InheritType) String() string {
	switch it {
	case InheritRrSs:
		return "RrSs"
	case InheritRrs:
		return "Rrs"
	case InheritRSrs:
		return "RSrs"
	}
	return "unknown"
}

// Spec holds the transform related properties of one node.
// Nil vectors are absent and leave their matrix as identity.
type Spec struct {
	Translation    *mgl64.Vec3
	PreRotation    *mgl64.Vec3 // degrees
	Rotation       *mgl64.Vec3 // degrees
	PostRotation   *mgl64.Vec3 // degrees
	Scale          *mgl64.Vec3
	ScalingOffset  *mgl64.Vec3
	ScalingPivot   *mgl64.Vec3
	RotationOffset *mgl64.Vec3
	RotationPivot  *mgl64.Vec3

	EulerOrder  EulerOrder
	InheritType InheritType

	ParentLocal *mgl64.Mat4
	ParentWorld *mgl64.Mat4
}

// EulerMatrix builds a rotation from angles in degrees, one per axis.
func EulerMatrix(angles mgl64.Vec3, order EulerOrder) mgl64.Mat4 {
	if order == "" {
		order = ZYX
	}
	m := mgl64.Ident4()
	for _, axis := range order {
		switch axis {
		case 'X':
			m = m.Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(angles[0])))
		case 'Y':
			m = m.Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(angles[1])))
		case 'Z':
			m = m.Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(angles[2])))
		}
	}
	return m
}

func translation(v *mgl64.Vec3) mgl64.Mat4 {
	if v == nil {
		return mgl64.Ident4()
	}
	return mgl64.Translate3D(v[0], v[1], v[2])
}

func negTranslation(v *mgl64.Vec3) mgl64.Mat4 {
	if v == nil {
		return mgl64.Ident4()
	}
	return mgl64.Translate3D(-v[0], -v[1], -v[2])
}

func rotation(v *mgl64.Vec3, order EulerOrder) mgl64.Mat4 {
	if v == nil {
		return mgl64.Ident4()
	}
	return EulerMatrix(*v, order)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func checkScale(v mgl64.Vec3, what string) error {
	for i, f := range v {
		if f == 0 || !finite(f) {
			return errors.Wrapf(ErrSingularMatrix, "%s axis %d is %v", what, i, f)
		}
	}
	return nil
}

func inverse(m mgl64.Mat4, what string) (mgl64.Mat4, error) {
	det := m.Det()
	cn := utils.ColNorms(m)
	volume := cn[0] * cn[1] * cn[2]
	if volume == 0 || !finite(det) || !finite(volume) || math.Abs(det) <= singularEpsilon*volume {
		return mgl64.Mat4{}, errors.Wrapf(ErrSingularMatrix, "%s (det %v)", what, det)
	}
	inv := m.Inv()
	for _, f := range inv {
		if !finite(f) {
			return mgl64.Mat4{}, errors.Wrapf(ErrSingularMatrix, "%s (det %v)", what, det)
		}
	}
	return inv, nil
}

// Resolve computes the node matrix relative to its parent.
func Resolve(s Spec) (mgl64.Mat4, error) {
	order := s.EulerOrder
	if order == "" {
		order = ZYX
	}

	lTranslation := translation(s.Translation)
	lPreRotation := rotation(s.PreRotation, order)
	lRotation := rotation(s.Rotation, order)
	// rotation matrices are orthonormal, the inverse is the transpose
	lPostRotation := rotation(s.PostRotation, order).Transpose()
	lScaling := mgl64.Ident4()
	if s.Scale != nil {
		if err := checkScale(*s.Scale, "scale"); err != nil {
			return mgl64.Mat4{}, err
		}
		lScaling = mgl64.Scale3D(s.Scale[0], s.Scale[1], s.Scale[2])
	}
	lScalingOffset := translation(s.ScalingOffset)
	lScalingPivot := translation(s.ScalingPivot)
	lRotationOffset := translation(s.RotationOffset)
	lRotationPivot := translation(s.RotationPivot)

	lParentGX := mgl64.Ident4()
	lParentLX := mgl64.Ident4()
	if s.ParentWorld != nil {
		lParentGX = *s.ParentWorld
	}
	if s.ParentLocal != nil {
		lParentLX = *s.ParentLocal
	}

	lLRM := lPreRotation.Mul4(lRotation).Mul4(lPostRotation)

	// parent rotation: upper block with unit length rows
	lParentGRM := mgl64.Ident4()
	rowNorms := utils.RowNorms(lParentGX)
	for row := 0; row < 3; row++ {
		if rowNorms[row] == 0 {
			return mgl64.Mat4{}, errors.Wrapf(ErrSingularMatrix, "parent world row %d is zero", row)
		}
		for col := 0; col < 3; col++ {
			lParentGRM.Set(row, col, lParentGX.At(row, col)/rowNorms[row])
		}
	}
	parentT := utils.TranslationOf(lParentGX)
	lParentGRSM := mgl64.Translate3D(-parentT[0], -parentT[1], -parentT[2]).Mul4(lParentGX)
	lParentGRMInv, err := inverse(lParentGRM, "parent rotation")
	if err != nil {
		return mgl64.Mat4{}, err
	}
	lParentGSM := lParentGRMInv.Mul4(lParentGRSM)

	var lGlobalRS mgl64.Mat4
	switch s.InheritType {
	case InheritRrSs:
		lGlobalRS = lParentGRM.Mul4(lLRM).Mul4(lParentGSM).Mul4(lScaling)
	case InheritRrs:
		lGlobalRS = lParentGRM.Mul4(lParentGSM).Mul4(lLRM).Mul4(lScaling)
	default:
		cn := utils.ColNorms(lParentLX)
		if err := checkScale(cn, "parent local scale"); err != nil {
			return mgl64.Mat4{}, err
		}
		lParentLSMInv := mgl64.Scale3D(1/cn[0], 1/cn[1], 1/cn[2])
		lParentGSMNoLocal := lParentGSM.Mul4(lParentLSMInv)
		lGlobalRS = lParentGRM.Mul4(lLRM).Mul4(lParentGSMNoLocal).Mul4(lScaling)
	}

	lTransform := lTranslation.
		Mul4(lRotationOffset).
		Mul4(lRotationPivot).
		Mul4(lPreRotation).
		Mul4(lRotation).
		Mul4(lPostRotation).
		Mul4(negTranslation(s.RotationPivot)).
		Mul4(lScalingOffset).
		Mul4(lScalingPivot).
		Mul4(lScaling).
		Mul4(negTranslation(s.ScalingPivot))

	localT := utils.TranslationOf(lTransform)
	lGlobalTranslation := lParentGX.Mul4(mgl64.Translate3D(localT[0], localT[1], localT[2]))
	globalT := utils.TranslationOf(lGlobalTranslation)
	lGlobalT := mgl64.Translate3D(globalT[0], globalT[1], globalT[2])

	lParentGXInv, err := inverse(lParentGX, "parent world")
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return lParentGXInv.Mul4(lGlobalT).Mul4(lGlobalRS), nil
}
