package utils

import (
	"github.com/go-gl/mathgl/mgl64"
)

// RowNorms returns the lengths of the rows of the upper-left 3x3 block.
func RowNorms(m mgl64.Mat4) mgl64.Vec3 {
	var r mgl64.Vec3
	for i := 0; i < 3; i++ {
		r[i] = mgl64.Vec3{m.At(i, 0), m.At(i, 1), m.At(i, 2)}.Len()
	}
	return r
}

// ColNorms returns the lengths of the columns of the upper-left 3x3 block.
func ColNorms(m mgl64.Mat4) mgl64.Vec3 {
	var r mgl64.Vec3
	for i := 0; i < 3; i++ {
		r[i] = m.Col(i).Vec3().Len()
	}
	return r
}

func TranslationOf(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

func TransformPoint(m mgl64.Mat4, v mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// Vec3FromFloats converts the first three values of fs, missing ones stay zero.
func Vec3FromFloats(fs []float64) mgl64.Vec3 {
	var v mgl64.Vec3
	copy(v[:], fs)
	return v
}

func Mat4ToFloat32(m mgl64.Mat4) [16]float32 {
	var r [16]float32
	for i, v := range m {
		r[i] = float32(v)
	}
	return r
}
