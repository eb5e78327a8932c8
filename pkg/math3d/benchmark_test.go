package math3d

import "testing"

var benchModel = EulerXYZ(0.2, 0.7, -0.1).Mul(ScaleUniform(1.5))

func BenchmarkMat4Mul(b *testing.B) {
	view, _ := LookAt(V3(3, 1, 4), V3(0, 0, 0), Up())

	for b.Loop() {
		_ = view.Mul(benchModel)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	p := Point(V3(-0.25, 0.75, 0.1))

	for b.Loop() {
		_ = benchModel.MulVec4(p)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(-4, 0.5, 2)).Mul(benchModel)

	for b.Loop() {
		_, _ = m.Inverse()
	}
}

func BenchmarkNormalMatrix(b *testing.B) {
	for b.Loop() {
		_, _ = benchModel.NormalMatrix()
	}
}

func BenchmarkLookAt(b *testing.B) {
	for b.Loop() {
		_, _ = LookAt(V3(2, 3, 7), V3(0, 0.5, 0), Up())
	}
}

// BenchmarkClipTransform is the per-vertex path: MVP, divide, viewport.
func BenchmarkClipTransform(b *testing.B) {
	view, _ := LookAt(V3(0, 0, 5), V3(0, 0, 0), Up())
	mvp := Perspective(1, 1, 1.8, 10).Mul(view).Mul(benchModel)
	vp := Viewport(800, 800)
	p := Point(V3(0.5, -0.5, 0.25))

	for b.Loop() {
		_ = vp.MulVec4(mvp.MulVec4(p).PerspectiveDivide())
	}
}
