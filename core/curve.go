package core

import "math"

// SolveParabola returns the position at parameter t ∈ [0,1] along a cable
// hung from start to end with the given sag. The low point of the curve sits
// hang below the lower endpoint. The second return value is false when no
// position is defined: a negative hang, a non-finite input, or a numeric
// domain error in the closed-form solve.
//
// The curve is a parabola in the vertical plane through both endpoints,
// parameterised by horizontal distance, so t is uniform in horizontal
// distance rather than in arc length.
func SolveParabola(start, end Vec3, hang, t float64) (Vec3, bool) {
	if hang < 0 || !isFinite(hang) || !isFinite(t) {
		return Vec3{}, false
	}
	if !start.IsFinite() || !end.IsFinite() {
		return Vec3{}, false
	}

	planar := end.Sub(start).Horizontal()
	dx := planar.Norm()
	dy := end.Y - start.Y
	k := math.Max(dy+hang, hang)

	// Taut line: nothing to sag.
	if k == 0 {
		return start.Lerp(end, t), true
	}

	if dx == 0 {
		// Vertical cable: solve a unit-width parabola and keep only its
		// vertical output.
		y := parabolaHeight(k, 1, dy, t)
		if !isFinite(y) {
			return Vec3{}, false
		}
		return start.Add(Up.Scale(y)), true
	}

	y := parabolaHeight(k, dx, dy, t)
	if !isFinite(y) {
		return Vec3{}, false
	}
	out := planar.Scale(t).Add(Up.Scale(y))
	return start.Add(out), true
}

// parabolaHeight evaluates y(x) = a(x-h)² + (dy-k) at x = t*dx, where a and h
// are chosen so that y(0) = 0 and y(dx) = dy and the vertex lies at dy-k.
func parabolaHeight(k, dx, dy, t float64) float64 {
	sa := (math.Sqrt(k) + math.Sqrt(k-dy)) / dx
	a := sa * sa
	h := math.Sqrt((k - dy) / a)

	x := t*dx - h
	return a*x*x + (dy - k)
}

// SampleCurve evaluates the solver at segments+1 evenly spaced parameters from
// 0 to 1 inclusive. It fails with ErrDegenerateCurve on the first undefined
// sample.
func SampleCurve(start, end Vec3, hang float64, segments int) ([]Vec3, error) {
	if segments <= 0 {
		return nil, errDegenerate("segment count %d must be positive", segments)
	}
	if hang < 0 {
		return nil, errDegenerate("negative hang %g", hang)
	}

	points := make([]Vec3, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		p, ok := SolveParabola(start, end, hang, t)
		if !ok {
			return nil, errDegenerate("undefined sample at t=%g", t)
		}
		points = append(points, p)
	}
	return points, nil
}

// SampleAlong maps t ∈ [0,1] onto a polyline by fractional index t*n and
// interpolates between the two bracketing samples. t is clamped to [0,1].
// At t=0 and t=1 the first and last samples are returned exactly.
func SampleAlong(points []Vec3, t float64) (Vec3, bool) {
	n := len(points) - 1
	if n < 0 {
		return Vec3{}, false
	}
	if n == 0 || t <= 0 {
		return points[0], true
	}
	if t >= 1 {
		return points[n], true
	}

	idx := t * float64(n)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if hi > n {
		hi = n
	}
	if lo == hi {
		return points[lo], true
	}
	return points[lo].Lerp(points[hi], idx-float64(lo)), true
}
