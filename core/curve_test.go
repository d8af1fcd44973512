package core

import (
	"math"
	"testing"
)

const tol = 1e-3

func near(a, b Vec3) bool {
	return a.DistanceTo(b) < tol
}

func TestSolveParabola_EndpointsExact(t *testing.T) {
	cases := []struct {
		name       string
		start, end Vec3
		hang       float64
	}{
		{"descending", Vec3{X: -2, Y: 4, Z: 5.2}, Vec3{X: 0, Y: -4.7, Z: -1.23}, 3},
		{"ascending", Vec3{}, Vec3{X: 10, Y: 3, Z: 4}, 1},
		{"level", Vec3{X: 1, Y: 1, Z: 1}, Vec3{X: 6, Y: 1, Z: 1}, 0.5},
		{"taut level", Vec3{}, Vec3{X: 4}, 0},
		{"taut rising", Vec3{}, Vec3{X: 4, Y: 2}, 0},
		{"coincident", Vec3{X: 5, Y: 4.2, Z: 2.04}, Vec3{X: 5, Y: 4.2, Z: 2.04}, 3},
		{"vertical", Vec3{}, Vec3{Y: 1}, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, ok := SolveParabola(tc.start, tc.end, tc.hang, 0)
			if !ok {
				t.Fatalf("t=0 undefined")
			}
			end, ok := SolveParabola(tc.start, tc.end, tc.hang, 1)
			if !ok {
				t.Fatalf("t=1 undefined")
			}
			if !near(start, tc.start) {
				t.Errorf("t=0 got %+v, want %+v", start, tc.start)
			}
			if !near(end, tc.end) {
				t.Errorf("t=1 got %+v, want %+v", end, tc.end)
			}
		})
	}
}

func TestSolveParabola_TautLevelIsLinear(t *testing.T) {
	start := Vec3{X: 1, Y: 2, Z: 3}
	end := Vec3{X: 7, Y: 2, Z: -5}
	for i := 0; i <= 20; i++ {
		tt := float64(i) / 20
		got, ok := SolveParabola(start, end, 0, tt)
		if !ok {
			t.Fatalf("t=%g undefined", tt)
		}
		if want := start.Lerp(end, tt); got != want {
			t.Fatalf("t=%g got %+v, want exact lerp %+v", tt, got, want)
		}
	}
}

func TestSolveParabola_VerticalIsDefined(t *testing.T) {
	for _, hang := range []float64{0.1, 1, 3, 50} {
		got, ok := SolveParabola(Vec3{}, Vec3{Y: 1}, hang, 0.5)
		if !ok || !got.IsFinite() {
			t.Fatalf("hang=%g: midpoint undefined (%+v, %v)", hang, got, ok)
		}
		if got.X != 0 || got.Z != 0 {
			t.Errorf("hang=%g: vertical cable drifted horizontally: %+v", hang, got)
		}
	}
}

func TestSolveParabola_NegativeHangUndefined(t *testing.T) {
	for _, tt := range []float64{0, 0.3, 1} {
		if _, ok := SolveParabola(Vec3{}, Vec3{X: 3, Y: 1}, -0.01, tt); ok {
			t.Fatalf("t=%g: expected undefined for negative hang", tt)
		}
	}
}

func TestSolveParabola_NonFiniteInputUndefined(t *testing.T) {
	if _, ok := SolveParabola(Vec3{X: math.NaN()}, Vec3{X: 1}, 1, 0.5); ok {
		t.Fatalf("expected NaN start to be undefined")
	}
	if _, ok := SolveParabola(Vec3{}, Vec3{X: 1}, math.Inf(1), 0.5); ok {
		t.Fatalf("expected infinite hang to be undefined")
	}
}

func TestSolveParabola_SagsBelowLowerEndpoint(t *testing.T) {
	start := Vec3{}
	end := Vec3{X: 10, Y: 4}
	hang := 1.5

	lowest := math.Inf(1)
	for i := 0; i <= 1000; i++ {
		p, ok := SolveParabola(start, end, hang, float64(i)/1000)
		if !ok {
			t.Fatalf("undefined sample %d", i)
		}
		lowest = math.Min(lowest, p.Y)
	}
	if math.Abs(lowest-(start.Y-hang)) > 1e-2 {
		t.Fatalf("lowest point %g, want about %g", lowest, start.Y-hang)
	}
}

func TestSolveParabola_Deterministic(t *testing.T) {
	a, _ := SolveParabola(Vec3{X: 1}, Vec3{X: 9, Y: -2, Z: 3}, 2, 0.37)
	b, _ := SolveParabola(Vec3{X: 1}, Vec3{X: 9, Y: -2, Z: 3}, 2, 0.37)
	if a != b {
		t.Fatalf("identical inputs gave %+v and %+v", a, b)
	}
}

func TestSampleCurve_Scenario(t *testing.T) {
	p0 := Vec3{}
	p1 := Vec3{Y: 2, Z: 3}
	points, err := SampleCurve(p0, p1, 1.0, 10)
	if err != nil {
		t.Fatalf("SampleCurve: %v", err)
	}
	if len(points) != 11 {
		t.Fatalf("got %d samples, want 11", len(points))
	}
	if !near(points[0], p0) || !near(points[10], p1) {
		t.Fatalf("endpoints %+v .. %+v, want %+v .. %+v", points[0], points[10], p0, p1)
	}
	chordMid := p0.Lerp(p1, 0.5)
	if points[5].Y >= chordMid.Y {
		t.Fatalf("midpoint y=%g not below chord y=%g", points[5].Y, chordMid.Y)
	}
}

func TestSampleCurve_Failures(t *testing.T) {
	if _, err := SampleCurve(Vec3{}, Vec3{X: 1}, -1, 10); err == nil {
		t.Fatalf("expected negative hang to fail")
	}
	if _, err := SampleCurve(Vec3{}, Vec3{X: 1}, 1, 0); err == nil {
		t.Fatalf("expected zero segments to fail")
	}
}

func TestSampleAlong(t *testing.T) {
	points := []Vec3{{X: 0}, {X: 1}, {X: 3}}

	cases := []struct {
		t    float64
		want Vec3
	}{
		{0, Vec3{X: 0}},
		{0.25, Vec3{X: 0.5}},
		{0.5, Vec3{X: 1}},
		{0.75, Vec3{X: 2}},
		{1, Vec3{X: 3}},
		{-1, Vec3{X: 0}},
		{2, Vec3{X: 3}},
	}
	for _, tc := range cases {
		got, ok := SampleAlong(points, tc.t)
		if !ok {
			t.Fatalf("t=%g: not ok", tc.t)
		}
		if !near(got, tc.want) {
			t.Errorf("t=%g: got %+v, want %+v", tc.t, got, tc.want)
		}
	}

	if _, ok := SampleAlong(nil, 0.5); ok {
		t.Fatalf("expected empty polyline to be undefined")
	}
}
