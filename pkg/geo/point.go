package geo

import "math"

// Point3D is a drawing coordinate. X and Y lie in the floor plan; Z is the
// elevation in metres.
type Point3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Pt is a shorthand constructor for Point3D.
func Pt(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z}
}

// FromSlice builds a point from a [x, y, z] slice. Missing components are zero.
func FromSlice(v []float64) Point3D {
	var p Point3D
	if len(v) > 0 {
		p.X = v[0]
	}
	if len(v) > 1 {
		p.Y = v[1]
	}
	if len(v) > 2 {
		p.Z = v[2]
	}
	return p
}

// Add returns p + q.
func (p Point3D) Add(q Point3D) Point3D {
	return Point3D{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Scale returns p * s.
func (p Point3D) Scale(s float64) Point3D {
	return Point3D{p.X * s, p.Y * s, p.Z * s}
}

// Length returns the Euclidean length of the vector.
func (p Point3D) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Normalize returns the unit vector in the same direction.
// Returns zero vector if length is zero.
func (p Point3D) Normalize() Point3D {
	l := p.Length()
	if l < 1e-12 {
		return Point3D{}
	}
	return p.Scale(1 / l)
}

// Dot returns the dot product of p and q.
func (p Point3D) Dot(q Point3D) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Distance returns the Euclidean distance from p to q.
func (p Point3D) Distance(q Point3D) float64 {
	return p.Sub(q).Length()
}

// Round snaps every component to the given number of decimals.
func (p Point3D) Round(decimals int) Point3D {
	f := math.Pow(10, float64(decimals))
	r := func(v float64) float64 { return math.Round(v*f) / f }
	return Point3D{r(p.X), r(p.Y), r(p.Z)}
}

// Deflection returns the angle in degrees between the directions a and b.
// Zero means b continues straight on from a. Returns 0 if either vector is
// degenerate.
func Deflection(a, b Point3D) float64 {
	ua, ub := a.Normalize(), b.Normalize()
	if ua.Length() == 0 || ub.Length() == 0 {
		return 0
	}
	cos := ua.Dot(ub)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
