package network

import (
	"math"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/geo"
)

// endpointIndex merges drawing coordinates closer than a tolerance into
// shared nodes. Points are indexed into grid cells of twice the tolerance;
// a lookup scans the cell and its neighbours.
type endpointIndex struct {
	tol     float64
	buckets map[[3]int][]int
	points  []geo.Point3D
}

func newEndpointIndex(tol float64) *endpointIndex {
	return &endpointIndex{tol: tol, buckets: make(map[[3]int][]int)}
}

func (ix *endpointIndex) cell(p geo.Point3D) [3]int {
	size := ix.tol * 2
	return [3]int{
		int(math.Floor(p.X / size)),
		int(math.Floor(p.Y / size)),
		int(math.Floor(p.Z / size)),
	}
}

// find returns the index of a stored point within tolerance of p, or -1.
func (ix *endpointIndex) find(p geo.Point3D) int {
	key := ix.cell(p)
	best, bestDist := -1, math.Inf(1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for _, i := range ix.buckets[[3]int{key[0] + dx, key[1] + dy, key[2] + dz}] {
					d := ix.points[i].Distance(p)
					if d <= ix.tol && d < bestDist {
						best, bestDist = i, d
					}
				}
			}
		}
	}
	return best
}

// add returns the index of the point p merges into, storing it if new.
func (ix *endpointIndex) add(p geo.Point3D) int {
	if i := ix.find(p); i >= 0 {
		return i
	}
	ix.points = append(ix.points, p)
	i := len(ix.points) - 1
	key := ix.cell(p)
	ix.buckets[key] = append(ix.buckets[key], i)
	return i
}
