// Package clustering partitions incident vectors into density-based
// clusters plus a noise set. The algorithm is deterministic for a fixed
// input order and configuration: repeated runs over the same snapshot must
// yield the same partition.
package clustering

import (
	"math"
)

// Noise is the label assigned to points that meet no cluster's density
// requirement. They are surfaced individually, never forced into the
// nearest cluster.
const Noise = -1

const (
	// DefaultEps is the default neighborhood radius over unit vectors
	DefaultEps = 0.75

	// DefaultMinPoints is the default density threshold: a core point
	// needs at least this many points (itself included) within Eps
	DefaultMinPoints = 3
)

// Config controls the density requirements of a clustering run
type Config struct {
	// Eps is the neighborhood radius (euclidean)
	Eps float64

	// MinPoints is the minimum neighborhood size for a core point,
	// including the point itself
	MinPoints int
}

// WithDefaults fills unset fields with package defaults
func (c Config) WithDefaults() Config {
	if c.Eps <= 0 {
		c.Eps = DefaultEps
	}
	if c.MinPoints <= 0 {
		c.MinPoints = DefaultMinPoints
	}
	return c
}

// Assignment is the outcome of a clustering run. Labels is index-aligned
// with the input vectors; Noise marks unclustered points. Cluster ids are
// dense integers starting at 0 with no meaning across runs.
type Assignment struct {
	Labels      []int
	NumClusters int
}

// NumNoise counts points labeled as noise
func (a Assignment) NumNoise() int {
	n := 0
	for _, l := range a.Labels {
		if l == Noise {
			n++
		}
	}
	return n
}

// Run clusters the vectors with DBSCAN. Points are visited in index order
// and neighborhoods expand in index order, which makes cluster membership
// a pure function of (vectors, config).
func Run(vectors [][]float32, cfg Config) Assignment {
	cfg = cfg.WithDefaults()

	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := make([]bool, n)

	nextCluster := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(vectors, i, cfg.Eps)
		if len(neighbors) < cfg.MinPoints {
			continue
		}

		labels[i] = nextCluster
		expandCluster(vectors, labels, visited, neighbors, nextCluster, cfg)
		nextCluster++
	}

	return Assignment{Labels: labels, NumClusters: nextCluster}
}

// expandCluster grows a cluster from a core point's neighborhood.
// The queue preserves discovery order so expansion is deterministic.
func expandCluster(vectors [][]float32, labels []int, visited []bool, seeds []int, cluster int, cfg Config) {
	for qi := 0; qi < len(seeds); qi++ {
		p := seeds[qi]

		if labels[p] == Noise {
			labels[p] = cluster
		}
		if visited[p] {
			continue
		}
		visited[p] = true

		neighbors := regionQuery(vectors, p, cfg.Eps)
		if len(neighbors) >= cfg.MinPoints {
			seeds = append(seeds, neighbors...)
		}
	}
}

// regionQuery returns the indices within eps of point i, in index order,
// including i itself
func regionQuery(vectors [][]float32, i int, eps float64) []int {
	var out []int
	for j := range vectors {
		if Distance(vectors[i], vectors[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}

// Distance is the euclidean distance between two vectors
func Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
