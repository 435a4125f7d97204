package clustering

// Silhouette computes the mean silhouette coefficient over non-noise
// points. Returns nil when fewer than two clusters exist: the score is
// undefined there, and zero would read as "borderline".
func Silhouette(vectors [][]float32, labels []int) *float64 {
	clusters := make(map[int][]int)
	for i, l := range labels {
		if l == Noise {
			continue
		}
		clusters[l] = append(clusters[l], i)
	}
	if len(clusters) < 2 {
		return nil
	}

	var total float64
	var count int
	for label, members := range clusters {
		for _, i := range members {
			a := meanDistance(vectors, i, members)
			b := nearestOtherCluster(vectors, i, label, clusters)

			var s float64
			if len(members) > 1 && (a > 0 || b > 0) {
				if a < b {
					s = (b - a) / b
				} else if a > b {
					s = (b - a) / a
				}
			}
			// singleton clusters contribute 0 by convention
			total += s
			count++
		}
	}

	score := total / float64(count)
	return &score
}

// meanDistance is the average distance from point i to the other members
// of its cluster. A singleton cluster yields 0.
func meanDistance(vectors [][]float32, i int, members []int) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	for _, j := range members {
		if j == i {
			continue
		}
		sum += Distance(vectors[i], vectors[j])
	}
	return sum / float64(len(members)-1)
}

// nearestOtherCluster is the minimum over other clusters of the mean
// distance from point i to that cluster's members
func nearestOtherCluster(vectors [][]float32, i, own int, clusters map[int][]int) float64 {
	best := -1.0
	for label, members := range clusters {
		if label == own {
			continue
		}
		var sum float64
		for _, j := range members {
			sum += Distance(vectors[i], vectors[j])
		}
		mean := sum / float64(len(members))
		if best < 0 || mean < best {
			best = mean
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
