package ivf

import (
	"math/rand"

	"github.com/Kshitij-Bakliwal/vector-db-api/vectormath"
)

const maxIterations = 20

// seedPlusPlus picks k of the given (already-normalized) vectors as
// initial centroids using k-means++: each subsequent seed is chosen with
// probability proportional to its squared cosine distance from the
// nearest seed chosen so far, which spreads seeds out and converges
// faster than picking them uniformly at random.
func seedPlusPlus(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	seeds := make([][]float32, 0, k)
	seeds = append(seeds, cloneVec(vectors[rng.Intn(n)]))

	minDist := make([]float64, n)
	for i, v := range vectors {
		minDist[i] = cosineDistance(v, seeds[0])
	}

	for len(seeds) < k {
		var total float64
		for _, d := range minDist {
			total += d * d
		}
		var chosen int
		if total == 0 {
			chosen = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			var cum float64
			chosen = n - 1
			for i, d := range minDist {
				cum += d * d
				if cum >= target {
					chosen = i
					break
				}
			}
		}
		seed := cloneVec(vectors[chosen])
		seeds = append(seeds, seed)
		for i, v := range vectors {
			if d := cosineDistance(v, seed); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return seeds
}

// cosineDistance is 1 - cosine similarity, for already-normalized
// vectors; it is only used to compare relative distances during seeding.
func cosineDistance(a, b []float32) float64 {
	return 1 - float64(vectormath.CosineOfNormalized(a, b))
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// sphericalKMeans runs Lloyd's algorithm under cosine similarity: assign
// each (normalized) vector to its nearest centroid by dot product, then
// recompute each centroid as the normalized mean of its members. It halts
// early once assignments stop changing, or after maxIterations.
//
// A cluster that loses every member is re-seeded from the farthest point
// (by cosine distance from its own centroid) in the most populous
// remaining cluster, rather than a uniformly random point -- this spreads
// re-seeded centroids away from already-dense regions instead of
// potentially duplicating one.
func sphericalKMeans(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	centroids := seedPlusPlus(vectors, k, rng)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		members := make([][]int, k)
		for i, c := range assignments {
			members[c] = append(members[c], i)
		}

		for c := 0; c < k; c++ {
			if len(members[c]) == 0 {
				reseedEmptyCluster(vectors, assignments, members, c)
				changed = true
			}
		}

		for c := 0; c < k; c++ {
			if len(members[c]) == 0 {
				continue
			}
			sum := make([]float32, len(vectors[0]))
			for _, idx := range members[c] {
				for d, x := range vectors[idx] {
					sum[d] += x
				}
			}
			if norm, ok := vectormath.NormalizeCopy(sum); ok {
				centroids[c] = norm
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	return centroids
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best, bestScore := 0, vectormath.Dot(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if s := vectormath.Dot(v, centroids[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// reseedEmptyCluster moves the farthest point of the most populous
// cluster into the empty cluster c, updating assignments and members
// only; c's centroid lands on that point when the caller recomputes
// centroids from the new membership.
func reseedEmptyCluster(vectors [][]float32, assignments []int, members [][]int, c int) {
	donor := -1
	for i, m := range members {
		if i == c || len(m) < 2 {
			continue
		}
		if donor == -1 || len(m) > len(members[donor]) {
			donor = i
		}
	}
	if donor == -1 {
		return
	}

	// Farthest member of the donor cluster from its own centroid mean.
	mean := make([]float32, len(vectors[0]))
	for _, idx := range members[donor] {
		for d, x := range vectors[idx] {
			mean[d] += x
		}
	}
	normMean, ok := vectormath.NormalizeCopy(mean)
	if !ok {
		normMean = vectors[members[donor][0]]
	}

	farthestIdx, farthestDist := members[donor][0], -1.0
	for _, idx := range members[donor] {
		d := cosineDistance(vectors[idx], normMean)
		if d > farthestDist {
			farthestIdx, farthestDist = idx, d
		}
	}

	assignments[farthestIdx] = c
	members[c] = append(members[c], farthestIdx)
	for i, idx := range members[donor] {
		if idx == farthestIdx {
			members[donor] = append(members[donor][:i], members[donor][i+1:]...)
			break
		}
	}
}
