// Package ivf implements an inverted-file index: spherical k-means
// partitions the vector space into centroids, each holding a posting
// list of chunk ids, and a search only scans the nprobe centroids
// nearest the query before exact-reranking the union of their lists.
package ivf

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Kshitij-Bakliwal/vector-db-api/index"
	"github.com/Kshitij-Bakliwal/vector-db-api/index/internal/topk"
	"github.com/Kshitij-Bakliwal/vector-db-api/vectormath"
)

var _ index.Index = (*Index)(nil)

// DriftThreshold is the fraction of the trained set size that post-train
// incremental insertions may reach before the next Search folds a full
// retrain into itself under the write lock.
const DriftThreshold = 0.2

// Index is the IVF (inverted file) index.
type Index struct {
	mu sync.RWMutex

	dim          int
	numCentroids int
	nprobe       int
	rng          *rand.Rand

	centroids [][]float32              // normalized, len == 0 until trained
	lists     map[int]map[uuid.UUID]struct{} // centroid index -> member ids
	vecs      map[uuid.UUID][]float32  // normalized
	assign    map[uuid.UUID]int        // chunk id -> centroid index

	trainedSize       int // len(vecs) as of the last full train, 0 if untrained
	insertsSinceTrain int // incremental Add/Update calls since that train
}

// New creates an untrained IVF index. It holds vectors but answers
// Search with an exhaustive scan (as Flat would) until centroids are
// trained, either by Rebuild or by the first Search that finds at least
// numCentroids vectors in the index, per spec.md §4.4's "falls back to
// exhaustive scan below the training floor" rule.
func New(dim, numCentroids, nprobe int, seed int64) *Index {
	if numCentroids < 1 {
		numCentroids = 1
	}
	if nprobe < 1 {
		nprobe = 1
	}
	return &Index{
		dim:          dim,
		numCentroids: numCentroids,
		nprobe:       nprobe,
		rng:          rand.New(rand.NewSource(seed)),
		lists:        make(map[int]map[uuid.UUID]struct{}),
		vecs:         make(map[uuid.UUID][]float32),
		assign:       make(map[uuid.UUID]int),
	}
}

func (ix *Index) Dim() int { return ix.dim }

func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vecs)
}

func (ix *Index) normalizeChecked(vector []float32) ([]float32, error) {
	if len(vector) != ix.dim {
		return nil, &index.ErrDimensionMismatch{Expected: ix.dim, Actual: len(vector)}
	}
	norm, ok := vectormath.NormalizeCopy(vector)
	if !ok {
		return nil, index.ErrZeroVector
	}
	return norm, nil
}

// nearestCentroidIdx returns the centroid index of minimum cosine
// distance (maximum dot product) to v. Callers must hold ix.mu and have
// confirmed len(ix.centroids) > 0.
func (ix *Index) nearestCentroidIdx(v []float32) int {
	best, bestScore := 0, vectormath.Dot(v, ix.centroids[0])
	for i := 1; i < len(ix.centroids); i++ {
		if s := vectormath.Dot(v, ix.centroids[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

func (ix *Index) assignLocked(chunkID uuid.UUID, v []float32) {
	if len(ix.centroids) == 0 {
		return
	}
	c := ix.nearestCentroidIdx(v)
	ix.assign[chunkID] = c
	if ix.lists[c] == nil {
		ix.lists[c] = make(map[uuid.UUID]struct{})
	}
	ix.lists[c][chunkID] = struct{}{}
}

func (ix *Index) unassignLocked(chunkID uuid.UUID) {
	if c, ok := ix.assign[chunkID]; ok {
		delete(ix.lists[c], chunkID)
		if len(ix.lists[c]) == 0 {
			delete(ix.lists, c)
		}
		delete(ix.assign, chunkID)
	}
}

func (ix *Index) Add(chunkID uuid.UUID, vector []float32) error {
	norm, err := ix.normalizeChecked(vector)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.vecs[chunkID]; exists {
		return &index.ErrAlreadyExists{ChunkID: chunkID}
	}
	ix.vecs[chunkID] = norm
	ix.assignLocked(chunkID, norm)
	if len(ix.centroids) > 0 {
		ix.insertsSinceTrain++
	}
	return nil
}

func (ix *Index) Update(chunkID uuid.UUID, vector []float32) error {
	norm, err := ix.normalizeChecked(vector)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.vecs[chunkID]; !exists {
		return &index.ErrNotFound{ChunkID: chunkID}
	}
	ix.unassignLocked(chunkID)
	ix.vecs[chunkID] = norm
	ix.assignLocked(chunkID, norm)
	if len(ix.centroids) > 0 {
		ix.insertsSinceTrain++
	}
	return nil
}

func (ix *Index) Remove(chunkID uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.unassignLocked(chunkID)
	delete(ix.vecs, chunkID)
}

type centroidScore struct {
	idx   int
	score float32
}

func (ix *Index) Search(query []float32, k int, filter index.FilterFunc) ([]index.Hit, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	normQuery, ok := vectormath.NormalizeCopy(query)
	if !ok {
		return nil, index.ErrZeroVector
	}
	if len(normQuery) != ix.dim {
		return nil, &index.ErrDimensionMismatch{Expected: ix.dim, Actual: len(normQuery)}
	}

	ix.mu.RLock()
	drifted := ix.driftedLocked()
	ix.mu.RUnlock()

	if drifted {
		ix.mu.Lock()
		if ix.driftedLocked() {
			ix.retrainLocked()
		}
		hits := ix.searchLocked(normQuery, k, filter)
		ix.mu.Unlock()
		return hits, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.searchLocked(normQuery, k, filter), nil
}

// driftedLocked reports whether the index needs (re)training: it is
// untrained but now holds at least numCentroids vectors, or post-train
// insertions have exceeded DriftThreshold of the trained set size.
// Callers must hold ix.mu (either lock suffices, since this only reads).
func (ix *Index) driftedLocked() bool {
	if ix.trainedSize == 0 {
		return len(ix.vecs) >= ix.numCentroids
	}
	return float64(ix.insertsSinceTrain) > DriftThreshold*float64(ix.trainedSize)
}

// retrainLocked retrains centroids from the index's current vectors and
// reassigns every one. Callers must hold ix.mu for writing.
func (ix *Index) retrainLocked() {
	if len(ix.vecs) < ix.numCentroids {
		ix.centroids = nil
		ix.trainedSize = 0
		ix.insertsSinceTrain = 0
		return
	}
	ids := make([]uuid.UUID, 0, len(ix.vecs))
	vecs := make([][]float32, 0, len(ix.vecs))
	for id, v := range ix.vecs {
		ids = append(ids, id)
		vecs = append(vecs, v)
	}
	ix.centroids = sphericalKMeans(vecs, ix.numCentroids, ix.rng)
	ix.lists = make(map[int]map[uuid.UUID]struct{})
	ix.assign = make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		ix.assignLocked(id, vecs[i])
	}
	ix.trainedSize = len(ids)
	ix.insertsSinceTrain = 0
}

// searchLocked runs the ranked scan. Callers must hold ix.mu, for reading
// or writing.
func (ix *Index) searchLocked(normQuery []float32, k int, filter index.FilterFunc) []index.Hit {
	collector := topk.NewBounded(k)

	if len(ix.centroids) == 0 {
		// Untrained: exhaustive scan, same as flat.
		for chunkID, vec := range ix.vecs {
			if filter != nil && !filter(chunkID) {
				continue
			}
			collector.Push(chunkID, vectormath.CosineOfNormalized(normQuery, vec))
		}
		return toHits(collector.Results())
	}

	scores := make([]centroidScore, len(ix.centroids))
	for i, c := range ix.centroids {
		scores[i] = centroidScore{idx: i, score: vectormath.Dot(normQuery, c)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	nprobe := ix.nprobe
	if nprobe > len(scores) {
		nprobe = len(scores)
	}

	for _, cs := range scores[:nprobe] {
		for chunkID := range ix.lists[cs.idx] {
			if filter != nil && !filter(chunkID) {
				continue
			}
			vec := ix.vecs[chunkID]
			collector.Push(chunkID, vectormath.CosineOfNormalized(normQuery, vec))
		}
	}

	return toHits(collector.Results())
}

// Rebuild retrains centroids from scratch via spherical k-means
// (k-means++ seeding, farthest-point re-seeding of empty clusters) and
// reassigns every vector. If there are fewer vectors than configured
// centroids, the index is left untrained and Search falls back to an
// exhaustive scan.
func (ix *Index) Rebuild(items []index.Item) error {
	ids := make([]uuid.UUID, 0, len(items))
	vecs := make([][]float32, 0, len(items))
	for _, it := range items {
		norm, ok := vectormath.NormalizeCopy(it.Vector)
		if !ok {
			continue
		}
		if len(norm) != ix.dim {
			return &index.ErrDimensionMismatch{Expected: ix.dim, Actual: len(norm)}
		}
		ids = append(ids, it.ChunkID)
		vecs = append(vecs, norm)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.vecs = make(map[uuid.UUID][]float32, len(ids))
	ix.lists = make(map[int]map[uuid.UUID]struct{})
	ix.assign = make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		ix.vecs[id] = vecs[i]
	}

	if len(vecs) < ix.numCentroids {
		ix.centroids = nil
		ix.trainedSize = 0
		ix.insertsSinceTrain = 0
		return nil
	}

	ix.centroids = sphericalKMeans(vecs, ix.numCentroids, ix.rng)
	for i, id := range ids {
		ix.assignLocked(id, vecs[i])
	}
	ix.trainedSize = len(ids)
	ix.insertsSinceTrain = 0
	return nil
}

func (ix *Index) Items() []index.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	items := make([]index.Item, 0, len(ix.vecs))
	for id, vec := range ix.vecs {
		items = append(items, index.Item{ChunkID: id, Vector: vec})
	}
	return items
}

func toHits(items []topk.Item) []index.Hit {
	out := make([]index.Hit, len(items))
	for i, it := range items {
		out[i] = index.Hit{ChunkID: it.ChunkID, Score: it.Score}
	}
	return out
}
