package conflict

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nodeadmin/alcomo/logging"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/metrics"
)

// DefaultSeed seeds the choice of keys for higher-order conflicts.
const DefaultSeed = 666

// StoreOptions controls NewStore.
type StoreOptions struct {
	// Seed for the higher-order key choice; nil means DefaultSeed.
	Seed *int64
	// Workers bounds the pair precomputation goroutines; <= 0 means
	// GOMAXPROCS.
	Workers int
	Logger  logging.Logger
}

// Store holds the known conflicts over one mapping, addressed by index.
// Reads are safe after construction; AddConflict must come from the single
// goroutine driving a search.
type Store struct {
	m    mapping.Mapping
	conf []float64

	singular  []bool
	conflicts [][]bool
	blamed    []bool

	// higher maps a key index to the other members of each conflict of
	// size > 2 it was chosen to represent.
	higher map[int][][]int
	// memberOf lists, per index, every stored conflict of size > 2 that
	// contains it.
	memberOf    map[int][][]int
	higherCount int
	pairCount   int

	rand *rand.Rand
	log  logging.Logger
}

func newStore(m mapping.Mapping, opts StoreOptions) *Store {
	seed := int64(DefaultSeed)
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	n := len(m)
	s := &Store{
		m:         m.Copy(),
		conf:      m.Confidences(),
		singular:  make([]bool, n),
		conflicts: make([][]bool, n),
		blamed:    make([]bool, n),
		higher:    make(map[int][][]int),
		memberOf:  make(map[int][][]int),
		rand:      rand.New(rand.NewSource(seed)),
		log:       logging.OrNop(opts.Logger),
	}
	for i := range s.conflicts {
		s.conflicts[i] = make([]bool, n)
	}
	return s
}

// NewEmptyStore returns a store without precomputed conflicts; everything
// it learns comes through AddConflict.
func NewEmptyStore(m mapping.Mapping, opts StoreOptions) *Store {
	return newStore(m, opts)
}

// NewStore precomputes every pairwise conflict the detector reports over m.
func NewStore(ctx context.Context, m mapping.Mapping, d *Detector, opts StoreOptions) (*Store, error) {
	s := newStore(m, opts)
	start := time.Now()
	s.log.Info("precomputing pattern conflicts", logging.Int("correspondences", len(m)))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	// Row x owns the cells (x, y) for y > x; mirrored after Wait.
	for x := range s.m {
		x := x
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := s.conflicts[x]
			for y := x + 1; y < len(s.m); y++ {
				row[y] = d.Conflicts(s.m[x], s.m[y])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for x := range s.conflicts {
		for y := x + 1; y < len(s.conflicts); y++ {
			if s.conflicts[x][y] {
				s.conflicts[y][x] = true
				s.blamed[x] = true
				s.blamed[y] = true
				s.pairCount++
			}
		}
	}
	metrics.SetStoredConflicts(s.pairCount, s.higherCount)
	s.log.Info("pattern conflicts precomputed",
		logging.Int("pairs", s.pairCount),
		logging.Duration("elapsed", time.Since(start)))
	return s, nil
}

// Len returns the size of the store's mapping.
func (s *Store) Len() int { return len(s.m) }

// Mapping returns the store's private copy of the mapping.
func (s *Store) Mapping() mapping.Mapping { return s.m }

// Confidence returns the confidence of index i.
func (s *Store) Confidence(i int) float64 { return s.conf[i] }

// Conflicts reports whether x and y are a stored conflict pair.
func (s *Store) Conflicts(x, y int) bool { return s.conflicts[x][y] }

// PairCount returns the number of stored conflict pairs.
func (s *Store) PairCount() int { return s.pairCount }

// HigherOrderCount returns the number of stored conflicts of size > 2.
func (s *Store) HigherOrderCount() int { return s.higherCount }

// Pairs returns the stored conflict pairs (x < y) in index order.
func (s *Store) Pairs() [][2]int {
	out := make([][2]int, 0, s.pairCount)
	for x := range s.conflicts {
		for y := x + 1; y < len(s.conflicts); y++ {
			if s.conflicts[x][y] {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// AddConflict records indices as a conflict. A single index becomes a
// singularity, two a pair; larger sets are stored under a randomly chosen
// member.
func (s *Store) AddConflict(indices []int) {
	set := dedup(indices)
	for _, i := range set {
		s.check(i)
		s.blamed[i] = true
	}
	switch len(set) {
	case 0:
		return
	case 1:
		s.singular[set[0]] = true
	case 2:
		x, y := set[0], set[1]
		if !s.conflicts[x][y] {
			s.conflicts[x][y] = true
			s.conflicts[y][x] = true
			s.pairCount++
		}
	default:
		k := s.rand.Intn(len(set))
		rest := make([]int, 0, len(set)-1)
		rest = append(rest, set[:k]...)
		rest = append(rest, set[k+1:]...)
		s.higher[set[k]] = append(s.higher[set[k]], rest)
		for _, i := range set {
			s.memberOf[i] = append(s.memberOf[i], set)
		}
		s.higherCount++
		s.log.Debug("stored higher-order conflict", logging.Int("size", len(set)))
	}
	metrics.SetStoredConflicts(s.pairCount, s.higherCount)
}

// AddConflictMapping records the correspondences of c, looked up by key,
// as a conflict and returns their indices.
func (s *Store) AddConflictMapping(c mapping.Mapping) []int {
	keys := make(map[string]int, len(s.m))
	for i, corr := range s.m {
		keys[corr.Key()] = i
	}
	indices := make([]int, 0, len(c))
	for _, corr := range c {
		i, ok := keys[corr.Key()]
		if !ok {
			panic("conflict: correspondence not in store mapping: " + corr.Key())
		}
		indices = append(indices, i)
	}
	s.AddConflict(indices)
	return dedup(indices)
}

// ConflictingIndices returns one stored conflict fully inside active, or
// nil. Singularities are tried first, then pairs, then larger conflicts.
func (s *Store) ConflictingIndices(active []bool) []int {
	if len(active) != len(s.m) {
		panic("conflict: active set does not match store mapping")
	}
	for x, on := range active {
		if !on || !s.blamed[x] {
			continue
		}
		if s.singular[x] {
			return []int{x}
		}
		for y := x + 1; y < len(active); y++ {
			if active[y] && s.conflicts[x][y] {
				return []int{x, y}
			}
		}
	}
	if s.higherCount == 0 {
		return nil
	}
	for x, on := range active {
		if !on {
			continue
		}
		for _, rest := range s.higher[x] {
			if allActive(rest, active) {
				return append([]int{x}, rest...)
			}
		}
	}
	return nil
}

// ConflictingIndicesList is ConflictingIndices over an explicit list of
// active indices.
func (s *Store) ConflictingIndicesList(indices []int) []int {
	active := make([]bool, len(s.m))
	for _, i := range indices {
		s.check(i)
		active[i] = true
	}
	return s.ConflictingIndices(active)
}

// ConflictsWithActive returns one stored conflict that contains i and lies
// fully inside active, or nil. i counts as active whatever active[i] says.
// Only conflicts involving i are visited.
func (s *Store) ConflictsWithActive(i int, active []bool) []int {
	if len(active) != len(s.m) {
		panic("conflict: active set does not match store mapping")
	}
	s.check(i)
	if !s.blamed[i] {
		return nil
	}
	if s.singular[i] {
		return []int{i}
	}
	for y, c := range s.conflicts[i] {
		if c && active[y] && y != i {
			return []int{min(i, y), max(i, y)}
		}
	}
	for _, set := range s.memberOf[i] {
		ok := true
		for _, j := range set {
			if j != i && !active[j] {
				ok = false
				break
			}
		}
		if ok {
			return append([]int(nil), set...)
		}
	}
	return nil
}

// ConflictCount returns how many active indices conflict pairwise with i.
func (s *Store) ConflictCount(i int, active []bool) int {
	n := 0
	for y, c := range s.conflicts[i] {
		if c && active[y] {
			n++
		}
	}
	return n
}

// TopWeightedConflictingIndex returns the active index with the most
// active conflict partners, the lowest confidence breaking ties, or -1
// when no active index conflicts. An active singularity wins outright.
func (s *Store) TopWeightedConflictingIndex(active []bool) int {
	top, topCount := -1, 0
	topConf := 0.0
	for i, on := range active {
		if !on {
			continue
		}
		if s.singular[i] {
			return i
		}
		n := s.ConflictCount(i, active)
		switch {
		case n > topCount:
			top, topCount, topConf = i, n, s.conf[i]
		case n > 0 && n == topCount && s.conf[i] < topConf:
			top, topConf = i, s.conf[i]
		}
	}
	return top
}

// Sensitivity returns the share of the other correspondences that do not
// conflict pairwise with i; 1 for a correspondence free of conflicts.
func (s *Store) Sensitivity(i int) float64 {
	s.check(i)
	n := len(s.m)
	if n < 2 {
		return 1
	}
	return 1 - float64(s.ConflictCount(i, allOn(n)))/float64(n)
}

// Reweight scales every confidence by its sensitivity, so that
// correspondences in many conflicts weigh less in the search. The factors
// are computed from the stored pairs before any confidence changes.
func (s *Store) Reweight() {
	factors := make([]float64, len(s.m))
	for i := range s.m {
		factors[i] = s.Sensitivity(i)
	}
	for i, f := range factors {
		s.conf[i] *= f
		s.m[i].Confidence = s.conf[i]
	}
	s.log.Info("confidences reweighted by conflict sensitivity", logging.Int("correspondences", len(s.m)))
}

func allOn(n int) []bool {
	a := make([]bool, n)
	for i := range a {
		a[i] = true
	}
	return a
}

func (s *Store) check(i int) {
	if i < 0 || i >= len(s.m) {
		panic("conflict: index out of range for store mapping")
	}
}

func allActive(indices []int, active []bool) bool {
	for _, i := range indices {
		if !active[i] {
			return false
		}
	}
	return true
}

func dedup(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}
