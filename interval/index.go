package interval

// Graph is the DAG an Index is built over. Nodes are dense arena ids
// 0..Len()-1.
type Graph interface {
	Len() int
	Root() int
	Children(node int) []int
	// DisjointPairs lists stated disjointness between nodes, with unions
	// already expanded to their members.
	DisjointPairs() [][2]int
	// Unions lists nodes defined as the union of other nodes.
	Unions() []Union
}

// Union is a node U ≡ Members[0] ⊔ ... ⊔ Members[n-1].
type Union struct {
	Node    int
	Members []int
}

// Index answers subsumption and disjointness queries for one graph.
type Index struct {
	pre  []int // traversal id per node, -1 until visited
	byID []int // node per traversal id
	sub  []Set
	dis  []Set
	topo []int // parents before children
}

// Build numbers g by one depth-first traversal from the root and derives the
// subsumption and disjointness interval sets of every node.
func Build(g Graph) *Index {
	n := g.Len()
	ix := &Index{
		pre:  make([]int, n),
		byID: make([]int, 0, n),
		sub:  make([]Set, n),
		dis:  make([]Set, n),
	}
	for i := range ix.pre {
		ix.pre[i] = -1
	}

	post := ix.number(g, n)

	// Subsumption: own id plus every child's set. A shared node is finished
	// before any later parent reaches it, so its set is reused, not rebuilt.
	for _, node := range post {
		s := Point(ix.pre[node])
		for _, c := range g.Children(node) {
			s = s.Union(ix.sub[c])
		}
		ix.sub[node] = s
	}

	ix.topo = make([]int, len(post))
	for i, node := range post {
		ix.topo[len(post)-1-i] = node
	}

	for _, p := range g.DisjointPairs() {
		a, b := p[0], p[1]
		ix.dis[a] = ix.dis[a].Union(ix.sub[b])
		ix.dis[b] = ix.dis[b].Union(ix.sub[a])
	}
	ix.propagate(g)

	// Whatever is disjoint with every member of a union is disjoint with the
	// union itself.
	unions := g.Unions()
	for _, u := range unions {
		if len(u.Members) == 0 {
			continue
		}
		common := ix.dis[u.Members[0]]
		for _, m := range u.Members[1:] {
			common = common.Intersect(ix.dis[m])
		}
		if len(common) == 0 {
			continue
		}
		ix.dis[u.Node] = ix.dis[u.Node].Union(common)
		common.Each(func(id int) {
			x := ix.byID[id]
			ix.dis[x] = ix.dis[x].Union(ix.sub[u.Node])
		})
	}
	if len(unions) > 0 {
		ix.propagate(g)
	}
	return ix
}

// number assigns pre-order ids with an explicit stack and returns the nodes
// in post-order. Nodes unreachable from the root are numbered afterwards as
// extra roots.
func (ix *Index) number(g Graph, n int) []int {
	type frame struct {
		node int
		next int
	}
	post := make([]int, 0, n)
	visit := func(root int) {
		ix.pre[root] = len(ix.byID)
		ix.byID = append(ix.byID, root)
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.Children(top.node)
			if top.next < len(children) {
				c := children[top.next]
				top.next++
				if ix.pre[c] >= 0 {
					continue // already numbered: shared node or cycle
				}
				ix.pre[c] = len(ix.byID)
				ix.byID = append(ix.byID, c)
				stack = append(stack, frame{node: c})
				continue
			}
			post = append(post, top.node)
			stack = stack[:len(stack)-1]
		}
	}
	if n == 0 {
		return post
	}
	visit(g.Root())
	for node := 0; node < n; node++ {
		if ix.pre[node] < 0 {
			visit(node)
		}
	}
	return post
}

// propagate pushes disjointness down to all descendants.
func (ix *Index) propagate(g Graph) {
	for _, node := range ix.topo {
		if len(ix.dis[node]) == 0 {
			continue
		}
		for _, c := range g.Children(node) {
			ix.dis[c] = ix.dis[c].Union(ix.dis[node])
		}
	}
}

// ID returns the traversal id of node.
func (ix *Index) ID(node int) int { return ix.pre[node] }

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.pre) }

// SubIntervals returns the subsumption set of node.
func (ix *Index) SubIntervals(node int) Set { return ix.sub[node] }

// DisIntervals returns the disjointness set of node.
func (ix *Index) DisIntervals(node int) Set { return ix.dis[node] }

// IsSubClassOf reports whether a ⊑ b.
func (ix *Index) IsSubClassOf(a, b int) bool {
	return ix.sub[b].Contains(ix.pre[a])
}

// IsDisjointWith reports whether a is known disjoint with b.
func (ix *Index) IsDisjointWith(a, b int) bool {
	return ix.dis[b].Contains(ix.pre[a])
}

// HasCommonSubclass reports whether a and b share a subclass (possibly one
// of them).
func (ix *Index) HasCommonSubclass(a, b int) bool {
	return ix.sub[a].Overlaps(ix.sub[b])
}

// HasCommonSubDisjoint reports whether some subclass of a is disjoint with b.
func (ix *Index) HasCommonSubDisjoint(a, b int) bool {
	return ix.sub[a].Overlaps(ix.dis[b])
}
