package reduce

// contributes reports whether process p contributes to tile t, treating
// a short or missing mask row as "does not contribute".
func contributes(top Topology, p, t int) bool {
	return p < len(top.ContainsTile) && t < len(top.ContainsTile[p]) && top.ContainsTile[p][t]
}

// assignUnordered implements spec §4.3 step 6's unordered mode: a
// contributor already seated in t sends to itself; every other
// contributor is matched round-robin to a seated group member that is
// not itself a contributor to t.
func assignUnordered(top Topology, t int, group []int, tileOf []int) map[int]int {
	dest := map[int]int{}

	var nonContribMembers []int
	for _, m := range group {
		if !contributes(top, m, t) {
			nonContribMembers = append(nonContribMembers, m)
		}
	}

	rr := 0
	for p := 0; p < top.NumProcesses; p++ {
		if !contributes(top, p, t) {
			continue
		}
		if tileOf[p] == t {
			dest[p] = p
			continue
		}
		if len(nonContribMembers) == 0 {
			dest[p] = top.DisplayNode[t]
			continue
		}
		dest[p] = nonContribMembers[rr%len(nonContribMembers)]
		rr++
	}
	return dest
}

// assignOrdered implements spec §4.3 step 6's ordered mode: contributors
// for t are ordered by the session's composite order; proc_group is
// shuffled so that a seated contributor sits at the slot it will own
// (index i in contributors -> floor(i*group_size/num_contributors));
// every contributor (seated or not) is then assigned to the group
// member occupying its slot. Returns the shuffled group (needed by
// GroupImageDest to locate the display node's slot) and the
// contributor->destination map.
func assignOrdered(top Topology, t int, group []int, tileOf []int) ([]int, map[int]int) {
	var contributors []int
	for _, p := range top.CompositeOrder {
		if contributes(top, p, t) {
			contributors = append(contributors, p)
		}
	}
	numContrib := len(contributors)
	newGroup := append([]int(nil), group...)
	if numContrib == 0 {
		return newGroup, map[int]int{}
	}
	g := len(newGroup)

	indexOf := func(p int) int {
		for i, x := range newGroup {
			if x == p {
				return i
			}
		}
		return -1
	}

	for i, c := range contributors {
		if tileOf[c] != t {
			continue
		}
		slot := i * g / numContrib
		cur := indexOf(c)
		if cur == -1 || cur == slot {
			continue
		}
		newGroup[cur], newGroup[slot] = newGroup[slot], newGroup[cur]
	}

	dest := make(map[int]int, numContrib)
	for i, c := range contributors {
		slot := i * g / numContrib
		dest[c] = newGroup[slot]
	}
	return newGroup, dest
}
