package arg

// coalesce executes one coalescence event, per spec.md §4.4.4: pick an
// unordered pair of live ancestors uniformly, merge their ancestral
// material under a freshly assigned node at the current time, and
// register whatever survives the merge as a new ancestor.
func (s *Simulator) coalesce() error {
	aLeft, bLeft := s.pop.pickTwoDistinct(s.src)

	aHead, _ := s.pop.remove(aLeft)
	bHead, _ := s.pop.remove(bLeft)

	newNode := s.nextNode
	s.nextNode++

	newHead, records, err := mergeAncestors(s.segs, aHead, bHead, newNode, s.n, s.time)
	if err != nil {
		return err
	}

	s.segs.freeChain(aHead)
	s.segs.freeChain(bHead)
	s.records = append(s.records, records...)

	if newHead != 0 {
		if err := s.pop.insert(newHead); err != nil {
			return err
		}
	}
	return nil
}
