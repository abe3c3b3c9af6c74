package board

// PlayerScore is one player's stones on the board plus owned territory.
type PlayerScore struct {
	Stones    int
	Territory int
}

// Total returns stones plus territory.
func (p PlayerScore) Total() int {
	return p.Stones + p.Territory
}

// Score is the area count of a position.
type Score struct {
	Black PlayerScore
	White PlayerScore
}

// For returns the score of colour c.
func (s Score) For(c Colour) PlayerScore {
	switch c {
	case Black:
		return s.Black
	case White:
		return s.White
	default:
		return PlayerScore{}
	}
}

// Score counts stones and territory. An empty region is territory of a
// player when every stone bordering it is theirs; regions with mixed
// borders or no border at all are neutral.
func (b *Board) Score() Score {
	var s Score
	seen := make(map[int]bool)
	for v, c := range b.stones {
		switch c {
		case Black:
			s.Black.Stones++
			continue
		case White:
			s.White.Stones++
			continue
		}
		if seen[v] {
			continue
		}

		region := b.group(v)
		owner := Empty
		mixed := false
		for _, m := range region.Members {
			seen[m] = true
			for _, n := range b.neighbors[m] {
				switch nc := b.stones[n]; {
				case nc == Empty:
				case owner == Empty:
					owner = nc
				case owner != nc:
					mixed = true
				}
			}
		}

		if mixed {
			continue
		}
		switch owner {
		case Black:
			s.Black.Territory += len(region.Members)
		case White:
			s.White.Territory += len(region.Members)
		}
	}
	return s
}
