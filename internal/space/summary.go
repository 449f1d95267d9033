package space

import "strconv"

type GroupSummary struct {
	Name     string  `json:"name"`
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Begin    int     `json:"begin"`
	End      int     `json:"end"`
	Charge   float64 `json:"charge"`
	Atomic   bool    `json:"atomic,omitempty"`
}

type Summary struct {
	Geometry  string         `json:"geometry"`
	Volume    float64        `json:"volume"`
	Particles int            `json:"particles"`
	Active    int            `json:"active"`
	Charge    float64        `json:"charge"`
	Groups    []GroupSummary `json:"groups"`
}

// Summary describes the layout of s for reports and run metadata.
func (s *Space) Summary() Summary {
	sum := Summary{
		Geometry:  s.Geo.Name(),
		Volume:    s.Geo.Volume(),
		Particles: len(s.Particles),
		Active:    s.NumActive(),
		Groups:    make([]GroupSummary, len(s.Groups)),
	}
	for i := range s.Groups {
		g := &s.Groups[i]
		q := s.Active(i).Charge()
		sum.Charge += q
		sum.Groups[i] = GroupSummary{
			Name:     s.moleculeName(g.ID),
			Size:     g.Size(),
			Capacity: g.Capacity(),
			Begin:    g.begin,
			End:      g.limit,
			Charge:   q,
			Atomic:   g.Atomic,
		}
	}
	return sum
}

func (s *Space) moleculeName(id int) string {
	if s.Catalog != nil {
		if m := s.Catalog.Molecule(id); m != nil {
			return m.Name
		}
	}
	return strconv.Itoa(id)
}
