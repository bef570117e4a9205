package domain

// Section is one agenda entry of a meeting kind.
type Section struct {
	ID              string
	Name            string
	DurationMinutes int
}

func (s Section) AllocatedSeconds() int64 {
	return int64(s.DurationMinutes) * 60
}

// Catalog is the ordered agenda a session is timed against.
type Catalog []Section

func (c Catalog) Find(id string) (Section, bool) {
	for _, section := range c {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, section := range c {
		ids = append(ids, section.ID)
	}
	return ids
}
