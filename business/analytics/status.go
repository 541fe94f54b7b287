package analytics

import "canaryAnalytics/domain"

// statusSet collects data-quality codes in first-seen order without duplicates.
type statusSet struct {
	codes []domain.StatusCode
	seen  map[domain.StatusCode]bool
}

func newStatusSet() *statusSet {
	return &statusSet{codes: []domain.StatusCode{}, seen: map[domain.StatusCode]bool{}}
}

func (s *statusSet) add(codes ...domain.StatusCode) {
	for _, c := range codes {
		if c == "" || c == domain.StatusAllOK || s.seen[c] {
			continue
		}
		s.seen[c] = true
		s.codes = append(s.codes, c)
	}
}

func (s *statusSet) merge(other *statusSet) {
	if other == nil {
		return
	}
	s.add(other.codes...)
}

func (s *statusSet) list() []domain.StatusCode {
	return append([]domain.StatusCode{}, s.codes...)
}
