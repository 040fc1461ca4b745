package movement

import (
	"strings"

	"github.com/okian/footelo/internal/domain/model"
)

// Table is the flat list of movements for one or more transitions.
type Table []model.Movement

// Teams returns, in table order, the teams matching tier and status.
func (t Table) Teams(tier model.Tier, status model.Status) []string {
	out := make([]string, 0)
	for _, m := range t {
		if m.Tier == tier && m.Status == status {
			out = append(out, m.Team)
		}
	}
	return out
}

// ForTransition returns the rows belonging to one transition.
func (t Table) ForTransition(id string) Table {
	var out Table
	for _, m := range t {
		if m.Transition == id {
			out = append(out, m)
		}
	}
	return out
}

// Clean drops rows with blank team names, which show up when a persisted
// table was edited by hand or produced from a damaged file.
func (t Table) Clean() Table {
	out := make(Table, 0, len(t))
	for _, m := range t {
		if strings.TrimSpace(m.Team) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
