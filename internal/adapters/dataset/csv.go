package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
)

// Results file columns.
const (
	colDate     = "Date"
	colHomeTeam = "HomeTeam"
	colAwayTeam = "AwayTeam"
	colFTHG     = "FTHG"
	colFTAG     = "FTAG"
)

// enrichedHeader is the column layout of enriched outputs.
var enrichedHeader = []string{
	"Season", "Division", colDate, colHomeTeam, colAwayTeam, colFTHG, colFTAG,
	"HomeElo", "AwayElo", "HomeExpected", "AwayExpected",
}

var movementsHeader = []string{"season", "tier", "team", "status"}

// dateLayouts are tried in order; football-data switched from two to four
// digit years at some point.
var dateLayouts = []string{"02/01/2006", "02/01/06", "2/1/2006", "2/1/06"}

const outputDateLayout = "02/01/2006"

const bom = "\ufeff"

// ParseDate parses a results file date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// ReadMatches parses a results file. Rows without both team names or with
// non-numeric goals are skipped and counted. Rows with an unparseable date
// are kept with a zero Date so the season processor can drop and report them.
func ReadMatches(r io.Reader) (matches []model.Match, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	idx, err := columns(header, colDate, colHomeTeam, colAwayTeam, colFTHG, colFTAG)
	if err != nil {
		return nil, 0, err
	}
	last := 0
	for _, i := range idx {
		last = max(last, i)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read row: %w", err)
		}
		if len(rec) <= last {
			skipped++
			continue
		}

		home := strings.TrimSpace(rec[idx[1]])
		away := strings.TrimSpace(rec[idx[2]])
		if home == "" || away == "" {
			skipped++
			continue
		}
		hg, errH := strconv.Atoi(strings.TrimSpace(rec[idx[3]]))
		ag, errA := strconv.Atoi(strings.TrimSpace(rec[idx[4]]))
		if errH != nil || errA != nil {
			skipped++
			continue
		}

		raw := strings.TrimSpace(rec[idx[0]])
		date, _ := ParseDate(raw)
		matches = append(matches, model.Match{
			Date:      date,
			RawDate:   raw,
			HomeTeam:  home,
			AwayTeam:  away,
			HomeGoals: hg,
			AwayGoals: ag,
		})
	}
	return matches, skipped, nil
}

// WriteResults writes matches in the football-data results layout read by
// ReadMatches.
func WriteResults(w io.Writer, division string, matches []model.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Div", colDate, colHomeTeam, colAwayTeam, colFTHG, colFTAG, "FTR"}); err != nil {
		return err
	}
	for _, m := range matches {
		date := m.RawDate
		if !m.Date.IsZero() {
			date = m.Date.Format(outputDateLayout)
		}
		rec := []string{
			division,
			date,
			m.HomeTeam,
			m.AwayTeam,
			strconv.Itoa(m.HomeGoals),
			strconv.Itoa(m.AwayGoals),
			fullTimeResult(m.HomeGoals, m.AwayGoals),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fullTimeResult(hg, ag int) string {
	switch {
	case hg > ag:
		return "H"
	case hg < ag:
		return "A"
	}
	return "D"
}

// WriteEnriched writes rows with the pre-match rating columns.
func WriteEnriched(w io.Writer, rows []model.EnrichedMatch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(enrichedHeader); err != nil {
		return err
	}
	for _, m := range rows {
		date := m.RawDate
		if !m.Date.IsZero() {
			date = m.Date.Format(outputDateLayout)
		}
		rec := []string{
			m.Season,
			m.Division,
			date,
			m.HomeTeam,
			m.AwayTeam,
			strconv.Itoa(m.HomeGoals),
			strconv.Itoa(m.AwayGoals),
			formatFloat(m.HomeRating),
			formatFloat(m.AwayRating),
			formatFloat(m.HomeExpected),
			formatFloat(m.AwayExpected),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMovements writes a movement table.
func WriteMovements(w io.Writer, table movement.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(movementsHeader); err != nil {
		return err
	}
	for _, m := range table {
		if err := cw.Write([]string{m.Transition, string(m.Tier), m.Team, string(m.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMovements parses a movement table written by WriteMovements.
func ReadMovements(r io.Reader) (movement.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return movement.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columns(header, movementsHeader...)
	if err != nil {
		return nil, err
	}

	table := movement.Table{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		get := func(i int) string {
			if idx[i] < len(rec) {
				return strings.TrimSpace(rec[idx[i]])
			}
			return ""
		}
		table = append(table, model.Movement{
			Transition: get(0),
			Tier:       model.Tier(get(1)),
			Team:       get(2),
			Status:     model.Status(get(3)),
		})
	}
	return table, nil
}

// columns maps required names to header positions, tolerating a UTF-8 BOM
// and case differences.
func columns(header []string, names ...string) ([]int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	out := make([]int, len(names))
	for i, name := range names {
		out[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				out[i] = j
				break
			}
		}
		if out[i] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return out, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
