package schedule

import (
	"context"
	"sort"
	"time"
)

// Report shapes mirror the dashboard pages: each one is a filter or
// pivot over the full games table computed in memory.

// FieldPivot is the field-occupancy grid for one week: time slots down,
// fields across, the division occupying each slot in the cells.
type FieldPivot struct {
	Week   int        `json:"week"`
	Fields []string   `json:"fields"`
	Rows   []PivotRow `json:"rows"`
}

type PivotRow struct {
	Time    string            `json:"time"`
	ByField map[string]string `json:"by_field"`
}

func (s *Store) FieldPivot(ctx context.Context, week int) (FieldPivot, error) {
	games, err := s.List(ctx, Filter{Weeks: []int{week}})
	if err != nil {
		return FieldPivot{}, err
	}

	fieldSet := map[string]bool{}
	byTime := map[string]map[string]string{}
	var times []string
	for _, g := range games {
		if g.Field == "" {
			continue
		}
		fieldSet[g.Field] = true
		if byTime[g.Time] == nil {
			byTime[g.Time] = map[string]string{}
			times = append(times, g.Time)
		}
		// first game wins the slot, matching the source report
		if _, ok := byTime[g.Time][g.Field]; !ok {
			byTime[g.Time][g.Field] = g.Division
		}
	}

	fields := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	sort.Strings(times)

	p := FieldPivot{Week: week, Fields: fields}
	for _, t := range times {
		p.Rows = append(p.Rows, PivotRow{Time: t, ByField: byTime[t]})
	}
	return p, nil
}

// TeamSchedule is one team's season with a home/away marker per game.
type TeamSchedule struct {
	Team      string     `json:"team"`
	Total     int        `json:"total"`
	HomeGames int        `json:"home_games"`
	AwayGames int        `json:"away_games"`
	Games     []TeamGame `json:"games"`
}

type TeamGame struct {
	Game
	HomeAway string `json:"home_away"`
}

func (s *Store) TeamSchedule(ctx context.Context, team string) (TeamSchedule, error) {
	games, err := s.List(ctx, Filter{Team: team})
	if err != nil {
		return TeamSchedule{}, err
	}
	ts := TeamSchedule{Team: team, Total: len(games)}
	for _, g := range games {
		side := "Away"
		if g.Home == team {
			side = "Home"
			ts.HomeGames++
		} else {
			ts.AwayGames++
		}
		ts.Games = append(ts.Games, TeamGame{Game: g, HomeAway: side})
	}
	return ts, nil
}

// DivisionStats counts games per division and per week within each
// division.
type DivisionStats struct {
	PerDivision []DivisionCount     `json:"per_division"`
	PerWeek     []WeekDivisionCount `json:"per_week"`
}

type DivisionCount struct {
	Division string `json:"division"`
	Games    int    `json:"games"`
}

type WeekDivisionCount struct {
	Week     int    `json:"week"`
	Division string `json:"division"`
	Games    int    `json:"games"`
}

func (s *Store) DivisionStats(ctx context.Context) (DivisionStats, error) {
	games, err := s.List(ctx, Filter{})
	if err != nil {
		return DivisionStats{}, err
	}

	perDiv := map[string]int{}
	type wk struct {
		week int
		div  string
	}
	perWeek := map[wk]int{}
	for _, g := range games {
		perDiv[g.Division]++
		perWeek[wk{g.Week, g.Division}]++
	}

	var stats DivisionStats
	for d, n := range perDiv {
		stats.PerDivision = append(stats.PerDivision, DivisionCount{d, n})
	}
	sort.Slice(stats.PerDivision, func(i, j int) bool {
		a, b := stats.PerDivision[i], stats.PerDivision[j]
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Division < b.Division
	})
	for k, n := range perWeek {
		stats.PerWeek = append(stats.PerWeek, WeekDivisionCount{k.week, k.div, n})
	}
	sort.Slice(stats.PerWeek, func(i, j int) bool {
		a, b := stats.PerWeek[i], stats.PerWeek[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.Division < b.Division
	})
	return stats, nil
}

// TeamDateMatrix counts how many games each team in a division plays on
// each date, with a per-team season total.
type TeamDateMatrix struct {
	Division string      `json:"division"`
	Dates    []string    `json:"dates"`
	Rows     []MatrixRow `json:"rows"`
}

type MatrixRow struct {
	Team   string         `json:"team"`
	ByDate map[string]int `json:"by_date"`
	Total  int            `json:"total"`
}

func (s *Store) TeamDateMatrix(ctx context.Context, division string) (TeamDateMatrix, error) {
	games, err := s.List(ctx, Filter{Divisions: []string{division}})
	if err != nil {
		return TeamDateMatrix{}, err
	}

	dateSet := map[string]bool{}
	counts := map[string]map[string]int{}
	totals := map[string]int{}
	bump := func(team, date string) {
		if team == "" {
			return
		}
		if counts[team] == nil {
			counts[team] = map[string]int{}
		}
		counts[team][date]++
		totals[team]++
	}
	for _, g := range games {
		dateSet[g.GameDate] = true
		bump(g.Home, g.GameDate)
		bump(g.Away, g.GameDate)
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sortDates(dates)

	teams := make([]string, 0, len(counts))
	for t := range counts {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	m := TeamDateMatrix{Division: division, Dates: dates}
	for _, t := range teams {
		m.Rows = append(m.Rows, MatrixRow{Team: t, ByDate: counts[t], Total: totals[t]})
	}
	return m, nil
}

// sortDates orders display-string dates chronologically when they parse,
// falling back to lexical order for anything unparseable.
func sortDates(dates []string) {
	sort.Slice(dates, func(i, j int) bool {
		ti, iok := parseDate(dates[i])
		tj, jok := parseDate(dates[j])
		if iok && jok {
			return ti.Before(tj)
		}
		if iok != jok {
			return iok
		}
		return dates[i] < dates[j]
	})
}

// Calendar is a monthly grid, Monday-first, each cell carrying the games
// played that day.
type Calendar struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Weeks [][]CalendarDay `json:"weeks"`
}

type CalendarDay struct {
	Day   int    `json:"day"` // 0 for padding cells outside the month
	Date  string `json:"date,omitempty"`
	Games []Game `json:"games,omitempty"`
}

func (s *Store) Calendar(ctx context.Context, year, month int) (Calendar, error) {
	games, err := s.List(ctx, Filter{})
	if err != nil {
		return Calendar{}, err
	}

	byDay := map[int][]Game{}
	for _, g := range games {
		t, ok := parseDate(g.GameDate)
		if !ok || t.Year() != year || int(t.Month()) != month {
			continue
		}
		byDay[t.Day()] = append(byDay[t.Day()], g)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	lead := int(first.Weekday())
	if lead == 0 {
		lead = 7
	}
	lead-- // padding cells before the 1st in a Monday-first grid

	cal := Calendar{Year: year, Month: month}
	week := make([]CalendarDay, 0, 7)
	for i := 0; i < lead; i++ {
		week = append(week, CalendarDay{})
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
		week = append(week, CalendarDay{
			Day:   day,
			Date:  date.Format("2006-01-02"),
			Games: byDay[day],
		})
		if len(week) == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week = make([]CalendarDay, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, CalendarDay{})
		}
		cal.Weeks = append(cal.Weeks, week)
	}
	return cal, nil
}
