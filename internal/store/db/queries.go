package db

import (
	"context"
)

const createRace = `
insert into race (competition, race, event, name, date, category, source_url, fetched_at)
values (?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreateRaceParams struct {
	Competition string
	Race        string
	Event       string
	Name        string
	Date        int64
	Category    string
	SourceUrl   string
	FetchedAt   int64
}

func (q *Queries) CreateRace(ctx context.Context, arg CreateRaceParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRace,
		arg.Competition,
		arg.Race,
		arg.Event,
		arg.Name,
		arg.Date,
		arg.Category,
		arg.SourceUrl,
		arg.FetchedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getRace = `
select id, competition, race, event, name, date, category, source_url, fetched_at from race
where competition = ? and race = ? and event = ?
`

type GetRaceParams struct {
	Competition string
	Race        string
	Event       string
}

func (q *Queries) GetRace(ctx context.Context, arg GetRaceParams) (Race, error) {
	row := q.db.QueryRowContext(ctx, getRace, arg.Competition, arg.Race, arg.Event)
	var i Race
	err := row.Scan(
		&i.ID,
		&i.Competition,
		&i.Race,
		&i.Event,
		&i.Name,
		&i.Date,
		&i.Category,
		&i.SourceUrl,
		&i.FetchedAt,
	)
	return i, err
}

const listRaces = `
select race.id, race.competition, race.race, race.event, race.name, race.date,
    race.category, race.fetched_at, count(result.id) as results
from race
left join result on result.race_id = race.id
group by race.id
order by race.date desc, race.competition, race.race, race.event
`

type ListRacesRow struct {
	ID          int64
	Competition string
	Race        string
	Event       string
	Name        string
	Date        int64
	Category    string
	FetchedAt   int64
	Results     int64
}

func (q *Queries) ListRaces(ctx context.Context) ([]ListRacesRow, error) {
	rows, err := q.db.QueryContext(ctx, listRaces)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRacesRow
	for rows.Next() {
		var i ListRacesRow
		if err := rows.Scan(
			&i.ID,
			&i.Competition,
			&i.Race,
			&i.Event,
			&i.Name,
			&i.Date,
			&i.Category,
			&i.FetchedAt,
			&i.Results,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteSplits = `
delete from split where result_id in (select id from result where race_id = ?)
`

func (q *Queries) DeleteSplits(ctx context.Context, raceID int64) error {
	_, err := q.db.ExecContext(ctx, deleteSplits, raceID)
	return err
}

const deleteResults = `
delete from result where race_id = ?
`

func (q *Queries) DeleteResults(ctx context.Context, raceID int64) error {
	_, err := q.db.ExecContext(ctx, deleteResults, raceID)
	return err
}

const deleteRace = `
delete from race where id = ?
`

func (q *Queries) DeleteRace(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteRace, id)
	return err
}

const createResult = `
insert into result (race_id, position, place, bib, name, team, country, category, status, finish_ms)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreateResultParams struct {
	RaceID   int64
	Position int64
	Place    int64
	Bib      string
	Name     string
	Team     string
	Country  string
	Category string
	Status   int64
	FinishMs int64
}

func (q *Queries) CreateResult(ctx context.Context, arg CreateResultParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createResult,
		arg.RaceID,
		arg.Position,
		arg.Place,
		arg.Bib,
		arg.Name,
		arg.Team,
		arg.Country,
		arg.Category,
		arg.Status,
		arg.FinishMs,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getResults = `
select id, race_id, position, place, bib, name, team, country, category, status, finish_ms from result
where race_id = ?
order by position
`

func (q *Queries) GetResults(ctx context.Context, raceID int64) ([]Result, error) {
	rows, err := q.db.QueryContext(ctx, getResults, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Result
	for rows.Next() {
		var i Result
		if err := rows.Scan(
			&i.ID,
			&i.RaceID,
			&i.Position,
			&i.Place,
			&i.Bib,
			&i.Name,
			&i.Team,
			&i.Country,
			&i.Category,
			&i.Status,
			&i.FinishMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSplit = `
insert into split (result_id, position, name, time_ms)
values (?, ?, ?, ?)
`

type CreateSplitParams struct {
	ResultID int64
	Position int64
	Name     string
	TimeMs   int64
}

func (q *Queries) CreateSplit(ctx context.Context, arg CreateSplitParams) error {
	_, err := q.db.ExecContext(ctx, createSplit,
		arg.ResultID,
		arg.Position,
		arg.Name,
		arg.TimeMs,
	)
	return err
}

const getSplits = `
select split.result_id, split.position, split.name, split.time_ms from split
inner join result on result.id = split.result_id
where result.race_id = ?
order by split.result_id, split.position
`

func (q *Queries) GetSplits(ctx context.Context, raceID int64) ([]Split, error) {
	rows, err := q.db.QueryContext(ctx, getSplits, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Split
	for rows.Next() {
		var i Split
		if err := rows.Scan(
			&i.ResultID,
			&i.Position,
			&i.Name,
			&i.TimeMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
