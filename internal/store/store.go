package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"racestats/internal/results"
	"racestats/internal/store/db"
	"racestats/lib/telemetry"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("racestats.internal.store")

var ErrRaceNotFound = errors.New("race not found")

type Config struct {
	// File is the path of a local sqlite database.
	File string `json:"file"`
	// Url is a libsql server, it takes precedence over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func openRemote(config Config) (*sql.DB, error) {
	link, err := url.Parse(config.Url)
	if err != nil {
		return nil, fmt.Errorf("parse libsql url: %w", err)
	}
	if config.AuthToken != "" {
		query := link.Query()
		query.Set("authToken", config.AuthToken)
		link.RawQuery = query.Encode()
	}
	return sql.Open("libsql", link.String())
}

func openFile(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer, sharing one connection
	// avoids SQLITE_BUSY and keeps :memory: databases alive
	database.SetMaxOpenConns(1)
	_, err = database.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Open connects to the database described by `config` and applies the schema.
func Open(ctx context.Context, config Config) (*sql.DB, error) {
	var (
		database *sql.DB
		err      error
	)
	switch {
	case config.Url != "":
		database, err = openRemote(config)
	case config.File != "":
		database, err = openFile(config.File)
	default:
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}
	if err != nil {
		return nil, err
	}

	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func New(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type RaceInfo struct {
	Key       results.RaceKey
	Name      string
	Date      time.Time
	Category  string
	Results   int
	FetchedAt time.Time
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(s int64) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(s, 0).UTC()
}

func (s Store) raceID(ctx context.Context, qry *db.Queries, key results.RaceKey) (int64, error) {
	row, err := qry.GetRace(ctx, db.GetRaceParams{
		Competition: key.Competition,
		Race:        key.Race,
		Event:       key.Event,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrRaceNotFound, key)
	}
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func deleteRace(ctx context.Context, qry *db.Queries, id int64) error {
	err := qry.DeleteSplits(ctx, id)
	if err != nil {
		return err
	}
	err = qry.DeleteResults(ctx, id)
	if err != nil {
		return err
	}
	return qry.DeleteRace(ctx, id)
}

// SaveRace stores `race`, replacing a previously stored race with the same key.
func (s Store) SaveRace(ctx context.Context, race results.Race) error {
	ctx, span := tracer.Start(ctx, "SaveRace")
	defer span.End()
	span.SetAttributes(
		attribute.String("race", race.Key.String()),
		attribute.Int("results", len(race.Results)),
	)

	if race.Key.IsZero() {
		return fmt.Errorf("race has no key")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	existing, err := s.raceID(ctx, txqry, race.Key)
	switch {
	case err == nil:
		err = deleteRace(ctx, txqry, existing)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "replacing stored race", "race", race.Key.String())
	case !errors.Is(err, ErrRaceNotFound):
		return err
	}

	raceId, err := txqry.CreateRace(ctx, db.CreateRaceParams{
		Competition: race.Key.Competition,
		Race:        race.Key.Race,
		Event:       race.Key.Event,
		Name:        race.Name,
		Date:        toUnix(race.Date),
		Category:    race.Category,
		SourceUrl:   race.SourceURL,
		FetchedAt:   toUnix(race.FetchedAt),
	})
	if err != nil {
		return err
	}

	for i, r := range race.Results {
		resultId, err := txqry.CreateResult(ctx, db.CreateResultParams{
			RaceID:   raceId,
			Position: int64(i),
			Place:    int64(r.Place),
			Bib:      r.Bib,
			Name:     r.Name,
			Team:     r.Team,
			Country:  r.Country,
			Category: r.Category,
			Status:   int64(r.Status),
			FinishMs: r.Finish.Milliseconds(),
		})
		if err != nil {
			return err
		}
		for j, split := range r.Splits {
			err := txqry.CreateSplit(ctx, db.CreateSplitParams{
				ResultID: resultId,
				Position: int64(j),
				Name:     split.Name,
				TimeMs:   split.Time.Milliseconds(),
			})
			if err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		return err
	}
	return nil
}

// Races lists the stored races, most recent first.
func (s Store) Races(ctx context.Context) ([]RaceInfo, error) {
	ctx, span := tracer.Start(ctx, "Races")
	defer span.End()

	rows, err := s.qry.ListRaces(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RaceInfo, len(rows))
	for i, r := range rows {
		out[i] = RaceInfo{
			Key: results.RaceKey{
				Competition: r.Competition,
				Race:        r.Race,
				Event:       r.Event,
			},
			Name:      r.Name,
			Date:      fromUnix(r.Date),
			Category:  r.Category,
			Results:   int(r.Results),
			FetchedAt: fromUnix(r.FetchedAt),
		}
	}
	return out, nil
}

// Race loads a stored race and its results.
func (s Store) Race(ctx context.Context, key results.RaceKey) (results.Race, error) {
	ctx, span := tracer.Start(ctx, "Race")
	defer span.End()
	span.SetAttributes(attribute.String("race", key.String()))

	row, err := s.qry.GetRace(ctx, db.GetRaceParams{
		Competition: key.Competition,
		Race:        key.Race,
		Event:       key.Event,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return results.Race{}, fmt.Errorf("%w: %s", ErrRaceNotFound, key)
	}
	if err != nil {
		return results.Race{}, err
	}

	race := results.Race{
		Key:       key,
		Name:      row.Name,
		Date:      fromUnix(row.Date),
		Category:  row.Category,
		SourceURL: row.SourceUrl,
		FetchedAt: fromUnix(row.FetchedAt),
	}

	resultRows, err := s.qry.GetResults(ctx, row.ID)
	if err != nil {
		return results.Race{}, err
	}
	splitRows, err := s.qry.GetSplits(ctx, row.ID)
	if err != nil {
		return results.Race{}, err
	}
	splits := map[int64][]results.Split{}
	for _, split := range splitRows {
		splits[split.ResultID] = append(splits[split.ResultID], results.Split{
			Name: split.Name,
			Time: time.Duration(split.TimeMs) * time.Millisecond,
		})
	}

	race.Results = make([]results.Result, len(resultRows))
	for i, r := range resultRows {
		race.Results[i] = results.Result{
			Place:    int(r.Place),
			Bib:      r.Bib,
			Name:     r.Name,
			Team:     r.Team,
			Country:  r.Country,
			Category: r.Category,
			Status:   results.Status(r.Status),
			Finish:   time.Duration(r.FinishMs) * time.Millisecond,
			Splits:   splits[r.ID],
			Race:     key,
		}
	}
	return race, nil
}

// Load loads several stored races, stopping at the first that is missing.
func (s Store) Load(ctx context.Context, keys []results.RaceKey) ([]results.Race, error) {
	races := make([]results.Race, 0, len(keys))
	for _, key := range keys {
		race, err := s.Race(ctx, key)
		if err != nil {
			return nil, err
		}
		races = append(races, race)
	}
	return races, nil
}

// DeleteRace removes a stored race and its results.
func (s Store) DeleteRace(ctx context.Context, key results.RaceKey) error {
	ctx, span := tracer.Start(ctx, "DeleteRace")
	defer span.End()
	span.SetAttributes(attribute.String("race", key.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	id, err := s.raceID(ctx, txqry, key)
	if err != nil {
		return err
	}
	err = deleteRace(ctx, txqry, id)
	if err != nil {
		return err
	}
	return tx.Commit()
}
