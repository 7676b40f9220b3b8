package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pitchside/refmetrics/internal/model"
)

// encoding/json rejects non-finite floats, but an infinite ppda is a valid
// feature value (a team with zero defensive actions). Infinities are stored
// as sentinel strings and restored on scan.
const (
	posInfSentinel = "+Inf"
	negInfSentinel = "-Inf"
)

func encodeFeatures(feats map[string]float64) ([]byte, error) {
	out := make(map[string]any, len(feats))
	for name, v := range feats {
		switch {
		case math.IsInf(v, 1):
			out[name] = posInfSentinel
		case math.IsInf(v, -1):
			out[name] = negInfSentinel
		default:
			out[name] = v
		}
	}
	return json.Marshal(out)
}

func decodeFeatures(data []byte) (map[string]float64, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case float64:
			out[name] = val
		case string:
			switch val {
			case posInfSentinel:
				out[name] = math.Inf(1)
			case negInfSentinel:
				out[name] = math.Inf(-1)
			default:
				return nil, fmt.Errorf("feature %q holds non-numeric value %q", name, val)
			}
		default:
			return nil, fmt.Errorf("feature %q holds non-numeric value %v", name, v)
		}
	}
	return out, nil
}

// InsertMatches stores match metadata. Uses INSERT OR REPLACE for idempotency;
// events are not persisted, only their extracted features are.
func (db *DB) InsertMatches(matches []model.Match) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(match_id, match_date, home_team, away_team, referee_name, competition_id, season_id)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range matches {
		m := &matches[i]
		_, err = stmt.Exec(m.MatchID, m.MatchDate, m.HomeTeam, m.AwayTeam, m.RefereeName, m.CompetitionID, m.SeasonID)
		if err != nil {
			return fmt.Errorf("insert match %d: %w", m.MatchID, err)
		}
	}
	return tx.Commit()
}

// InsertFeatureRows bulk-inserts feature rows in a transaction. The feature
// map is stored as JSON; archetype columns start empty and are filled by
// SetArchetype.
func (db *DB) InsertFeatureRows(rows []model.FeatureRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO team_match_features(
			match_id, team, opponent, home_away, match_date,
			referee_name, competition_id, season_id, features
		) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		feats, err := encodeFeatures(r.Features)
		if err != nil {
			return fmt.Errorf("marshal features for %d/%s: %w", r.MatchID, r.Team, err)
		}
		_, err = stmt.Exec(r.MatchID, r.Team, r.Opponent, r.HomeAway, r.MatchDate,
			r.RefereeName, r.CompetitionID, r.SeasonID, string(feats))
		if err != nil {
			return fmt.Errorf("insert feature row for %d/%s: %w", r.MatchID, r.Team, err)
		}
	}
	return tx.Commit()
}

// SetArchetype writes the categorization for one feature row.
func (db *DB) SetArchetype(matchID int64, team string, a *model.ArchetypeRow) error {
	overlays, err := json.Marshal(a.Overlays)
	if err != nil {
		return fmt.Errorf("marshal overlays: %w", err)
	}
	res, err := db.conn.Exec(`
		UPDATE team_match_features
		SET pressing = ?, block = ?, possession_directness = ?, width = ?,
		    transition = ?, overlays = ?, archetype = ?
		WHERE match_id = ? AND team = ?`,
		a.Pressing, a.Block, a.PossessionDirectness, a.Width,
		a.Transition, string(overlays), a.Archetype, matchID, team)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no feature row for match %d team %s", matchID, team)
	}
	return nil
}

// ListMatches returns all stored match metadata ordered by match_date.
func (db *DB) ListMatches() ([]model.Match, error) {
	rows, err := db.conn.Query(`
		SELECT match_id, match_date, home_team, away_team, referee_name, competition_id, season_id
		FROM matches ORDER BY match_date, match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.MatchID, &m.MatchDate, &m.HomeTeam, &m.AwayTeam,
			&m.RefereeName, &m.CompetitionID, &m.SeasonID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const featureRowColumns = `
	match_id, team, opponent, home_away, match_date,
	referee_name, competition_id, season_id, features`

func scanFeatureRow(scan func(...any) error) (model.FeatureRow, error) {
	var r model.FeatureRow
	var feats string
	err := scan(&r.MatchID, &r.Team, &r.Opponent, &r.HomeAway, &r.MatchDate,
		&r.RefereeName, &r.CompetitionID, &r.SeasonID, &feats)
	if err != nil {
		return r, err
	}
	r.Features, err = decodeFeatures([]byte(feats))
	if err != nil {
		return r, fmt.Errorf("decode features for %d/%s: %w", r.MatchID, r.Team, err)
	}
	return r, nil
}

// GetFeatureRows returns every stored feature row ordered by match then team.
func (db *DB) GetFeatureRows() ([]model.FeatureRow, error) {
	rows, err := db.conn.Query(`
		SELECT` + featureRowColumns + `
		FROM team_match_features ORDER BY match_id, home_away DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeatureRow
	for rows.Next() {
		r, err := scanFeatureRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetFeatureRow returns one team's row for a match, or nil when absent.
func (db *DB) GetFeatureRow(matchID int64, team string) (*model.FeatureRow, error) {
	r, err := scanFeatureRow(db.conn.QueryRow(`
		SELECT`+featureRowColumns+`
		FROM team_match_features WHERE match_id = ? AND team = ?`, matchID, team).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// TeamArchetype is one stored categorization with its row identity.
type TeamArchetype struct {
	MatchID   int64
	MatchDate string
	Team      string
	Opponent  string
	Tags      model.ArchetypeRow
}

// GetArchetypes returns stored categorizations, optionally filtered by team
// (empty team means all), ordered by match_date.
func (db *DB) GetArchetypes(team string) ([]TeamArchetype, error) {
	query := `
		SELECT match_id, match_date, team, opponent,
		       pressing, block, possession_directness, width, transition, overlays, archetype
		FROM team_match_features WHERE archetype != ''`
	args := []any{}
	if team != "" {
		query += ` AND team = ?`
		args = append(args, team)
	}
	query += ` ORDER BY match_date, match_id, home_away DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamArchetype
	for rows.Next() {
		var a TeamArchetype
		var overlays string
		if err := rows.Scan(&a.MatchID, &a.MatchDate, &a.Team, &a.Opponent,
			&a.Tags.Pressing, &a.Tags.Block, &a.Tags.PossessionDirectness,
			&a.Tags.Width, &a.Tags.Transition, &overlays, &a.Tags.Archetype); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(overlays), &a.Tags.Overlays); err != nil {
			return nil, fmt.Errorf("decode overlays for %d/%s: %w", a.MatchID, a.Team, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveZoneModels replaces the stored model set with the given one. Each model
// is stored as a JSON blob so the coefficient table round-trips exactly.
func (db *DB) SaveZoneModels(models map[model.ZoneID]*model.ZoneModel) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM zone_models`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO zone_models(zone_x, zone_y, fitted_at, model) VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	fittedAt := time.Now().UTC().Format(time.RFC3339)
	for zone, zm := range models {
		blob, err := json.Marshal(zm)
		if err != nil {
			return fmt.Errorf("marshal model for %s: %w", zone, err)
		}
		if _, err := stmt.Exec(zone.X, zone.Y, fittedAt, string(blob)); err != nil {
			return fmt.Errorf("insert model for %s: %w", zone, err)
		}
	}
	return tx.Commit()
}

// LoadZoneModels returns the stored model set keyed by zone. An empty map
// means no fit has been persisted.
func (db *DB) LoadZoneModels() (map[model.ZoneID]*model.ZoneModel, error) {
	rows, err := db.conn.Query(`SELECT zone_x, zone_y, model FROM zone_models`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.ZoneID]*model.ZoneModel)
	for rows.Next() {
		var x, y int
		var blob string
		if err := rows.Scan(&x, &y, &blob); err != nil {
			return nil, err
		}
		var zm model.ZoneModel
		if err := json.Unmarshal([]byte(blob), &zm); err != nil {
			return nil, fmt.Errorf("decode model for zone_%d_%d: %w", x, y, err)
		}
		out[model.ZoneID{X: x, Y: y}] = &zm
	}
	return out, rows.Err()
}
