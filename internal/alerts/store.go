package alerts

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"RiskSentinel/internal/artifacts"
	"RiskSentinel/internal/model"
)

// CombinedFileName is the merged feed of all categories.
const CombinedFileName = "alerts.json"

// File is the on-disk shape of every alert file.
type File struct {
	UpdatedAt time.Time     `json:"updated_at"`
	Alerts    []model.Alert `json:"alerts"`
}

// Store persists alerts per category plus a combined feed.
type Store struct {
	dir       string
	retention Retention
	log       zerolog.Logger
}

// NewStore returns a store writing under dir.
func NewStore(dir string, retention Retention, log zerolog.Logger) *Store {
	return &Store{dir: dir, retention: retention, log: log.With().Str("component", "alerts").Logger()}
}

// CategoryPath returns the file for one category.
func (s *Store) CategoryPath(typ model.AlertType) string {
	return filepath.Join(s.dir, fmt.Sprintf("alerts_%s.json", typ))
}

// Load reads one category file. Missing files are empty.
func (s *Store) Load(typ model.AlertType) ([]model.Alert, error) {
	var f File
	if _, err := artifacts.ReadJSON(s.CategoryPath(typ), &f); err != nil {
		return nil, fmt.Errorf("load %s alerts: %w", typ, err)
	}
	return f.Alerts, nil
}

// Save merges incoming alerts into the stored files and returns the ones
// that were actually new. Retention and caps are applied on every save, so
// the files are rewritten even when nothing new arrived.
func (s *Store) Save(now time.Time, incoming []model.Alert) ([]model.Alert, error) {
	byType := make(map[model.AlertType][]model.Alert)
	for _, a := range incoming {
		byType[a.Type] = append(byType[a.Type], a)
	}

	var added, combined []model.Alert
	for _, typ := range model.AlertTypes {
		existing, err := s.Load(typ)
		if err != nil {
			return nil, err
		}
		fresh := Dedupe(existing, byType[typ])
		kept := Prune(append(existing, fresh...), now, s.retention.Days[typ], s.retention.MaxPerCategory)

		if err := artifacts.WriteJSON(s.CategoryPath(typ), File{UpdatedAt: now.UTC(), Alerts: kept}); err != nil {
			return nil, fmt.Errorf("write %s alerts: %w", typ, err)
		}
		if len(fresh) > 0 {
			s.log.Info().Str("category", string(typ)).Int("new", len(fresh)).Int("kept", len(kept)).Msg("alerts stored")
		}
		added = append(added, fresh...)
		combined = append(combined, kept...)
	}

	combined = Prune(combined, now, 0, s.retention.MaxCombined)
	if err := artifacts.WriteJSON(filepath.Join(s.dir, CombinedFileName), File{UpdatedAt: now.UTC(), Alerts: combined}); err != nil {
		return nil, fmt.Errorf("write combined alerts: %w", err)
	}
	return added, nil
}
