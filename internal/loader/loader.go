// Package loader reads match event files from disk. A match file holds either
// one match object or an array of matches in JSON form.
package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/refmetrics/internal/model"
)

// Loader decodes match files into model.Match values.
type Loader struct {
	log *logrus.Entry
}

// New returns a loader that logs through the given logger.
func New(log *logrus.Logger) *Loader {
	return &Loader{log: log.WithField("component", "loader")}
}

// Load reads the given path. A directory is walked for *.json files in
// lexical order; a file is decoded directly.
func (l *Loader) Load(path string) ([]model.Match, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return l.loadDir(path)
	}
	return l.loadFile(path)
}

func (l *Loader) loadDir(dir string) ([]model.Match, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	var matches []model.Match
	for _, file := range files {
		ms, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		matches = append(matches, ms...)
	}
	l.log.WithFields(logrus.Fields{"files": len(files), "matches": len(matches)}).Info("loaded match files")
	return matches, nil
}

func (l *Loader) loadFile(path string) ([]model.Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	var matches []model.Match
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &matches); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else {
		var m model.Match
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		matches = []model.Match{m}
	}

	for i := range matches {
		if err := validate(&matches[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return matches, nil
}

// validate rejects matches missing the keys the pipeline depends on.
func validate(m *model.Match) error {
	if m.MatchID == 0 {
		return fmt.Errorf("match missing match_id")
	}
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return fmt.Errorf("match %d missing team names", m.MatchID)
	}
	if m.HomeTeam == m.AwayTeam {
		return fmt.Errorf("match %d has identical home and away team %q", m.MatchID, m.HomeTeam)
	}
	if m.RefereeName == "" {
		return fmt.Errorf("match %d missing referee name", m.MatchID)
	}
	return nil
}
