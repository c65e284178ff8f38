package modelstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aioep/internal/archimate"
)

func (s *Store) putFile(id string, doc archimate.Document) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	// Write via a temp file so a crashed save never leaves a torn document.
	tmp := filepath.Join(s.dir, id+".json.tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, id+".json"))
}

func (s *Store) getFile(id string) (archimate.Document, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return archimate.Document{}, ErrNotFound
		}
		return archimate.Document{}, err
	}
	var doc archimate.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return archimate.Document{}, err
	}
	return doc, nil
}

func (s *Store) listFile() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		doc, err := s.getFile(id)
		if err != nil {
			// Unparseable documents still show up in the listing.
			out = append(out, Summary{ID: id, Name: e.Name(), Status: "error"})
			continue
		}
		out = append(out, summarize(id, doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
