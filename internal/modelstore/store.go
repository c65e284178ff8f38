// Package modelstore persists confirmed ArchiMate motivation models. Two
// backends share one API: a directory of JSON documents (default) and
// Postgres when MODEL_STORE_PG_DSN is set. Documents are written once at final
// confirmation and only ever replaced wholesale.
package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"aioep/internal/archimate"
)

// ErrNotFound means no document exists under the requested id.
var ErrNotFound = errors.New("modelstore: model not found")

// ValidationError rejects a save whose required inputs are missing or of the
// wrong shape. Nothing is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Summary is the listing projection of a stored document.
type Summary struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Source            string    `json:"source"`
	CreatedAt         time.Time `json:"createdAt"`
	Status            string    `json:"status"`
	TargetYear        int       `json:"targetYear"`
	ElementCount      int       `json:"elementCount"`
	RelationshipCount int       `json:"relationshipCount"`
}

// SaveResult reports what a save produced.
type SaveResult struct {
	ID                string   `json:"id"`
	ElementCount      int      `json:"elementCount"`
	RelationshipCount int      `json:"relationshipCount"`
	DanglingRelIDs    []string `json:"danglingRelationshipIds,omitempty"`
}

const summariesCacheKey = "summaries"

// Store dispatches to the file or Postgres backend.
type Store struct {
	dir string
	db  *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	summaryCache *lru.Cache[string, []Summary]

	now func() time.Time
}

// New returns a file-backed store rooted at dir. The directory is created
// lazily on first write.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// NewPostgres returns a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []Summary](8)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, summaryCache: cache, now: time.Now}, nil
}

// NewFromEnv picks the Postgres backend when dsn is non-empty and reachable,
// the file backend otherwise.
func NewFromEnv(dir, dsn string) *Store {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return New(dir)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(dir)
	}
	return s
}

// Save assembles and persists a document from the accumulated model. The only
// hard validation is that elements is a present sequence; relationship
// endpoint integrity is reported as a warning, never enforced.
func (s *Store) Save(ctx context.Context, name, source string, targetYear int, elements []archimate.Element, relationships []archimate.Relationship) (SaveResult, error) {
	if elements == nil {
		return SaveResult{}, &ValidationError{Msg: "elements array is required"}
	}
	if relationships == nil {
		relationships = []archimate.Relationship{}
	}
	now := s.now()
	if strings.TrimSpace(name) == "" {
		name = "Strategy model " + now.Format("2006-01-02")
	}
	if strings.TrimSpace(source) == "" {
		source = "AI Wizard"
	}
	if targetYear == 0 {
		targetYear = now.Year()
	}
	doc := archimate.Document{
		ModelVersion: archimate.ModelVersion,
		ModelType:    archimate.ModelType,
		Metadata: archimate.Metadata{
			Name:       name,
			Source:     source,
			CreatedBy:  "ai + human",
			CreatedAt:  now,
			Status:     "confirmed",
			Method:     archimate.MethodLabel,
			TargetYear: targetYear,
		},
		Elements:      elements,
		Relationships: relationships,
	}
	id := fmt.Sprintf("model-%d", now.UnixMilli())

	var err error
	if s.db != nil {
		err = s.putDB(ctx, id, doc)
	} else {
		err = s.putFile(id, doc)
	}
	if err != nil {
		return SaveResult{}, err
	}
	if s.summaryCache != nil {
		s.summaryCache.Remove(summariesCacheKey)
	}
	return SaveResult{
		ID:                id,
		ElementCount:      len(elements),
		RelationshipCount: len(relationships),
		DanglingRelIDs:    archimate.DanglingEndpoints(elements, relationships),
	}, nil
}

// Get reads one document by id.
func (s *Store) Get(ctx context.Context, id string) (archimate.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return archimate.Document{}, ErrNotFound
	}
	if s.db != nil {
		return s.getDB(ctx, id)
	}
	return s.getFile(id)
}

// List returns summaries of all stored documents, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if s.db != nil {
		if s.summaryCache != nil {
			if cached, ok := s.summaryCache.Get(summariesCacheKey); ok {
				return cached, nil
			}
		}
		out, err := s.listDB(ctx)
		if err != nil {
			return nil, err
		}
		if s.summaryCache != nil {
			s.summaryCache.Add(summariesCacheKey, out)
		}
		return out, nil
	}
	return s.listFile()
}

// Close releases the database handle on the Postgres backend.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func summarize(id string, doc archimate.Document) Summary {
	return Summary{
		ID:                id,
		Name:              doc.Metadata.Name,
		Source:            doc.Metadata.Source,
		CreatedAt:         doc.Metadata.CreatedAt,
		Status:            doc.Metadata.Status,
		TargetYear:        doc.Metadata.TargetYear,
		ElementCount:      len(doc.Elements),
		RelationshipCount: len(doc.Relationships),
	}
}
