// Package annotations persists anchored comment threads in the revisioned
// document store. All lookups are prefix scans over the annotation keyspace;
// there is no secondary index.
package annotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwave/teamsync-backend/internal/anchor"
	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// CreateInput carries everything needed to mint a new annotation record.
type CreateInput struct {
	FilePath string
	Range    anchor.Range
	Context  anchor.Context
	Content  string
	Author   string
	Mentions []string
	ParentID *string
}

// UpdateFields is a partial update; nil fields are left untouched. The
// resolved flag is not here on purpose: resolution goes through Resolve and
// never reverts.
type UpdateFields struct {
	Content  *string
	Mentions []string
	// Context re-anchors the annotation, e.g. after the author adjusts the
	// selection.
	Context *anchor.Context
}

type Store interface {
	Create(ctx context.Context, in CreateInput) (*types.Annotation, error)
	Get(ctx context.Context, id string) (*types.Annotation, error)
	GetByFile(ctx context.Context, filePath string) ([]types.Annotation, error)
	GetByMention(ctx context.Context, username string) ([]types.Annotation, error)
	GetReplies(ctx context.Context, parentID string) ([]types.Annotation, error)
	Update(ctx context.Context, id string, fields UpdateFields) (bool, error)
	Resolve(ctx context.Context, id string) (bool, error)
	All(ctx context.Context) ([]types.Annotation, error)
}

type store struct {
	docs docstore.Store
	log  *logger.Logger
	now  func() time.Time
}

func NewStore(docs docstore.Store, log *logger.Logger) Store {
	return &store{
		docs: docs,
		log:  log.With("service", "AnnotationStore"),
		now:  time.Now,
	}
}

func newID(now time.Time) string {
	return types.AnnotationPrefix +
		strconv.FormatInt(now.UnixMilli(), 36) + "-" +
		uuid.NewString()[:8]
}

func (s *store) Create(ctx context.Context, in CreateInput) (*types.Annotation, error) {
	if strings.TrimSpace(in.FilePath) == "" {
		return nil, fmt.Errorf("create annotation: %w: missing file path", pkgerrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Author) == "" {
		return nil, fmt.Errorf("create annotation: %w: missing author", pkgerrors.ErrInvalidArgument)
	}

	// A parentId is stored as given. A dangling reference is tolerated: it
	// simply never shows up in GetReplies.
	now := s.now().UTC()
	ann := &types.Annotation{
		ID:            newID(now),
		FilePath:      in.FilePath,
		Range:         in.Range,
		SelectedText:  in.Context.SelectedText,
		ContextBefore: in.Context.ContextBefore,
		ContextAfter:  in.Context.ContextAfter,
		Content:       in.Content,
		Author:        in.Author,
		Mentions:      in.Mentions,
		Timestamp:     now,
		ParentID:      in.ParentID,
	}
	if ann.Mentions == nil {
		ann.Mentions = []string{}
	}

	rev, err := s.docs.Put(ctx, ann)
	if err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}
	ann.Rev = rev
	s.log.Debug("Annotation created", "id", ann.ID, "file", ann.FilePath, "author", ann.Author)
	return ann, nil
}

func (s *store) Get(ctx context.Context, id string) (*types.Annotation, error) {
	var ann types.Annotation
	ok, err := s.docs.Get(ctx, id, &ann)
	if err != nil {
		return nil, fmt.Errorf("get annotation %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("get annotation %s: %w", id, pkgerrors.ErrNotFound)
	}
	return &ann, nil
}

func (s *store) All(ctx context.Context) ([]types.Annotation, error) {
	return s.scan(ctx, func(*types.Annotation) bool { return true })
}

func (s *store) GetByFile(ctx context.Context, filePath string) ([]types.Annotation, error) {
	return s.scan(ctx, func(a *types.Annotation) bool { return a.FilePath == filePath })
}

func (s *store) GetByMention(ctx context.Context, username string) ([]types.Annotation, error) {
	return s.scan(ctx, func(a *types.Annotation) bool {
		for _, m := range a.Mentions {
			if m == username {
				return true
			}
		}
		return false
	})
}

func (s *store) GetReplies(ctx context.Context, parentID string) ([]types.Annotation, error) {
	return s.scan(ctx, func(a *types.Annotation) bool {
		return a.ParentID != nil && *a.ParentID == parentID
	})
}

func (s *store) scan(ctx context.Context, keep func(*types.Annotation) bool) ([]types.Annotation, error) {
	raws, err := s.docs.ListPrefix(ctx, types.AnnotationPrefix)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	out := make([]types.Annotation, 0, len(raws))
	for _, raw := range raws {
		var ann types.Annotation
		if err := json.Unmarshal(raw, &ann); err != nil {
			s.log.Warn("Skipping undecodable annotation record", "error", err.Error())
			continue
		}
		if keep(&ann) {
			out = append(out, ann)
		}
	}
	return out, nil
}

func (s *store) Update(ctx context.Context, id string, fields UpdateFields) (bool, error) {
	ann, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if fields.Content != nil {
		ann.Content = *fields.Content
	}
	if fields.Mentions != nil {
		ann.Mentions = fields.Mentions
	}
	if fields.Context != nil {
		ann.SelectedText = fields.Context.SelectedText
		ann.ContextBefore = fields.Context.ContextBefore
		ann.ContextAfter = fields.Context.ContextAfter
		ann.Range = fields.Context.OriginalRange
	}

	rev, err := s.docs.Put(ctx, ann)
	if err != nil {
		return false, fmt.Errorf("update annotation %s: %w", id, err)
	}
	ann.Rev = rev
	return true, nil
}

// Resolve marks the annotation resolved. Resolution is one-way: a resolved
// annotation stays resolved, and calling again is a no-op.
func (s *store) Resolve(ctx context.Context, id string) (bool, error) {
	ann, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if ann.Resolved {
		return true, nil
	}
	ann.Resolved = true
	if _, err := s.docs.Put(ctx, ann); err != nil {
		return false, fmt.Errorf("resolve annotation %s: %w", id, err)
	}
	return true, nil
}
