package services

import (
	"context"
	"fmt"

	"github.com/inkwave/teamsync-backend/internal/diff"
	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/readstate"
	"github.com/inkwave/teamsync-backend/internal/tracker"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// DiffView is everything the "what changed since I last looked" pane renders.
type DiffView struct {
	FilePath   string         `json:"filePath"`
	CurrentRev string         `json:"currentRev"`
	BaseRev    string         `json:"baseRev,omitempty"`
	Segments   []diff.Segment `json:"segments"`
	Summary    diff.Summary   `json:"summary"`
	Markup     string         `json:"markup"`
	Authors    []string       `json:"authors"`
}

type DiffViewService interface {
	// Build diffs the current document content against the content at the
	// caller's last-seen revision. No read state, or a pruned old revision,
	// diffs from empty.
	Build(ctx context.Context, filePath string) (*DiffView, error)
}

type diffViewService struct {
	docs      docstore.Store
	readstate *readstate.Manager
	tracker   *tracker.Tracker
	log       *logger.Logger
}

func NewDiffViewService(docs docstore.Store, rs *readstate.Manager, tr *tracker.Tracker, log *logger.Logger) DiffViewService {
	return &diffViewService{
		docs:      docs,
		readstate: rs,
		tracker:   tr,
		log:       log.With("service", "DiffViewService"),
	}
}

func (s *diffViewService) Build(ctx context.Context, filePath string) (*DiffView, error) {
	var current types.FileDocument
	ok, err := s.docs.Get(ctx, filePath, &current)
	if err != nil {
		return nil, fmt.Errorf("diff view %s: %w", filePath, err)
	}
	if !ok {
		return nil, fmt.Errorf("diff view %s: %w", filePath, pkgerrors.ErrNotFound)
	}

	oldContent := ""
	baseRev := ""
	state, err := s.readstate.GetReadState(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("diff view %s: %w", filePath, err)
	}
	if state != nil {
		var old types.FileDocument
		ok, err := s.docs.GetRev(ctx, filePath, state.LastSeenRev, &old)
		if err != nil {
			return nil, fmt.Errorf("diff view %s: %w", filePath, err)
		}
		if ok {
			oldContent = old.Content
			baseRev = state.LastSeenRev
		} else {
			s.log.Debug("Last-seen revision no longer available, diffing from empty",
				"file", filePath, "rev", state.LastSeenRev)
		}
	}

	segments := diff.Compute(oldContent, current.Content)

	var authors []string
	for _, entry := range s.tracker.ActivityFeed() {
		if entry.FilePath != filePath {
			continue
		}
		dup := false
		for _, a := range authors {
			if a == entry.ModifiedBy {
				dup = true
				break
			}
		}
		if !dup {
			authors = append(authors, entry.ModifiedBy)
		}
	}

	return &DiffView{
		FilePath:   filePath,
		CurrentRev: current.Rev,
		BaseRev:    baseRev,
		Segments:   segments,
		Summary:    diff.Summarize(segments),
		Markup:     diff.RenderHTML(segments),
		Authors:    authors,
	}, nil
}
