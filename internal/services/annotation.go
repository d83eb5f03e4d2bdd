package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inkwave/teamsync-backend/internal/anchor"
	"github.com/inkwave/teamsync-backend/internal/annotations"
	"github.com/inkwave/teamsync-backend/internal/notify"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// EditorAnnotation is a render-ready annotation: the range has been relocated
// against the current document text.
type EditorAnnotation struct {
	ID         string       `json:"id"`
	Range      anchor.Range `json:"range"`
	Content    string       `json:"content"`
	Author     string       `json:"author"`
	Timestamp  time.Time    `json:"timestamp"`
	Resolved   bool         `json:"resolved"`
	ReplyCount int          `json:"replyCount"`
}

type AnnotationService interface {
	// RefreshForFile relocates every top-level annotation of a file against
	// the current text. Relocation misses fall back to the stored range;
	// annotations whose stored range no longer fits the document are dropped
	// from the view (not from the store).
	RefreshForFile(ctx context.Context, filePath, docText string) ([]EditorAnnotation, error)
	// CreateFromSelection captures the anchoring context and persists the
	// annotation; mentioned users get a notification.
	CreateFromSelection(ctx context.Context, filePath, docText string, r anchor.Range, content string, mentions []string) (*types.Annotation, error)
	Reply(ctx context.Context, parentID, content string) (*types.Annotation, error)
	// Resolve marks an annotation resolved; resolution never reverts.
	Resolve(ctx context.Context, id string) (bool, error)
}

type annotationService struct {
	store      annotations.Store
	dispatcher *notify.Dispatcher
	team       TeamService
	log        *logger.Logger
}

// NewAnnotationService wires the store to the notification fanout. dispatcher
// may be nil; creation then skips notifications.
func NewAnnotationService(store annotations.Store, dispatcher *notify.Dispatcher, team TeamService, log *logger.Logger) AnnotationService {
	return &annotationService{
		store:      store,
		dispatcher: dispatcher,
		team:       team,
		log:        log.With("service", "AnnotationService"),
	}
}

func (s *annotationService) RefreshForFile(ctx context.Context, filePath, docText string) ([]EditorAnnotation, error) {
	anns, err := s.store.GetByFile(ctx, filePath)
	if err != nil {
		return nil, err
	}

	replyCounts := make(map[string]int)
	for i := range anns {
		if anns[i].ParentID != nil {
			replyCounts[*anns[i].ParentID]++
		}
	}

	out := make([]EditorAnnotation, 0, len(anns))
	for i := range anns {
		ann := &anns[i]
		if ann.ParentID != nil {
			continue
		}

		r, found := anchor.Find(docText, ann.AnchorContext())
		if !found {
			r = ann.Range
			if !rangeFits(docText, r) {
				s.log.Debug("Annotation dropped from view, range no longer fits",
					"id", ann.ID, "file", filePath)
				continue
			}
		}

		out = append(out, EditorAnnotation{
			ID:         ann.ID,
			Range:      r,
			Content:    ann.Content,
			Author:     ann.Author,
			Timestamp:  ann.Timestamp,
			Resolved:   ann.Resolved,
			ReplyCount: replyCounts[ann.ID],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.StartLine != out[j].Range.StartLine {
			return out[i].Range.StartLine < out[j].Range.StartLine
		}
		return out[i].Range.StartChar < out[j].Range.StartChar
	})
	return out, nil
}

// rangeFits reports whether a stored range still addresses positions inside
// the document.
func rangeFits(docText string, r anchor.Range) bool {
	lines := strings.Split(docText, "\n")
	if r.StartLine < 0 || r.EndLine >= len(lines) || r.StartLine > r.EndLine {
		return false
	}
	if r.StartChar < 0 || r.StartChar > len(lines[r.StartLine]) {
		return false
	}
	if r.EndChar < 0 || r.EndChar > len(lines[r.EndLine]) {
		return false
	}
	return true
}

func (s *annotationService) CreateFromSelection(ctx context.Context, filePath, docText string, r anchor.Range, content string, mentions []string) (*types.Annotation, error) {
	if !rangeFits(docText, r) {
		return nil, fmt.Errorf("create annotation: selection out of bounds")
	}

	author := s.team.CurrentUsername()
	ann, err := s.store.Create(ctx, annotations.CreateInput{
		FilePath: filePath,
		Range:    r,
		Context:  anchor.CaptureContext(docText, r),
		Content:  content,
		Author:   author,
		Mentions: mentions,
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil && len(mentions) > 0 {
		if _, err := s.dispatcher.Dispatch(ctx, types.Notification{
			Type:      types.NotificationMention,
			Title:     author + " mentioned you",
			Body:      "in " + filePath + ": " + content,
			Actor:     author,
			Targets:   mentions,
			Timestamp: ann.Timestamp,
			Metadata:  map[string]any{"annotationId": ann.ID, "filePath": filePath},
		}); err != nil {
			s.log.Warn("Mention notification failed", "error", err.Error())
		}
	}
	return ann, nil
}

func (s *annotationService) Reply(ctx context.Context, parentID, content string) (*types.Annotation, error) {
	parent, err := s.store.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.ParentID != nil {
		// Threads stay one level deep: replying to a reply re-roots onto the
		// thread root.
		parent, err = s.store.Get(ctx, *parent.ParentID)
		if err != nil {
			return nil, err
		}
	}

	author := s.team.CurrentUsername()
	reply, err := s.store.Create(ctx, annotations.CreateInput{
		FilePath: parent.FilePath,
		Range:    parent.Range,
		Context:  parent.AnchorContext(),
		Content:  content,
		Author:   author,
		ParentID: &parent.ID,
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil && parent.Author != author {
		if _, err := s.dispatcher.Dispatch(ctx, types.Notification{
			Type:      types.NotificationAnnotationReply,
			Title:     author + " replied to your annotation",
			Body:      "in " + parent.FilePath + ": " + content,
			Actor:     author,
			Targets:   []string{parent.Author},
			Timestamp: reply.Timestamp,
			Metadata:  map[string]any{"annotationId": parent.ID, "filePath": parent.FilePath},
		}); err != nil {
			s.log.Warn("Reply notification failed", "error", err.Error())
		}
	}
	return reply, nil
}

func (s *annotationService) Resolve(ctx context.Context, id string) (bool, error) {
	return s.store.Resolve(ctx, id)
}
