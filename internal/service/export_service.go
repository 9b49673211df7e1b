package service

import (
	"context"
	"fmt"
	"time"

	"storyloom/internal/access"
	"storyloom/internal/export"
	"storyloom/internal/featureflags"
	"storyloom/internal/models"
	"storyloom/internal/observability"
	"storyloom/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ExportService produces the self-contained project document consumed by the
// game runtime. It never writes.
type ExportService struct {
	projects      repository.ProjectRepository
	cast          repository.CastRepository
	folders       repository.FolderRepository
	dialogues     repository.DialogueRepository
	conversations repository.ConversationRepository
	policy        Authorizer
	flags         *featureflags.Manager
}

func NewExportService(
	projects repository.ProjectRepository,
	cast repository.CastRepository,
	folders repository.FolderRepository,
	dialogues repository.DialogueRepository,
	conversations repository.ConversationRepository,
	policy Authorizer,
	flags *featureflags.Manager,
) *ExportService {
	return &ExportService{
		projects:      projects,
		cast:          cast,
		folders:       folders,
		dialogues:     dialogues,
		conversations: conversations,
		policy:        policy,
		flags:         flags,
	}
}

// Export builds the document for a project the caller can read.
func (s *ExportService) Export(ctx context.Context, userID, projectID uint) (doc *export.Document, err error) {
	ctx, span := observability.StartSpan(ctx, "export.project", attribute.Int64("project_id", int64(projectID)))
	defer observability.EndSpan(span, &err)

	doc, err = s.export(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("dialogues", len(doc.Dialogues)),
		attribute.Int("conversations", len(doc.Conversations)),
		attribute.Int("warnings", len(doc.Warnings)),
	)
	return doc, nil
}

func (s *ExportService) export(ctx context.Context, userID, projectID uint) (*export.Document, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}

	doc, err := export.Build(*snapshot)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("build export: %w", err))
	}
	for _, w := range doc.Warnings {
		if w.Kind == export.WarningDanglingChoice {
			observability.ExportDanglingChoices.Inc()
		}
	}
	return doc, nil
}

// snapshot loads everything the export reads. The loads are independent and
// run concurrently.
func (s *ExportService) snapshot(ctx context.Context, projectID uint) (*export.Snapshot, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	snap := &export.Snapshot{
		Project:        *project,
		IncludeFolders: s.flags.Enabled(featureflags.ExportFolders, projectID),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Characters, err = s.cast.ListCharacters(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Dialogues, err = s.dialogues.ListByProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Conversations, err = s.conversations.ListByProject(gctx, projectID)
		return err
	})
	if snap.IncludeFolders {
		g.Go(func() error {
			var err error
			snap.Folders, err = s.folders.ListByProject(gctx, projectID, nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ExportEncoded exports and encodes the project. It returns the payload and
// its content type.
func (s *ExportService) ExportEncoded(ctx context.Context, userID, projectID uint, format string) ([]byte, string, error) {
	start := time.Now()

	doc, err := s.Export(ctx, userID, projectID)
	if err != nil {
		return nil, "", err
	}
	normalized, err := export.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}
	payload, err := export.Encode(doc, normalized)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	observability.ExportDuration.WithLabelValues(normalized).Observe(time.Since(start).Seconds())
	return payload, export.ContentType(normalized), nil
}
