package services

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/scribeapp/scribe/internal/backend"
	"github.com/scribeapp/scribe/internal/models"
	mongorepo "github.com/scribeapp/scribe/internal/repositories/mongo"
	"github.com/scribeapp/scribe/internal/utils"
)

// UploadService is the upload record store: per-user, per-kind partitions of
// media metadata. Every operation requires a resolved identity. Store
// failures are returned to the caller, never logged and swallowed.
type UploadService interface {
	AddRecord(ctx context.Context, userID string, kind models.MediaKind, rec *models.UploadRecord) error
	ListRecords(ctx context.Context, userID string, kind models.MediaKind) ([]models.UploadRecord, error)
	GetAllRecords(ctx context.Context, userID string) (*models.AllFiles, error)
	GetRecordByID(ctx context.Context, userID, id string) (*models.UploadRecord, error)
	UpdateRecord(ctx context.Context, userID, id string, patch mongorepo.UploadPatch) error
	DeleteRecord(ctx context.Context, userID, id string, kind models.MediaKind) error

	UploadMedia(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*models.UploadRecord, error)
}

type mediaUploader interface {
	UploadMedia(ctx context.Context, userID, filename, contentType string, r io.Reader) (*backend.UploadMediaResult, error)
}

type uploadService struct {
	repo    mongorepo.UploadRepository
	archive mongorepo.ArchiveRepository // optional
	media   mediaUploader
	subs    SubscriptionService
	log     *logrus.Logger
}

func NewUploadService(repo mongorepo.UploadRepository, archive mongorepo.ArchiveRepository, media mediaUploader, subs SubscriptionService, log *logrus.Logger) UploadService {
	return &uploadService{repo: repo, archive: archive, media: media, subs: subs, log: log}
}

func requireIdentity(op, userID string) error {
	if userID == "" {
		return utils.E(utils.CodeUnauthorized, op, "identity is required", nil)
	}
	return nil
}

func (s *uploadService) AddRecord(ctx context.Context, userID string, kind models.MediaKind, rec *models.UploadRecord) error {
	const op = "UploadService.AddRecord"

	if err := requireIdentity(op, userID); err != nil {
		return err
	}
	if !kind.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "kind must be audio or video", nil)
	}
	if err := s.repo.Insert(ctx, userID, kind, rec); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to add record", err)
	}
	return nil
}

func (s *uploadService) ListRecords(ctx context.Context, userID string, kind models.MediaKind) ([]models.UploadRecord, error) {
	const op = "UploadService.ListRecords"

	if err := requireIdentity(op, userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "kind must be audio or video", nil)
	}
	rows, err := s.repo.ListByUser(ctx, userID, kind)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list records", err)
	}
	return rows, nil
}

// GetAllRecords reads both partitions concurrently and joins the results;
// total latency is bounded by the slower partition, not the sum.
func (s *uploadService) GetAllRecords(ctx context.Context, userID string) (*models.AllFiles, error) {
	const op = "UploadService.GetAllRecords"

	if err := requireIdentity(op, userID); err != nil {
		return nil, err
	}

	var out models.AllFiles
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListByUser(gctx, userID, models.KindAudio)
		if err != nil {
			return err
		}
		out.AudioFiles = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.ListByUser(gctx, userID, models.KindVideo)
		if err != nil {
			return err
		}
		out.VideoFiles = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read partitions", err)
	}
	return &out, nil
}

func (s *uploadService) GetRecordByID(ctx context.Context, userID, id string) (*models.UploadRecord, error) {
	const op = "UploadService.GetRecordByID"

	if err := requireIdentity(op, userID); err != nil {
		return nil, err
	}

	rec, _, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "record not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to look up record", err)
	}
	return rec, nil
}

func (s *uploadService) UpdateRecord(ctx context.Context, userID, id string, patch mongorepo.UploadPatch) error {
	const op = "UploadService.UpdateRecord"

	if err := requireIdentity(op, userID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, id, patch); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update record", err)
	}
	return nil
}

func (s *uploadService) DeleteRecord(ctx context.Context, userID, id string, kind models.MediaKind) error {
	const op = "UploadService.DeleteRecord"

	if err := requireIdentity(op, userID); err != nil {
		return err
	}
	if !kind.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "kind must be audio or video", nil)
	}
	// removes the record from its partition only; stored media stays
	if err := s.repo.Delete(ctx, userID, id, kind); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete record", err)
	}

	// best-effort cleanup of the standalone transcription and chat documents
	if s.archive != nil {
		if err := s.archive.DeleteTranscription(ctx, id); err != nil {
			s.log.WithError(err).WithField("file_id", id).Warn("failed to delete transcription document")
		}
		if err := s.archive.DeleteChat(ctx, id); err != nil {
			s.log.WithError(err).WithField("file_id", id).Warn("failed to delete chat document")
		}
	}
	return nil
}

// UploadMedia streams the file to the backend, then registers the returned
// metadata in the matching partition.
func (s *uploadService) UploadMedia(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*models.UploadRecord, error) {
	const op = "UploadService.UploadMedia"

	if err := requireIdentity(op, userID); err != nil {
		return nil, err
	}

	kind, ok := models.KindForContentType(contentType)
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "only audio and video files are allowed", nil)
	}

	if s.subs != nil && size > 0 {
		sub := s.subs.Get(ctx, userID)
		if sub.Limits.FileSize > 0 && size > sub.Limits.FileSize {
			return nil, utils.E(utils.CodeInvalidArgument, op,
				"file size exceeds the limit of "+sub.Limits.FileSizeDisplay, nil)
		}
	}

	res, err := s.media.UploadMedia(ctx, userID, filename, contentType, r)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "media upload failed", err)
	}

	rec := &models.UploadRecord{
		ID:               res.ID,
		OriginalFilename: filename,
		Filename:         res.Filename,
		ContentType:      contentType,
		FileURL:          res.FileURL,
		UploadTimestamp:  time.Now().UTC(),
		UserID:           userID,
	}
	if err := s.repo.Insert(ctx, userID, kind, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist upload metadata", err)
	}
	return rec, nil
}
