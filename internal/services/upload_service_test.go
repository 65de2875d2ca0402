package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/backend"
	"github.com/scribeapp/scribe/internal/models"
	mongorepo "github.com/scribeapp/scribe/internal/repositories/mongo"
	"github.com/scribeapp/scribe/internal/utils"
)

type fakeUploadRepo struct {
	mu sync.Mutex

	delay   time.Duration
	byKind  map[models.MediaKind][]models.UploadRecord
	listErr map[models.MediaKind]error
	patches []mongorepo.UploadPatch
	deleted []string
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{
		byKind:  map[models.MediaKind][]models.UploadRecord{},
		listErr: map[models.MediaKind]error{},
	}
}

func (f *fakeUploadRepo) Insert(ctx context.Context, userID string, kind models.MediaKind, rec *models.UploadRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == "" {
		rec.ID = "generated-id"
	}
	rec.UserID = userID
	f.byKind[kind] = append(f.byKind[kind], *rec)
	return nil
}

func (f *fakeUploadRepo) ListByUser(ctx context.Context, userID string, kind models.MediaKind) ([]models.UploadRecord, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[kind]; err != nil {
		return nil, err
	}
	out := []models.UploadRecord{}
	for _, r := range f.byKind[kind] {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeUploadRepo) FindByID(ctx context.Context, userID, id string) (*models.UploadRecord, models.MediaKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, kind := range []models.MediaKind{models.KindAudio, models.KindVideo} {
		for _, r := range f.byKind[kind] {
			if r.ID == id && r.UserID == userID {
				rec := r
				return &rec, kind, nil
			}
		}
	}
	return nil, "", utils.ErrNotFound
}

func (f *fakeUploadRepo) Update(ctx context.Context, userID, id string, patch mongorepo.UploadPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	return nil
}

func (f *fakeUploadRepo) Delete(ctx context.Context, userID, id string, kind models.MediaKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeArchiveRepo struct {
	mu             sync.Mutex
	transcriptions []string
	chats          []string
}

func (f *fakeArchiveRepo) DeleteTranscription(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptions = append(f.transcriptions, id)
	return nil
}

func (f *fakeArchiveRepo) DeleteChat(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, id)
	return nil
}

type fakeMediaUploader struct {
	result *backend.UploadMediaResult
	err    error
	hits   int
}

func (f *fakeMediaUploader) UploadMedia(ctx context.Context, userID, filename, contentType string, r io.Reader) (*backend.UploadMediaResult, error) {
	f.hits++
	if f.err != nil {
		return nil, f.err
	}
	_, _ = io.Copy(io.Discard, r)
	return f.result, nil
}

type fixedSubscription struct {
	data models.SubscriptionData
}

func (f *fixedSubscription) Get(ctx context.Context, userID string) models.SubscriptionData {
	return f.data
}

func (f *fixedSubscription) Upgrade(ctx context.Context, userID string, tier models.SubscriptionTier) (*models.SubscriptionData, error) {
	return &f.data, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestGetAllRecordsReadsPartitionsConcurrently(t *testing.T) {
	repo := newFakeUploadRepo()
	repo.delay = 80 * time.Millisecond
	repo.byKind[models.KindAudio] = []models.UploadRecord{{ID: "a1", UserID: "u1"}}
	repo.byKind[models.KindVideo] = []models.UploadRecord{{ID: "v1", UserID: "u1"}, {ID: "v2", UserID: "u1"}}

	svc := NewUploadService(repo, nil, nil, nil, quietLogger())

	start := time.Now()
	all, err := svc.GetAllRecords(context.Background(), "u1")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, all.AudioFiles, 1)
	assert.Len(t, all.VideoFiles, 2)
	// both partitions in flight at once: well under the serial 160ms
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestGetAllRecordsPartitionErrorSurfaces(t *testing.T) {
	repo := newFakeUploadRepo()
	repo.listErr[models.KindVideo] = assert.AnError

	svc := NewUploadService(repo, nil, nil, nil, quietLogger())

	_, err := svc.GetAllRecords(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}

func TestUploadServiceRequiresIdentity(t *testing.T) {
	svc := NewUploadService(newFakeUploadRepo(), nil, nil, nil, quietLogger())
	ctx := context.Background()

	_, err := svc.GetAllRecords(ctx, "")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	_, err = svc.ListRecords(ctx, "", models.KindAudio)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	_, err = svc.GetRecordByID(ctx, "", "a1")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	err = svc.UpdateRecord(ctx, "", "a1", mongorepo.UploadPatch{})
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	err = svc.DeleteRecord(ctx, "", "a1", models.KindAudio)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestGetRecordByIDScansBothPartitions(t *testing.T) {
	repo := newFakeUploadRepo()
	repo.byKind[models.KindVideo] = []models.UploadRecord{{ID: "v1", UserID: "u1", ContentType: "video/mp4"}}

	svc := NewUploadService(repo, nil, nil, nil, quietLogger())

	rec, err := svc.GetRecordByID(context.Background(), "u1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", rec.ID)

	_, err = svc.GetRecordByID(context.Background(), "u1", "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestUpdateRecordAbsentIsSilentNoOp(t *testing.T) {
	repo := newFakeUploadRepo()
	svc := NewUploadService(repo, nil, nil, nil, quietLogger())

	name := "renamed.mp3"
	err := svc.UpdateRecord(context.Background(), "u1", "missing", mongorepo.UploadPatch{OriginalFilename: &name})
	assert.NoError(t, err)
}

func TestDeleteRecordCleansArchives(t *testing.T) {
	repo := newFakeUploadRepo()
	repo.byKind[models.KindAudio] = []models.UploadRecord{{ID: "a1", UserID: "u1"}}
	archive := &fakeArchiveRepo{}

	svc := NewUploadService(repo, archive, nil, nil, quietLogger())

	err := svc.DeleteRecord(context.Background(), "u1", "a1", models.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, repo.deleted)
	assert.Equal(t, []string{"a1"}, archive.transcriptions)
	assert.Equal(t, []string{"a1"}, archive.chats)
}

func TestUploadMediaRejectsUnknownContentType(t *testing.T) {
	svc := NewUploadService(newFakeUploadRepo(), nil, &fakeMediaUploader{}, nil, quietLogger())

	_, err := svc.UploadMedia(context.Background(), "u1", "doc.pdf", "application/pdf", 10, strings.NewReader("x"))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestUploadMediaEnforcesSizeLimit(t *testing.T) {
	subs := &fixedSubscription{data: models.DefaultFreeTier("u1")}
	media := &fakeMediaUploader{}
	svc := NewUploadService(newFakeUploadRepo(), nil, media, subs, quietLogger())

	tooBig := subs.data.Limits.FileSize + 1
	_, err := svc.UploadMedia(context.Background(), "u1", "big.mp3", "audio/mp3", tooBig, strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.Contains(t, err.Error(), subs.data.Limits.FileSizeDisplay)
	assert.Equal(t, 0, media.hits, "oversized files never reach the backend")
}

func TestUploadMediaRegistersRecord(t *testing.T) {
	repo := newFakeUploadRepo()
	media := &fakeMediaUploader{result: &backend.UploadMediaResult{
		ID:       "remote-1",
		Filename: "stored.mp3",
		FileURL:  "https://media.example/stored.mp3",
	}}
	subs := &fixedSubscription{data: models.DefaultFreeTier("u1")}

	svc := NewUploadService(repo, nil, media, subs, quietLogger())

	rec, err := svc.UploadMedia(context.Background(), "u1", "original.mp3", "audio/mp3", 1024, strings.NewReader("body"))
	require.NoError(t, err)
	assert.Equal(t, "remote-1", rec.ID)
	assert.Equal(t, "original.mp3", rec.OriginalFilename)
	assert.Equal(t, "stored.mp3", rec.Filename)
	assert.Equal(t, "u1", rec.UserID)
	assert.False(t, rec.UploadTimestamp.IsZero())

	require.Len(t, repo.byKind[models.KindAudio], 1)
	assert.Equal(t, "remote-1", repo.byKind[models.KindAudio][0].ID)
}
