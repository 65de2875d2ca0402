package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UploadPatch is a partial update; nil fields are left untouched.
type UploadPatch struct {
	OriginalFilename *string
	FileURL          *string
	TextID           *string
	Rating           *int
}

type UploadRepository interface {
	Insert(ctx context.Context, userID string, kind models.MediaKind, rec *models.UploadRecord) error
	ListByUser(ctx context.Context, userID string, kind models.MediaKind) ([]models.UploadRecord, error)
	// FindByID scans the audio partition first, then video.
	FindByID(ctx context.Context, userID, id string) (*models.UploadRecord, models.MediaKind, error)
	// Update is a silent no-op when the record does not exist.
	Update(ctx context.Context, userID, id string, patch UploadPatch) error
	Delete(ctx context.Context, userID, id string, kind models.MediaKind) error
}

type uploadRepo struct {
	db *mongo.Database
}

func NewUploadRepo(db *mongo.Database) UploadRepository {
	return &uploadRepo{db: db}
}

func (r *uploadRepo) col(kind models.MediaKind) *mongo.Collection {
	return r.db.Collection(kind.Partition())
}

func (r *uploadRepo) Insert(ctx context.Context, userID string, kind models.MediaKind, rec *models.UploadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.UserID = userID
	if rec.UploadTimestamp.IsZero() {
		rec.UploadTimestamp = time.Now().UTC()
	}
	_, err := r.col(kind).InsertOne(ctx, rec)
	return err
}

func (r *uploadRepo) ListByUser(ctx context.Context, userID string, kind models.MediaKind) ([]models.UploadRecord, error) {
	cur, err := r.col(kind).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.UploadRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *uploadRepo) FindByID(ctx context.Context, userID, id string) (*models.UploadRecord, models.MediaKind, error) {
	for _, kind := range []models.MediaKind{models.KindAudio, models.KindVideo} {
		var rec models.UploadRecord
		err := r.col(kind).FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&rec)
		if err == nil {
			return &rec, kind, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", err
		}
	}
	return nil, "", utils.ErrNotFound
}

func (r *uploadRepo) Update(ctx context.Context, userID, id string, patch UploadPatch) error {
	set := bson.M{}
	if patch.OriginalFilename != nil {
		set["original_filename"] = *patch.OriginalFilename
	}
	if patch.FileURL != nil {
		set["file_url"] = *patch.FileURL
	}
	if patch.TextID != nil {
		set["text_id"] = *patch.TextID
	}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if len(set) == 0 {
		return nil
	}

	for _, kind := range []models.MediaKind{models.KindAudio, models.KindVideo} {
		res, err := r.col(kind).UpdateOne(ctx,
			bson.M{"_id": id, "user_id": userID},
			bson.M{"$set": set},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	// record absent in both partitions: no-op
	return nil
}

func (r *uploadRepo) Delete(ctx context.Context, userID, id string, kind models.MediaKind) error {
	_, err := r.col(kind).DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	return err
}
