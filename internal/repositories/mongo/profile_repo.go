package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
}

type profileRepo struct {
	col *mongo.Collection
}

func NewProfileRepo(db *mongo.Database) ProfileRepository {
	return &profileRepo{col: db.Collection("users")}
}

func (r *profileRepo) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *profileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": p.UserID},
		bson.M{"$set": p},
		options.Update().SetUpsert(true),
	)
	return err
}
