package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ArchiveRepository covers the standalone transcription and chat documents,
// which are only ever deleted by id.
type ArchiveRepository interface {
	DeleteTranscription(ctx context.Context, id string) error
	DeleteChat(ctx context.Context, id string) error
}

type archiveRepo struct {
	transcriptions *mongo.Collection
	chats          *mongo.Collection
}

func NewArchiveRepo(db *mongo.Database) ArchiveRepository {
	return &archiveRepo{
		transcriptions: db.Collection("transcription"),
		chats:          db.Collection("chats"),
	}
}

func (r *archiveRepo) DeleteTranscription(ctx context.Context, id string) error {
	_, err := r.transcriptions.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *archiveRepo) DeleteChat(ctx context.Context, id string) error {
	_, err := r.chats.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
