package config

import (
	"context"
	"crypto/tls"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client

const defaultDBName = "scribe"

// InitMongo connects to MongoDB and verifies the connection with a ping.
func InitMongo() error {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return errors.New("MONGO_URI environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	// Go 1.24 has stricter TLS requirements that may conflict with Atlas
	if os.Getenv("MONGO_FORCE_TLS_CONFIG") == "true" || os.Getenv("GO_ENV") == "development" {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: os.Getenv("MONGO_INSECURE_TLS") == "true",
			MinVersion:         tls.VersionTLS12,
			MaxVersion:         tls.VersionTLS12,
		}
		clientOpts = clientOpts.SetTLSConfig(tlsConfig)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	MongoClient = client
	return nil
}

// MongoDatabase returns the application database handle.
func MongoDatabase() *mongo.Database {
	name := os.Getenv("MONGO_DB_NAME")
	if name == "" {
		name = defaultDBName
	}
	return MongoClient.Database(name)
}

// EnsureIndexes creates the per-user lookup indexes on both media partitions.
// Safe to call on every start; index creation is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byUser := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "upload_timestamp", Value: -1}},
		Options: options.Index().SetName("user_id_upload_ts"),
	}
	for _, col := range []string{"audio_files", "video_files"} {
		if _, err := db.Collection(col).Indexes().CreateOne(ctx, byUser); err != nil {
			return err
		}
	}
	return nil
}

func DisconnectMongo(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}
