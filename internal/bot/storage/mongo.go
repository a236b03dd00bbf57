package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/common"
)

// MongoStorage is the networked backend: a remote document collection pair
// with unique indexes on file_id and code. Claims rely on MongoDB's
// single-document atomicity via a filtered conditional update, so it is
// safe for multi-process deployments sharing one database.
type MongoStorage struct {
	client *mongo.Client
	files  *mongo.Collection
	links  *mongo.Collection
}

// NewMongoStorage connects to uri, selects dbName, and ensures the unique
// indexes the claim semantics depend on.
func NewMongoStorage(ctx context.Context, uri, dbName string) (*MongoStorage, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty mongo URI", common.ErrorConfigInvalid)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStorage{
		client: client,
		files:  db.Collection("files"),
		links:  db.Collection("links"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	_, err := s.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo index error: %w", err)
	}

	_, err = s.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo index error: %w", err)
	}
	return nil
}

func (s *MongoStorage) UpsertFile(ctx context.Context, rec *models.FileRecord) error {
	// Full replace-by-id: stale fields from a previous version of the
	// record must not survive.
	_, err := s.files.ReplaceOne(ctx,
		bson.M{"file_id": rec.FileID},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

func (s *MongoStorage) GetFile(ctx context.Context, fileID string) (*models.FileRecord, error) {
	rec := &models.FileRecord{}
	err := s.files.FindOne(ctx, bson.M{"file_id": fileID}).Decode(rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return rec, nil
}

func (s *MongoStorage) SaveLink(ctx context.Context, code, fileID string) error {
	// $setOnInsert seeds the unset owner only when the document is new;
	// updates touch file_id alone.
	_, err := s.links.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{
			"$set":         bson.M{"file_id": fileID},
			"$setOnInsert": bson.M{"code": code, "owner_user_id": nil},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

func (s *MongoStorage) GetFileIDByCode(ctx context.Context, code string) (string, error) {
	var doc struct {
		FileID string `bson:"file_id"`
	}
	err := s.links.FindOne(ctx, bson.M{"code": code},
		options.FindOne().SetProjection(bson.M{"file_id": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("mongo error: %w", err)
	}
	return doc.FileID, nil
}

// ClaimLink binds an unowned code with an update filtered on
// "owner_user_id is unset". MongoDB applies the filtered update to a single
// document atomically, so under concurrent first claims exactly one update
// reports ModifiedCount == 1; every loser observes the bound owner.
func (s *MongoStorage) ClaimLink(ctx context.Context, code string, userID int64) (ClaimStatus, string, error) {
	link := &models.LinkRecord{}
	err := s.links.FindOne(ctx, bson.M{"code": code}).Decode(link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ClaimInvalid, "", nil
		}
		return ClaimInvalid, "", fmt.Errorf("mongo error: %w", err)
	}

	if link.OwnerUserID == nil {
		// The nil filter matches both a null owner and a missing field.
		res, err := s.links.UpdateOne(ctx,
			bson.M{"code": code, "owner_user_id": nil},
			bson.M{"$set": bson.M{"owner_user_id": userID}},
		)
		if err != nil {
			return ClaimInvalid, "", fmt.Errorf("mongo error: %w", err)
		}
		if res.ModifiedCount == 1 {
			return ClaimOK, link.FileID, nil
		}

		// Lost the race: re-read to see who won. A concurrent claim by
		// the same user still counts as ownership.
		if err := s.links.FindOne(ctx, bson.M{"code": code}).Decode(link); err != nil {
			return ClaimInvalid, "", fmt.Errorf("mongo error: %w", err)
		}
		if link.OwnerUserID != nil && *link.OwnerUserID == userID {
			return ClaimOK, link.FileID, nil
		}
		return ClaimNotOwner, "", nil
	}

	if *link.OwnerUserID == userID {
		return ClaimOK, link.FileID, nil
	}

	return ClaimNotOwner, "", nil
}

func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
