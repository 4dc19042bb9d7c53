// internal/store/mongo.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
)

// MongoStore keeps rooms in a document collection. Admissions rely on the
// atomicity of FindOneAndUpdate: the eligibility predicate is the filter and
// the seat append plus status flip run as a single update pipeline.
type MongoStore struct {
	client *mongo.Client
	rooms  *mongo.Collection
}

// NewMongoStore connects a Mongo client and verifies the connection.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", uri, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}
	return &MongoStore{
		client: client,
		rooms:  client.Database(db).Collection("rooms"),
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateRoom(ctx context.Context, room *models.Room) error {
	_, err := s.rooms.InsertOne(ctx, room)
	return err
}

func (s *MongoStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var r models.Room
	err := s.rooms.FindOne(ctx, bson.M{"_id": roomID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) AddPlayerIfWaiting(ctx context.Context, roomID string, p models.Player) (*models.Room, error) {
	filter := bson.M{
		"_id":        roomID,
		"gameStatus": string(models.StatusWaiting),
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$players"}, "$maxPlayers"},
		},
	}
	// Update pipeline so the status flip can reference the post-append size.
	update := bson.A{
		bson.M{"$set": bson.M{
			"players": bson.M{"$concatArrays": bson.A{"$players", bson.A{p}}},
			"gameStatus": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{
					bson.M{"$add": bson.A{bson.M{"$size": "$players"}, 1}},
					"$maxPlayers",
				}},
				string(models.StatusPlaying),
				"$gameStatus",
			}},
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Room
	err := s.rooms.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Predicate failed: room missing, not waiting, or full.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) SetTurnState(ctx context.Context, roomID, currentTurn string, lastRoll int) (*models.Room, error) {
	filter := bson.M{"_id": roomID, "gameStatus": string(models.StatusPlaying)}
	update := bson.M{"$set": bson.M{"currentTurn": currentTurn, "lastRoll": lastRoll}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Room
	err := s.rooms.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) ListWaiting(ctx context.Context) ([]models.Room, error) {
	cur, err := s.rooms.Find(ctx, bson.M{"gameStatus": string(models.StatusWaiting)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Room
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.rooms.DeleteOne(ctx, bson.M{"_id": roomID})
	return err
}
