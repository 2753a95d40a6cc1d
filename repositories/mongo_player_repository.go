package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/beach-league/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPlayer struct {
	ID        string             `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Age       *int               `bson:"age,omitempty"`
	Gender    *string            `bson:"gender,omitempty"`
	AvatarKey *string            `bson:"avatarKey,omitempty"`
	Stats     models.PlayerStats `bson:"stats"`
	IsAdmin   bool               `bson:"isAdmin"`
	Version   int64              `bson:"version"`
	CreatedAt mongoTime          `bson:"createdAt"`
}

func (d *mongoPlayer) toModel() *models.PlayerProfile {
	return &models.PlayerProfile{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Age:       d.Age,
		Gender:    d.Gender,
		AvatarKey: d.AvatarKey,
		Stats:     d.Stats,
		IsAdmin:   d.IsAdmin,
		Version:   d.Version,
		CreatedAt: d.CreatedAt.Time,
	}
}

type mongoPlayerRepository struct {
	coll *mongo.Collection
}

func (r *mongoPlayerRepository) Create(ctx context.Context, p *models.PlayerProfile) error {
	p.Email = strings.ToLower(p.Email)
	p.Version = 1
	p.CreatedAt = time.Now().UTC()
	doc := mongoPlayer{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Age:       p.Age,
		Gender:    p.Gender,
		Stats:     p.Stats,
		IsAdmin:   p.IsAdmin,
		Version:   p.Version,
		CreatedAt: mongoTime{p.CreatedAt},
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPlayerEmailConflict
		}
		return handleMongoError(err)
	}
	return nil
}

func (r *mongoPlayerRepository) GetByID(ctx context.Context, id string) (*models.PlayerProfile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoPlayerRepository) GetByEmail(ctx context.Context, email string) (*models.PlayerProfile, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *mongoPlayerRepository) findOne(ctx context.Context, filter bson.M) (*models.PlayerProfile, error) {
	var doc mongoPlayer
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlayerNotFound
		}
		return nil, handleMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *mongoPlayerRepository) UpdateIdentity(ctx context.Context, p *models.PlayerProfile) error {
	update := bson.M{"$set": bson.M{"name": p.Name, "age": p.Age, "gender": p.Gender}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return handleMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (r *mongoPlayerRepository) UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error {
	update := bson.M{"$set": bson.M{"avatarKey": avatarKey}}
	if avatarKey == nil {
		update = bson.M{"$unset": bson.M{"avatarKey": ""}}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update player avatar key: %w", handleMongoError(err))
	}
	if res.MatchedCount == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (r *mongoPlayerRepository) UpdateStats(ctx context.Context, id string, expectedVersion int64, stats models.PlayerStats) error {
	filter := bson.M{"_id": id, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{"stats": stats},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return handleMongoError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return handleMongoError(err)
	}
	if n == 0 {
		return ErrPlayerNotFound
	}
	return ErrVersionConflict
}

func (r *mongoPlayerRepository) ListRanked(ctx context.Context, limit int) ([]*models.PlayerProfile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "stats.winRate", Value: -1}, {Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))
	players, err := r.find(ctx, bson.M{"isAdmin": bson.M{"$ne": true}}, opts)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && (cmdErr.HasErrorCode(mongoQueryPlanFailedCode) || cmdErr.HasErrorCode(mongoSortMemoryLimitCode)) {
			return nil, fmt.Errorf("%w: %v", ErrQueryUnavailable, err)
		}
		return nil, err
	}
	return players, nil
}

func (r *mongoPlayerRepository) List(ctx context.Context, filter ListPlayersFilter) ([]*models.PlayerProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoPlayerRepository) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, handleMongoError(err)
	}
	return int(n), nil
}

func (r *mongoPlayerRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*models.PlayerProfile, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, handleMongoError(err)
	}
	defer cursor.Close(ctx)

	var docs []mongoPlayer
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err)
	}
	players := make([]*models.PlayerProfile, 0, len(docs))
	for i := range docs {
		players = append(players, docs[i].toModel())
	}
	return players, nil
}
