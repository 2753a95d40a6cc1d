package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/beach-league/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	accountsCollection    = "accounts"
	playersCollection     = "players"
	tournamentsCollection = "tournaments"
	matchesCollection     = "matches"

	mongoUnauthorizedCode    = 13
	mongoQueryPlanFailedCode = 291 // NoQueryExecutionPlans
	mongoSortMemoryLimitCode = 292
)

// NewMongoStore builds the repositories backed by the given database.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Accounts:    &mongoAccountRepository{coll: db.Collection(accountsCollection)},
		Players:     &mongoPlayerRepository{coll: db.Collection(playersCollection)},
		Tournaments: &mongoTournamentRepository{coll: db.Collection(tournamentsCollection)},
		Matches:     &mongoMatchRepository{coll: db.Collection(matchesCollection), tournaments: db.Collection(tournamentsCollection)},
	}
}

// EnsureMongoIndexes creates the indexes the repositories rely on for uniqueness and ranking.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		accountsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		playersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isAdmin", Value: 1}, {Key: "stats.winRate", Value: -1}, {Key: "createdAt", Value: 1}}},
		},
		tournamentsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "startDate", Value: 1}}},
			{Keys: bson.D{{Key: "participants", Value: 1}}},
		},
		matchesCollection: {
			{Keys: bson.D{{Key: "tournamentId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{
				Keys: bson.D{{Key: "tournamentId", Value: 1}, {Key: "podiumSlot", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "podiumSlot", Value: bson.D{{Key: "$exists", Value: true}}}}),
			},
		},
	}
	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, handleMongoError(err))
		}
	}
	return nil
}

func handleMongoError(err error) error {
	if err == nil {
		return nil
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(mongoUnauthorizedCode) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}

// mongoTime decodes BSON datetimes as well as the structured {seconds, nanoseconds}
// form and RFC3339 strings found in imported documents. It is always written as a datetime.
type mongoTime struct {
	time.Time
}

func (t mongoTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Time.UTC())
}

func (t *mongoTime) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bsontype.Null, bsontype.Undefined:
		t.Time = time.Time{}
		return nil
	case bsontype.DateTime:
		t.Time = raw.Time().UTC()
		return nil
	case bsontype.Timestamp:
		sec, _ := raw.Timestamp()
		t.Time = time.Unix(int64(sec), 0).UTC()
		return nil
	case bsontype.String:
		parsed, err := models.NormalizeTimestamp(raw.StringValue())
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case bsontype.EmbeddedDocument:
		var parts bson.M
		if err := raw.Unmarshal(&parts); err != nil {
			return err
		}
		parsed, err := models.NormalizeTimestamp(map[string]interface{}(parts))
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("%w: unexpected BSON type %s", models.ErrInvalidTimestamp, typ)
}

func optionalTime(t *mongoTime) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
