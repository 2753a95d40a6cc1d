package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/beach-league/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoMatch struct {
	ID           string             `bson:"_id"`
	TournamentID string             `bson:"tournamentId"`
	Category     string             `bson:"category"`
	Round        string             `bson:"round"`
	Team1        []string           `bson:"team1"`
	Team2        []string           `bson:"team2"`
	Date         mongoTime          `bson:"date"`
	Status       models.MatchStatus `bson:"status"`
	Score        *string            `bson:"score,omitempty"`
	Winner       []string           `bson:"winner,omitempty"`
	Aces         map[string]int     `bson:"aces,omitempty"`
	CompletedAt  *mongoTime         `bson:"completedAt,omitempty"`
	PodiumSlot   *string            `bson:"podiumSlot,omitempty"`
	CreatedAt    mongoTime          `bson:"createdAt"`
}

func (d *mongoMatch) toModel() *models.Match {
	return &models.Match{
		ID:           d.ID,
		TournamentID: d.TournamentID,
		Category:     d.Category,
		Round:        d.Round,
		Team1:        d.Team1,
		Team2:        d.Team2,
		Date:         d.Date.Time,
		Status:       d.Status,
		Score:        d.Score,
		Winner:       d.Winner,
		Aces:         d.Aces,
		CompletedAt:  optionalTime(d.CompletedAt),
		CreatedAt:    d.CreatedAt.Time,
	}
}

type mongoMatchRepository struct {
	coll        *mongo.Collection
	tournaments *mongo.Collection
}

func (r *mongoMatchRepository) Create(ctx context.Context, m *models.Match) error {
	if r.tournaments != nil {
		n, err := r.tournaments.CountDocuments(ctx, bson.M{"_id": m.TournamentID})
		if err != nil {
			return handleMongoError(err)
		}
		if n == 0 {
			return ErrTournamentNotFound
		}
	}
	m.CreatedAt = time.Now().UTC()
	doc := mongoMatch{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		Category:     m.Category,
		Round:        m.Round,
		Team1:        m.Team1,
		Team2:        m.Team2,
		Date:         mongoTime{m.Date},
		Status:       m.Status,
		Score:        m.Score,
		Winner:       m.Winner,
		Aces:         m.Aces,
		PodiumSlot:   podiumSlot(m.Round),
		CreatedAt:    mongoTime{m.CreatedAt},
	}
	if m.Status == models.MatchStatusCancelled {
		doc.PodiumSlot = nil
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPodiumSlotTaken
		}
		return handleMongoError(err)
	}
	return nil
}

func (r *mongoMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	var doc mongoMatch
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMatchNotFound
		}
		return nil, handleMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *mongoMatchRepository) ListByTournament(ctx context.Context, tournamentID string, filter ListMatchesFilter) ([]*models.Match, error) {
	query := bson.M{"tournamentId": tournamentID}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	if filter.Round != nil {
		query["round"] = *filter.Round
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, handleMongoError(err)
	}
	defer cursor.Close(ctx)

	var docs []mongoMatch
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err)
	}
	matches := make([]*models.Match, 0, len(docs))
	for i := range docs {
		matches = append(matches, docs[i].toModel())
	}
	return matches, nil
}

func (r *mongoMatchRepository) Complete(ctx context.Context, id string, result MatchResult) error {
	set := bson.M{
		"status":      models.MatchStatusCompleted,
		"score":       result.Score,
		"winner":      result.Winner,
		"completedAt": mongoTime{result.CompletedAt},
	}
	if len(result.Aces) > 0 {
		set["aces"] = result.Aces
	}
	return r.whileScheduled(ctx, id, bson.M{"$set": set})
}

func (r *mongoMatchRepository) Cancel(ctx context.Context, id string) error {
	update := bson.M{
		"$set":   bson.M{"status": models.MatchStatusCancelled},
		"$unset": bson.M{"podiumSlot": ""},
	}
	return r.whileScheduled(ctx, id, update)
}

func (r *mongoMatchRepository) Count(ctx context.Context, status *models.MatchStatus) (int, error) {
	query := bson.M{}
	if status != nil {
		query["status"] = *status
	}
	n, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, handleMongoError(err)
	}
	return int(n), nil
}

func (r *mongoMatchRepository) whileScheduled(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "status": models.MatchStatusScheduled}, update)
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
		return ErrMatchNotFound
	}
	return ErrMatchNotScheduled
}
