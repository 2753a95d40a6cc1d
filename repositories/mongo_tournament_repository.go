package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/beach-league/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPodium struct {
	Champion   []string `bson:"champion,omitempty"`
	RunnerUp   []string `bson:"runnerUp,omitempty"`
	ThirdPlace []string `bson:"thirdPlace,omitempty"`
}

type mongoTournament struct {
	ID           string                  `bson:"_id"`
	Name         string                  `bson:"name"`
	Description  string                  `bson:"description"`
	Location     string                  `bson:"location"`
	StartDate    mongoTime               `bson:"startDate"`
	EndDate      mongoTime               `bson:"endDate"`
	Status       models.TournamentStatus `bson:"status"`
	Categories   []string                `bson:"categories"`
	Participants []string                `bson:"participants"`
	Podium       *mongoPodium            `bson:"podium,omitempty"`
	CreatedBy    string                  `bson:"createdBy"`
	CreatedAt    mongoTime               `bson:"createdAt"`
}

func (d *mongoTournament) toModel() *models.Tournament {
	t := &models.Tournament{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Location:     d.Location,
		StartDate:    d.StartDate.Time,
		EndDate:      d.EndDate.Time,
		Status:       d.Status,
		Categories:   d.Categories,
		Participants: d.Participants,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt.Time,
	}
	if t.Participants == nil {
		t.Participants = []string{}
	}
	if d.Podium != nil {
		podium := &models.Podium{Champion: d.Podium.Champion, RunnerUp: d.Podium.RunnerUp, ThirdPlace: d.Podium.ThirdPlace}
		if !podium.IsEmpty() {
			t.Podium = podium
		}
	}
	return t
}

type mongoTournamentRepository struct {
	coll *mongo.Collection
}

func (r *mongoTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.Participants == nil {
		t.Participants = []string{}
	}
	t.CreatedAt = time.Now().UTC()
	doc := mongoTournament{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Location:     t.Location,
		StartDate:    mongoTime{t.StartDate},
		EndDate:      mongoTime{t.EndDate},
		Status:       t.Status,
		Categories:   t.Categories,
		Participants: t.Participants,
		CreatedBy:    t.CreatedBy,
		CreatedAt:    mongoTime{t.CreatedAt},
	}
	_, err := r.coll.InsertOne(ctx, doc)
	return handleMongoError(err)
}

func (r *mongoTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	var doc mongoTournament
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, handleMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *mongoTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.ParticipantID != nil {
		query["participants"] = *filter.ParticipantID
	}
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}, {Key: "createdAt", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, handleMongoError(err)
	}
	defer cursor.Close(ctx)

	var docs []mongoTournament
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err)
	}
	tournaments := make([]*models.Tournament, 0, len(docs))
	for i := range docs {
		tournaments = append(tournaments, docs[i].toModel())
	}
	return tournaments, nil
}

func (r *mongoTournamentRepository) UpdateDetails(ctx context.Context, t *models.Tournament) error {
	update := bson.M{"$set": bson.M{
		"name":        t.Name,
		"description": t.Description,
		"location":    t.Location,
		"startDate":   mongoTime{t.StartDate},
		"endDate":     mongoTime{t.EndDate},
		"categories":  t.Categories,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": t.ID}, update)
	if err != nil {
		return handleMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func (r *mongoTournamentRepository) UpdateStatus(ctx context.Context, id string, from, to models.TournamentStatus) error {
	filter := bson.M{"_id": id, "status": from}
	return r.conditionalUpdate(ctx, id, filter, bson.M{"$set": bson.M{"status": to}}, ErrStatusConflict)
}

func (r *mongoTournamentRepository) AddParticipant(ctx context.Context, id, playerID string) error {
	filter := bson.M{"_id": id, "participants": bson.M{"$ne": playerID}}
	update := bson.M{"$addToSet": bson.M{"participants": playerID}}
	return r.conditionalUpdate(ctx, id, filter, update, ErrAlreadyRegistered)
}

func (r *mongoTournamentRepository) RemoveParticipant(ctx context.Context, id, playerID string) error {
	filter := bson.M{"_id": id, "participants": playerID}
	update := bson.M{"$pull": bson.M{"participants": playerID}}
	return r.conditionalUpdate(ctx, id, filter, update, ErrNotRegistered)
}

func (r *mongoTournamentRepository) SetPodium(ctx context.Context, id string, podium models.Podium) error {
	set := bson.M{}
	if len(podium.Champion) > 0 {
		set["podium.champion"] = podium.Champion
	}
	if len(podium.RunnerUp) > 0 {
		set["podium.runnerUp"] = podium.RunnerUp
	}
	if len(podium.ThirdPlace) > 0 {
		set["podium.thirdPlace"] = podium.ThirdPlace
	}
	if len(set) == 0 {
		return nil
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update podium for tournament %s: %w", id, handleMongoError(err))
	}
	if res.MatchedCount == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func (r *mongoTournamentRepository) CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, handleMongoError(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.TournamentStatus `bson:"_id"`
		Count  int                     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, handleMongoError(err)
	}
	counts := make(map[models.TournamentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *mongoTournamentRepository) conditionalUpdate(ctx context.Context, id string, filter, update bson.M, conditionErr error) error {
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
		return ErrTournamentNotFound
	}
	return conditionErr
}
