package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dosada05/beach-league/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoAccount struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"displayName"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    mongoTime `bson:"createdAt"`
}

type mongoAccountRepository struct {
	coll *mongo.Collection
}

func (r *mongoAccountRepository) Create(ctx context.Context, a *models.Account) error {
	a.Email = strings.ToLower(a.Email)
	a.CreatedAt = time.Now().UTC()
	doc := mongoAccount{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		CreatedAt:    mongoTime{a.CreatedAt},
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAccountEmailConflict
		}
		return handleMongoError(err)
	}
	return nil
}

func (r *mongoAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *mongoAccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return handleMongoError(err)
	}
	if result.DeletedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *mongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, handleMongoError(err)
	}
	return &models.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		DisplayName:  doc.DisplayName,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.Time,
	}, nil
}
