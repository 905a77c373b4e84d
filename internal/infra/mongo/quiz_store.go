package mongo

import (
	"context"
	"errors"

	"cybershield-quiz-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuizStore keeps quizzes as documents keyed by their ID.
type QuizStore struct {
	col *mongo.Collection
}

func NewQuizStore(db *mongo.Database) *QuizStore {
	return &QuizStore{col: db.Collection(quizzesCollection)}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.StorageError("load quiz", err)
	}
	return quiz, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, quiz, options.Replace().SetUpsert(true))
	if err != nil {
		return domain.StorageError("save quiz", err)
	}
	return nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, quizQuery(filter), opts)
	if err != nil {
		return nil, domain.StorageError("list quizzes", err)
	}
	defer cur.Close(ctx)

	quizzes := make([]domain.Quiz, 0)
	for cur.Next(ctx) {
		var quiz domain.Quiz
		if err := cur.Decode(&quiz); err != nil {
			return nil, domain.StorageError("decode quiz", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := cur.Err(); err != nil {
		return nil, domain.StorageError("list quizzes", err)
	}
	return quizzes, nil
}

func quizQuery(filter domain.QuizFilter) bson.M {
	query := bson.M{}
	if filter.Available {
		query["isActive"] = true
		query["isPublic"] = true
	}
	if filter.Demographic != "" {
		query["targetDemographic"] = bson.M{"$in": bson.A{string(filter.Demographic), string(domain.DemographicAll)}}
	}
	if filter.Category != "" {
		query["category"] = string(filter.Category)
	}
	if filter.Difficulty != "" {
		query["difficulty"] = string(filter.Difficulty)
	}
	return query
}
