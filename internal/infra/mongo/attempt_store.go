package mongo

import (
	"context"
	"errors"

	"cybershield-quiz-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttemptStore keeps attempts as documents. Uniqueness of (user, quiz, attemptNumber)
// comes from the index EnsureIndexes creates.
type AttemptStore struct {
	col *mongo.Collection
}

func NewAttemptStore(db *mongo.Database) *AttemptStore {
	return &AttemptStore{col: db.Collection(attemptsCollection)}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	if _, err := s.col.InsertOne(ctx, attempt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAttemptConflict
		}
		return domain.StorageError("create attempt", err)
	}
	return nil
}

func (s *AttemptStore) Update(ctx context.Context, attempt domain.Attempt) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": attempt.ID}, attempt)
	if err != nil {
		return domain.StorageError("update attempt", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var attempt domain.Attempt
	err := s.col.FindOne(ctx, bson.M{"_id": attemptID}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.StorageError("get attempt", err)
	}
	return attempt, nil
}

func (s *AttemptStore) CountByUserQuiz(ctx context.Context, userID, quizID string) (int, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"userId": userID, "quizId": quizID})
	if err != nil {
		return 0, domain.StorageError("count attempts", err)
	}
	return int(n), nil
}

func (s *AttemptStore) FindByUser(ctx context.Context, userID string, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timeStarted", Value: -1}})
	return s.find(ctx, attemptQuery(userID, filter), opts)
}

func (s *AttemptStore) FindBest(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}, {Key: "timeSpent", Value: 1}}).
		SetLimit(1)
	attempts, err := s.find(ctx, bson.M{"userId": userID, "quizId": quizID}, opts)
	if err != nil {
		return domain.Attempt{}, err
	}
	if len(attempts) == 0 {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempts[0], nil
}

func (s *AttemptStore) UserTotals(ctx context.Context, userID string) (domain.StatsTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"totalAttempts":  bson.M{"$sum": 1},
			"quizzes":        bson.M{"$addToSet": "$quizId"},
			"totalScore":     bson.M{"$sum": "$score"},
			"totalPoints":    bson.M{"$sum": "$totalPoints"},
			"passedAttempts": bson.M{"$sum": bson.M{"$cond": bson.A{"$passed", 1, 0}}},
			"percentageSum":  bson.M{"$sum": "$percentage"},
			"totalTimeSpent": bson.M{"$sum": "$timeSpent"},
		}}},
		{{Key: "$addFields", Value: bson.M{"totalQuizzes": bson.M{"$size": "$quizzes"}}}},
	}
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.StatsTotals{}, domain.StorageError("aggregate attempts", err)
	}
	defer cur.Close(ctx)

	var totals domain.StatsTotals
	if cur.Next(ctx) {
		if err := cur.Decode(&totals); err != nil {
			return domain.StatsTotals{}, domain.StorageError("decode totals", err)
		}
	}
	if err := cur.Err(); err != nil {
		return domain.StatsTotals{}, domain.StorageError("aggregate attempts", err)
	}
	return totals, nil
}

func (s *AttemptStore) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]domain.Attempt, error) {
	cur, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, domain.StorageError("find attempts", err)
	}
	defer cur.Close(ctx)

	attempts := make([]domain.Attempt, 0)
	for cur.Next(ctx) {
		var attempt domain.Attempt
		if err := cur.Decode(&attempt); err != nil {
			return nil, domain.StorageError("decode attempt", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := cur.Err(); err != nil {
		return nil, domain.StorageError("find attempts", err)
	}
	return attempts, nil
}

func attemptQuery(userID string, filter domain.AttemptFilter) bson.M {
	query := bson.M{"userId": userID}
	if filter.QuizID != "" {
		query["quizId"] = filter.QuizID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Passed != nil {
		query["passed"] = *filter.Passed
	}
	return query
}
