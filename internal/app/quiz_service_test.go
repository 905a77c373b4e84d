package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/domain"
	"cybershield-quiz-service/internal/infra/memory"
)

func newQuizService() *app.QuizService {
	repo := memory.NewQuizRepository(memory.NewQuizStore(nil), time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return app.NewQuizServiceWithClock(repo, func() time.Time { return now })
}

func TestCreateQuizAssignsIDsAndDuration(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	draft := sampleQuiz()
	draft.ID = ""
	for i := range draft.Questions {
		draft.Questions[i].ID = ""
	}
	draft.Title = "  Phishing basics  "

	created, err := service.Create(ctx, "admin-1", draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedBy != "admin-1" || created.Title != "Phishing basics" {
		t.Fatalf("unexpected quiz %+v", created)
	}
	for _, q := range created.Questions {
		if q.ID == "" {
			t.Fatalf("question without id: %+v", q)
		}
	}
	if created.EstimatedDuration != 5 {
		t.Fatalf("expected minimum duration of 5, got %d", created.EstimatedDuration)
	}

	got, err := service.Get(ctx, created.ID)
	if err != nil || got.ID != created.ID {
		t.Fatalf("get: %+v, %v", got, err)
	}
}

func TestCreateQuizRejectsInvalid(t *testing.T) {
	service := newQuizService()
	bad := sampleQuiz()
	bad.TimeLimit = 3
	bad.PassingScore = 40

	_, err := service.Create(context.Background(), "admin-1", bad)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = true
	}
	if !fields["timeLimit"] || !fields["passingScore"] {
		t.Fatalf("expected timeLimit and passingScore errors, got %+v", verr.Fields)
	}
}

func TestUpdateRecomputesDurationOnlyWhenQuestionsChange(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()
	created, err := service.Create(ctx, "admin-1", sampleQuiz())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := created
	edit.Title = "Phishing basics v2"
	edit.EstimatedDuration = 42
	updated, err := service.Update(ctx, created.ID, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.EstimatedDuration != created.EstimatedDuration || updated.Title != "Phishing basics v2" {
		t.Fatalf("unexpected update %+v", updated)
	}

	edit = updated
	extra := make([]domain.Question, 0, 8)
	for i := 0; i < 2; i++ {
		extra = append(extra, edit.Questions...)
	}
	for i := range extra {
		extra[i].ID = ""
	}
	edit.Questions = extra
	updated, err = service.Update(ctx, created.ID, edit)
	if err != nil {
		t.Fatalf("update questions: %v", err)
	}
	if updated.EstimatedDuration != 8 || updated.QuestionCount() != 8 {
		t.Fatalf("expected duration 8 for 8 questions, got %d", updated.EstimatedDuration)
	}
	if updated.CreatedBy != "admin-1" {
		t.Fatalf("update must keep the author")
	}
}

func TestRetireAndDeactivateQuestion(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()
	created, _ := service.Create(ctx, "admin-1", sampleQuiz())

	quiz, err := service.DeactivateQuestion(ctx, created.ID, "q1")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if q, _ := quiz.Question("q1"); q.Active {
		t.Fatalf("expected q1 inactive")
	}
	if len(quiz.ForTaker().Questions) != 2 {
		t.Fatalf("inactive questions are hidden from takers")
	}
	if _, err := service.DeactivateQuestion(ctx, created.ID, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}

	if _, err := service.Retire(ctx, created.ID); err != nil {
		t.Fatalf("retire: %v", err)
	}
	open, _ := service.ListActivePublic(ctx)
	if len(open) != 0 {
		t.Fatalf("retired quizzes are not listed, got %d", len(open))
	}
	if _, err := service.Get(ctx, created.ID); err != nil {
		t.Fatalf("retired quizzes stay readable: %v", err)
	}
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	students := sampleQuiz()
	students.TargetDemographic = domain.DemographicStudents
	students.Difficulty = domain.DifficultyHard
	students.Category = domain.LevelAdvanced
	if _, err := service.Create(ctx, "admin-1", students); err != nil {
		t.Fatalf("create students quiz: %v", err)
	}
	seniors := sampleQuiz()
	seniors.TargetDemographic = domain.DemographicSeniorCitizens
	if _, err := service.Create(ctx, "admin-1", seniors); err != nil {
		t.Fatalf("create seniors quiz: %v", err)
	}
	private := sampleQuiz()
	private.IsPublic = false
	if _, err := service.Create(ctx, "admin-1", private); err != nil {
		t.Fatalf("create private quiz: %v", err)
	}

	got, _ := service.ListByDemographic(ctx, domain.DemographicStudents)
	if len(got) != 1 || got[0].TargetDemographic != domain.DemographicStudents {
		t.Fatalf("expected only the students quiz, got %d", len(got))
	}
	got, _ = service.ListByCategoryAndDifficulty(ctx, domain.LevelAdvanced, domain.DifficultyHard)
	if len(got) != 1 {
		t.Fatalf("expected one advanced hard quiz, got %d", len(got))
	}
	got, _ = service.ListActivePublic(ctx)
	if len(got) != 2 {
		t.Fatalf("private quizzes are excluded, got %d", len(got))
	}
}

func TestImportKeepsIDs(t *testing.T) {
	ctx := context.Background()
	service := newQuizService()

	first, err := service.Import(ctx, sampleQuiz())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if first.ID != "quiz-1" || first.Questions[0].ID != "q1" {
		t.Fatalf("import must keep ids, got %s/%s", first.ID, first.Questions[0].ID)
	}
	again := sampleQuiz()
	again.Title = "Phishing basics (2026)"
	if _, err := service.Import(ctx, again); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	got, _ := service.Get(ctx, "quiz-1")
	if got.Title != "Phishing basics (2026)" {
		t.Fatalf("expected replaced quiz, got %q", got.Title)
	}

	bad := sampleQuiz()
	bad.Questions[0].CorrectAnswer = "Something else"
	if _, err := service.Import(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
