package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validQuiz() Quiz {
	q := NewQuiz()
	q.ID = "quiz-1"
	q.Title = "UPI safety basics"
	q.Description = "Spot common UPI payment scams"
	q.Category = LevelBeginner
	q.TargetDemographic = DemographicAll
	q.SetQuestions([]Question{phishingQuestion()})
	return q
}

func fieldsOf(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validQuiz().Validate(); err != nil {
		t.Fatalf("expected valid quiz, got %v", err)
	}
}

func TestValidateRejectsPolicyBounds(t *testing.T) {
	q := validQuiz()
	q.TimeLimit = 4
	q.PassingScore = 101
	q.MaxAttempts = 0
	q.Title = strings.Repeat("x", 101)
	err := q.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := strings.Join(fieldsOf(err), ",")
	for _, field := range []string{"timeLimit", "passingScore", "maxAttempts", "title"} {
		if !strings.Contains(got, field) {
			t.Fatalf("expected %s to be rejected, got %s", field, got)
		}
	}
}

func TestValidateCanonicalAnswer(t *testing.T) {
	q := validQuiz()
	bad := phishingQuestion()
	bad.ID = "q2"
	bad.Options[0].Correct = true // two correct options
	tf := phishingQuestion()
	tf.ID = "q3"
	tf.Type = QuestionTrueFalse
	tf.Options = nil
	tf.CorrectAnswer = "maybe"
	q.SetQuestions([]Question{phishingQuestion(), bad, tf})

	got := strings.Join(fieldsOf(q.Validate()), ",")
	if !strings.Contains(got, "questions[1].correctAnswer") || !strings.Contains(got, "questions[2].correctAnswer") {
		t.Fatalf("expected canonical answer violations, got %s", got)
	}
}

func TestSetQuestionsRecomputesDuration(t *testing.T) {
	q := validQuiz()
	if q.EstimatedDuration != 5 {
		t.Fatalf("expected 5 minute floor, got %d", q.EstimatedDuration)
	}
	questions := make([]Question, 12)
	for i := range questions {
		questions[i] = phishingQuestion()
	}
	q.SetQuestions(questions)
	if q.EstimatedDuration != 12 || q.TotalPoints() != 120 || q.QuestionCount() != 12 {
		t.Fatalf("unexpected derived values: duration=%d points=%d", q.EstimatedDuration, q.TotalPoints())
	}
	q.SetQuestions(nil)
	if q.EstimatedDuration != 0 || q.TotalPoints() != 0 {
		t.Fatalf("empty quiz should have no duration or points")
	}
}

func TestUnmarshalAppliesDefaults(t *testing.T) {
	var q Quiz
	payload := `{"title":"t","questions":[{"prompt":"p","correctAnswer":"a"}]}`
	if err := json.Unmarshal([]byte(payload), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.TimeLimit != 30 || q.PassingScore != 70 || q.MaxAttempts != 3 || !q.IsActive || !q.IsPublic {
		t.Fatalf("quiz defaults not applied: %+v", q)
	}
	question := q.Questions[0]
	if question.Points != 10 || !question.Active || question.Type != QuestionMultipleChoice {
		t.Fatalf("question defaults not applied: %+v", question)
	}
}

func TestForTakerHidesAnswers(t *testing.T) {
	q := validQuiz()
	inactive := phishingQuestion()
	inactive.ID = "q2"
	inactive.Active = false
	q.SetQuestions(append(q.Questions, inactive))

	public := q.ForTaker()
	if len(public.Questions) != 1 {
		t.Fatalf("expected inactive question to be dropped")
	}
	for _, opt := range public.Questions[0].Options {
		if opt.Correct {
			t.Fatalf("correct flag leaked")
		}
	}
	if public.Questions[0].CorrectAnswer != "" {
		t.Fatalf("canonical answer leaked")
	}
	if q.Questions[0].CorrectAnswer == "" {
		t.Fatalf("ForTaker must not mutate the source quiz")
	}
}

func TestQuizFilterDemographicWildcard(t *testing.T) {
	q := validQuiz()
	f := QuizFilter{Demographic: DemographicStudents, Available: true}
	if !f.Matches(q) {
		t.Fatalf("quiz for everyone should match a students filter")
	}
	q.TargetDemographic = DemographicHomemakers
	if f.Matches(q) {
		t.Fatalf("homemakers quiz should not match a students filter")
	}
	q.TargetDemographic = DemographicStudents
	q.IsPublic = false
	if f.Matches(q) {
		t.Fatalf("private quiz should not be available")
	}
}
