package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	DefaultQuestionPoints = 10
	DefaultTimeLimit      = 30 // minutes
	DefaultPassingScore   = 70 // percent
	DefaultMaxAttempts    = 3
	minEstimatedDuration  = 5 // minutes
)

// Option is one choice of a multiple-choice question.
type Option struct {
	Text    string `json:"text" bson:"text" validate:"required"`
	Correct bool   `json:"isCorrect" bson:"isCorrect"`
}

// Question is a unit of assessment content with a single canonical answer.
type Question struct {
	ID            string           `json:"id" bson:"id"`
	Prompt        string           `json:"prompt" bson:"prompt" validate:"required"`
	Type          QuestionType     `json:"type" bson:"type" validate:"oneof=multiple-choice true-false fill-in-blank"`
	Options       []Option         `json:"options,omitempty" bson:"options,omitempty" validate:"dive"`
	CorrectAnswer string           `json:"correctAnswer,omitempty" bson:"correctAnswer" validate:"required"`
	Explanation   string           `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Difficulty    Difficulty       `json:"difficulty" bson:"difficulty" validate:"oneof=easy medium hard"`
	Points        int              `json:"points" bson:"points" validate:"gt=0"`
	Category      QuestionCategory `json:"category" bson:"category" validate:"required,oneof=phishing social-media online-shopping banking upi-scams general"`
	Tags          []string         `json:"tags,omitempty" bson:"tags,omitempty"`
	Active        bool             `json:"isActive" bson:"isActive"`
}

// NewQuestion returns a question carrying the documented defaults.
func NewQuestion() Question {
	return Question{
		Type:       QuestionMultipleChoice,
		Difficulty: DifficultyMedium,
		Points:     DefaultQuestionPoints,
		Active:     true,
	}
}

// UnmarshalJSON applies defaults for fields absent from the payload.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	p := plain(NewQuestion())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*q = Question(p)
	return nil
}

// IsCorrect compares a submitted answer with the canonical one, ignoring case and surrounding space.
func (q Question) IsCorrect(selected string) bool {
	return strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(q.CorrectAnswer))
}

// Resource is supplementary learning material attached to a quiz.
type Resource struct {
	Title string       `json:"title" bson:"title" validate:"required"`
	URL   string       `json:"url" bson:"url" validate:"required,url"`
	Type  ResourceType `json:"type" bson:"type" validate:"oneof=article video infographic tool"`
}

// Quiz is an ordered collection of questions plus its attempt policy.
type Quiz struct {
	ID                 string       `json:"id" bson:"_id"`
	Title              string       `json:"title" bson:"title" validate:"required,max=100"`
	Description        string       `json:"description" bson:"description" validate:"required,max=500"`
	Category           QuizCategory `json:"category" bson:"category" validate:"required,oneof=beginner intermediate advanced specialized"`
	TargetDemographic  Demographic  `json:"targetDemographic" bson:"targetDemographic" validate:"required,oneof=students professionals homemakers rural-users senior-citizens all"`
	Difficulty         Difficulty   `json:"difficulty" bson:"difficulty" validate:"oneof=easy medium hard"`
	Questions          []Question   `json:"questions" bson:"questions" validate:"dive"`
	TimeLimit          int          `json:"timeLimit" bson:"timeLimit" validate:"min=5,max=120"`
	PassingScore       int          `json:"passingScore" bson:"passingScore" validate:"min=50,max=100"`
	MaxAttempts        int          `json:"maxAttempts" bson:"maxAttempts" validate:"min=1"`
	IsActive           bool         `json:"isActive" bson:"isActive"`
	IsPublic           bool         `json:"isPublic" bson:"isPublic"`
	CreatedBy          string       `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	Tags               []string     `json:"tags,omitempty" bson:"tags,omitempty"`
	Prerequisites      []string     `json:"prerequisites,omitempty" bson:"prerequisites,omitempty"`
	LearningObjectives []string     `json:"learningObjectives,omitempty" bson:"learningObjectives,omitempty"`
	Resources          []Resource   `json:"resources,omitempty" bson:"resources,omitempty" validate:"dive"`
	EstimatedDuration  int          `json:"estimatedDuration" bson:"estimatedDuration"`
	CreatedAt          time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// NewQuiz returns a quiz carrying the documented defaults.
func NewQuiz() Quiz {
	return Quiz{
		Difficulty:   DifficultyMedium,
		TimeLimit:    DefaultTimeLimit,
		PassingScore: DefaultPassingScore,
		MaxAttempts:  DefaultMaxAttempts,
		IsActive:     true,
		IsPublic:     true,
	}
}

// UnmarshalJSON applies defaults for fields absent from the payload.
func (q *Quiz) UnmarshalJSON(data []byte) error {
	type plain Quiz
	p := plain(NewQuiz())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*q = Quiz(p)
	return nil
}

// MarshalJSON adds the derived counters to the wire form.
func (q Quiz) MarshalJSON() ([]byte, error) {
	type plain Quiz
	return json.Marshal(struct {
		plain
		QuestionCount int `json:"questionCount"`
		TotalPoints   int `json:"totalPoints"`
	}{plain(q), q.QuestionCount(), q.TotalPoints()})
}

func (q Quiz) QuestionCount() int {
	return len(q.Questions)
}

// TotalPoints is the sum of every question's point value.
func (q Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// SetQuestions replaces the question list and recomputes the duration estimate.
func (q *Quiz) SetQuestions(questions []Question) {
	q.Questions = questions
	q.EstimatedDuration = EstimateDuration(len(questions))
}

// EstimateDuration allows one minute per question with a five minute floor.
// An empty quiz has no duration.
func EstimateDuration(questionCount int) int {
	if questionCount == 0 {
		return 0
	}
	if questionCount < minEstimatedDuration {
		return minEstimatedDuration
	}
	return questionCount
}

// Question looks up a question by ID.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Normalize trims free-text fields.
func (q *Quiz) Normalize() {
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	for i := range q.Questions {
		q.Questions[i].Prompt = strings.TrimSpace(q.Questions[i].Prompt)
		q.Questions[i].Explanation = strings.TrimSpace(q.Questions[i].Explanation)
		q.Questions[i].CorrectAnswer = strings.TrimSpace(q.Questions[i].CorrectAnswer)
		for j := range q.Questions[i].Options {
			q.Questions[i].Options[j].Text = strings.TrimSpace(q.Questions[i].Options[j].Text)
		}
	}
}

// ForTaker returns a copy safe to serve to quiz takers: inactive questions are
// dropped and canonical answers are hidden.
func (q Quiz) ForTaker() Quiz {
	out := q
	out.Questions = make([]Question, 0, len(q.Questions))
	for _, question := range q.Questions {
		if !question.Active {
			continue
		}
		question.CorrectAnswer = ""
		question.Explanation = ""
		opts := make([]Option, len(question.Options))
		for i, opt := range question.Options {
			opts[i] = Option{Text: opt.Text}
		}
		question.Options = opts
		out.Questions = append(out.Questions, question)
	}
	return out
}

// QuizSummary is the projection joined onto attempt listings.
type QuizSummary struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Category   QuizCategory `json:"category"`
	Difficulty Difficulty   `json:"difficulty"`
}

func (q Quiz) Summary() QuizSummary {
	return QuizSummary{ID: q.ID, Title: q.Title, Category: q.Category, Difficulty: q.Difficulty}
}

// QuizFilter narrows quiz listings. Empty fields match everything.
type QuizFilter struct {
	Demographic Demographic
	Category    QuizCategory
	Difficulty  Difficulty
	// Available restricts results to active, public quizzes.
	Available bool
}

// Matches applies the filter in memory. A demographic filter also matches quizzes aimed at everyone.
func (f QuizFilter) Matches(q Quiz) bool {
	if f.Available && (!q.IsActive || !q.IsPublic) {
		return false
	}
	if f.Demographic != "" && q.TargetDemographic != f.Demographic && q.TargetDemographic != DemographicAll {
		return false
	}
	if f.Category != "" && q.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	return true
}
