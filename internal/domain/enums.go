package domain

// QuestionType is the answer format of a question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionTrueFalse      QuestionType = "true-false"
	QuestionFillInBlank    QuestionType = "fill-in-blank"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionCategory is the cyber-safety topic a question covers.
type QuestionCategory string

const (
	TopicPhishing       QuestionCategory = "phishing"
	TopicSocialMedia    QuestionCategory = "social-media"
	TopicOnlineShopping QuestionCategory = "online-shopping"
	TopicBanking        QuestionCategory = "banking"
	TopicUPIScams       QuestionCategory = "upi-scams"
	TopicGeneral        QuestionCategory = "general"
)

// QuizCategory is the level a quiz is pitched at.
type QuizCategory string

const (
	LevelBeginner     QuizCategory = "beginner"
	LevelIntermediate QuizCategory = "intermediate"
	LevelAdvanced     QuizCategory = "advanced"
	LevelSpecialized  QuizCategory = "specialized"
)

// Demographic is the audience a quiz targets. DemographicAll matches every audience.
type Demographic string

const (
	DemographicStudents       Demographic = "students"
	DemographicProfessionals  Demographic = "professionals"
	DemographicHomemakers     Demographic = "homemakers"
	DemographicRuralUsers     Demographic = "rural-users"
	DemographicSeniorCitizens Demographic = "senior-citizens"
	DemographicAll            Demographic = "all"
)

type ResourceType string

const (
	ResourceArticle     ResourceType = "article"
	ResourceVideo       ResourceType = "video"
	ResourceInfographic ResourceType = "infographic"
	ResourceTool        ResourceType = "tool"
)

// AttemptStatus tracks where an attempt is in its lifecycle.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in-progress"
	StatusCompleted  AttemptStatus = "completed"
	StatusAbandoned  AttemptStatus = "abandoned"
	StatusTimedOut   AttemptStatus = "timed-out"
)

// Terminal reports whether no further transitions are possible.
func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusTimedOut
}

// Valid reports whether s is one of the known statuses.
func (s AttemptStatus) Valid() bool {
	return s == StatusInProgress || s.Terminal()
}

// FeedbackTier is the qualitative bucket for a percentage score.
type FeedbackTier string

const (
	FeedbackExcellent        FeedbackTier = "excellent"
	FeedbackGood             FeedbackTier = "good"
	FeedbackAverage          FeedbackTier = "average"
	FeedbackNeedsImprovement FeedbackTier = "needs-improvement"
	FeedbackPoor             FeedbackTier = "poor"
)
