// Package models defines the persisted entities of the tutor service.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a learner. The ID is the opaque subject issued by the
// authentication gate.
type User struct {
	ID               string     `gorm:"primaryKey;size:191" json:"id"`
	Email            *string    `gorm:"size:255" json:"email"`
	FirstName        *string    `gorm:"size:255" json:"firstName"`
	LastName         *string    `gorm:"size:255" json:"lastName"`
	ProfileImageURL  *string    `gorm:"size:1024" json:"profileImageUrl"`
	CurrentLevel     Level      `gorm:"size:32;not null;default:beginner" json:"currentLevel"`
	TotalPoints      int        `gorm:"not null;default:0" json:"totalPoints"`
	CurrentStreak    int        `gorm:"not null;default:0" json:"currentStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Module is an authored unit of learning content.
type Module struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Level       Level     `gorm:"size:32;not null;index" json:"level"`
	Content     string    `json:"content"`
	Order       int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ModuleProgress records a user's completion state for one module.
type ModuleProgress struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:191;not null;uniqueIndex:idx_progress_user_module" json:"userId"`
	ModuleID    string     `gorm:"size:36;not null;uniqueIndex:idx_progress_user_module" json:"moduleId"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	Score       *float64   `json:"score"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (ModuleProgress) TableName() string { return "user_module_progress" }

// Question is one multiple-choice item of a comprehension test.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// TestContent is the structured body of a test: a passage with questions
// for comprehension, or a writing prompt for essays and letters.
type TestContent struct {
	Passage      string     `json:"passage,omitempty"`
	Prompt       string     `json:"prompt,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	WordLimit    int        `json:"wordLimit,omitempty"`
	Questions    []Question `json:"questions,omitempty"`
}

// Test is an assessment definition.
type Test struct {
	ID        string                          `gorm:"primaryKey;size:36" json:"id"`
	Title     string                          `gorm:"not null" json:"title"`
	Type      TestType                        `gorm:"size:32;not null;index" json:"type"`
	Level     Level                           `gorm:"size:32;not null;index" json:"level"`
	Content   datatypes.JSONType[TestContent] `json:"content"`
	MaxScore  int                             `gorm:"not null;default:10" json:"maxScore"`
	TimeLimit int                             `gorm:"column:time_limit_minutes;not null;default:30" json:"timeLimit"`
	CreatedAt time.Time                       `json:"createdAt"`
}

// TestAttempt is one submission of a test by a user.
type TestAttempt struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	UserID       string         `gorm:"size:191;not null;index" json:"userId"`
	TestID       string         `gorm:"size:36;not null;index" json:"testId"`
	Answers      datatypes.JSON `json:"answers"`
	Score        float64        `gorm:"not null;default:0" json:"score"`
	Status       AttemptStatus  `gorm:"size:16;not null;default:finalized" json:"status"`
	PointsEarned int            `gorm:"not null;default:0" json:"pointsEarned"`
	Rewarded     bool           `gorm:"not null;default:false" json:"-"`
	TimeSpent    *int           `json:"timeSpent"`
	CompletedAt  time.Time      `gorm:"not null;index" json:"completedAt"`

	Test     *Test       `gorm:"foreignKey:TestID" json:"test,omitempty"`
	Feedback *AIFeedback `gorm:"foreignKey:TestAttemptID" json:"feedback,omitempty"`
}

// AIFeedback is the generated assessment of a subjective attempt.
type AIFeedback struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	TestAttemptID   string    `gorm:"size:36;not null;uniqueIndex" json:"testAttemptId"`
	OverallScore    float64   `gorm:"not null" json:"overallScore"`
	GrammarScore    float64   `gorm:"not null" json:"grammarScore"`
	VocabularyScore float64   `gorm:"not null" json:"vocabularyScore"`
	StructureScore  float64   `gorm:"not null" json:"structureScore"`
	Strengths       string    `json:"strengths"`
	Improvements    string    `json:"improvements"`
	Suggestions     string    `json:"suggestions"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (AIFeedback) TableName() string { return "ai_feedback" }

// DailyActivity aggregates a user's activity for one calendar day.
type DailyActivity struct {
	ID                  string    `gorm:"primaryKey;size:36" json:"id"`
	UserID              string    `gorm:"size:191;not null;uniqueIndex:idx_activity_user_day" json:"userId"`
	Day                 string    `gorm:"size:10;not null;uniqueIndex:idx_activity_user_day" json:"date"`
	ActivitiesCompleted int       `gorm:"not null;default:0" json:"activitiesCompleted"`
	PointsEarned        int       `gorm:"not null;default:0" json:"pointsEarned"`
	CreatedAt           time.Time `json:"createdAt"`
}

func (DailyActivity) TableName() string { return "streak_history" }

// Achievement is a badge earned by a user.
type Achievement struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      string          `gorm:"size:191;not null;uniqueIndex:idx_achievement_unique" json:"userId"`
	Type        AchievementType `gorm:"size:32;not null;uniqueIndex:idx_achievement_unique" json:"type"`
	Title       string          `gorm:"size:128;not null;uniqueIndex:idx_achievement_unique" json:"title"`
	Description string          `json:"description"`
	EarnedAt    time.Time       `gorm:"not null" json:"earnedAt"`
}

// LLMRequestEvent is an audit record of one text-generation call.
type LLMRequestEvent struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Provider     string    `gorm:"size:64" json:"provider"`
	Model        string    `gorm:"size:128" json:"model"`
	Purpose      string    `gorm:"size:64;index" json:"purpose"`
	Subject      string    `gorm:"size:128" json:"subject,omitempty"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	RequestBody  string    `json:"requestBody,omitempty"`
	ResponseBody string    `json:"responseBody,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&User{}, &Module{}, &ModuleProgress{}, &Test{}, &TestAttempt{},
		&AIFeedback{}, &DailyActivity{}, &Achievement{}, &LLMRequestEvent{},
	}
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (m *Module) BeforeCreate(*gorm.DB) error          { newID(&m.ID); return nil }
func (m *ModuleProgress) BeforeCreate(*gorm.DB) error  { newID(&m.ID); return nil }
func (m *Test) BeforeCreate(*gorm.DB) error            { newID(&m.ID); return nil }
func (m *TestAttempt) BeforeCreate(*gorm.DB) error     { newID(&m.ID); return nil }
func (m *AIFeedback) BeforeCreate(*gorm.DB) error      { newID(&m.ID); return nil }
func (m *DailyActivity) BeforeCreate(*gorm.DB) error   { newID(&m.ID); return nil }
func (m *Achievement) BeforeCreate(*gorm.DB) error     { newID(&m.ID); return nil }
func (m *LLMRequestEvent) BeforeCreate(*gorm.DB) error { newID(&m.ID); return nil }
