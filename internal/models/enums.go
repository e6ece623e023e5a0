package models

import "fmt"

// TestType identifies the kind of assessment a test represents.
type TestType string

const (
	TestComprehension TestType = "comprehension"
	TestEssay         TestType = "essay"
	TestLetter        TestType = "letter"
)

// AllTestTypes returns the supported test types in display order.
func AllTestTypes() []TestType {
	return []TestType{TestComprehension, TestEssay, TestLetter}
}

// ParseTestType validates a raw test type string.
func ParseTestType(s string) (TestType, error) {
	switch t := TestType(s); t {
	case TestComprehension, TestEssay, TestLetter:
		return t, nil
	}
	return "", fmt.Errorf("unknown test type %q", s)
}

// IsSubjective reports whether the type is scored by the feedback generator
// rather than by answer-key comparison.
func (t TestType) IsSubjective() bool {
	return t == TestEssay || t == TestLetter
}

// Skill maps a test type onto its skills-breakdown bucket.
func (t TestType) Skill() string {
	if t == TestComprehension {
		return "reading"
	}
	return string(t)
}

// Label returns the capitalized name used in generated test titles.
func (t TestType) Label() string {
	switch t {
	case TestComprehension:
		return "Comprehension"
	case TestEssay:
		return "Essay"
	case TestLetter:
		return "Letter"
	}
	return string(t)
}

// Level is a learner proficiency band.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// AllLevels returns the proficiency levels in ascending order.
func AllLevels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}
}

// ParseLevel validates a raw level string.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// AttemptStatus tracks whether an attempt's score may still be replaced by
// an AI-assessed score.
type AttemptStatus string

const (
	AttemptProvisional AttemptStatus = "provisional"
	AttemptFinalized   AttemptStatus = "finalized"
)

// AchievementType groups achievements by what earned them.
type AchievementType string

const (
	AchievementStreak     AchievementType = "streak"
	AchievementScore      AchievementType = "score"
	AchievementCompletion AchievementType = "completion"
)
