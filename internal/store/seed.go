package store

import (
	"context"

	"gorm.io/datatypes"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// SeedResult reports how many rows Seed inserted.
type SeedResult struct {
	Modules int
	Tests   int
}

// Seed inserts starter modules and tests into an empty catalog. It is a
// no-op when any module already exists.
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	err := s.Atomically(ctx, func(tx *Store) error {
		var n int64
		if err := tx.conn(ctx).Model(&models.Module{}).Count(&n).Error; err != nil {
			return wrap("count modules", err)
		}
		if n > 0 {
			return nil
		}
		mods := seedModules()
		if err := tx.conn(ctx).Create(&mods).Error; err != nil {
			return wrap("seed modules", err)
		}
		tests := seedTests()
		if err := tx.conn(ctx).Create(&tests).Error; err != nil {
			return wrap("seed tests", err)
		}
		res = SeedResult{Modules: len(mods), Tests: len(tests)}
		return nil
	})
	return res, err
}

func seedModules() []models.Module {
	return []models.Module{
		{Title: "Everyday Greetings", Description: "Introduce yourself and greet people politely.", Level: models.LevelBeginner, Content: "Hello, good morning, nice to meet you.", Order: 1},
		{Title: "Present Simple", Description: "Talk about habits and routines.", Level: models.LevelBeginner, Content: "I walk to school every day.", Order: 2},
		{Title: "Reading Short Notes", Description: "Understand short messages and signs.", Level: models.LevelBeginner, Content: "Closed on Sundays. Back in 10 minutes.", Order: 3},
		{Title: "Past Narratives", Description: "Tell stories with past simple and continuous.", Level: models.LevelIntermediate, Content: "I was reading when the phone rang.", Order: 1},
		{Title: "Formal Letters", Description: "Structure requests and complaints.", Level: models.LevelIntermediate, Content: "Dear Sir or Madam, I am writing to...", Order: 2},
		{Title: "Opinion Paragraphs", Description: "State and support an opinion.", Level: models.LevelIntermediate, Content: "In my view... For example...", Order: 3},
		{Title: "Argumentative Essays", Description: "Build balanced arguments with evidence.", Level: models.LevelAdvanced, Content: "While some argue..., others maintain...", Order: 1},
		{Title: "Academic Reading", Description: "Infer meaning and author stance.", Level: models.LevelAdvanced, Content: "Identify claims, evidence and hedging.", Order: 2},
		{Title: "Register and Tone", Description: "Adapt style to audience and purpose.", Level: models.LevelAdvanced, Content: "Compare informal and formal phrasing.", Order: 3},
	}
}

func seedTests() []models.Test {
	return []models.Test{
		{
			Title: "Comprehension Test - beginner",
			Type:  models.TestComprehension,
			Level: models.LevelBeginner,
			Content: datatypes.NewJSONType(models.TestContent{
				Passage: "Maya lives in a small town near the sea. Every morning she walks her dog on the beach before school. On Saturdays she helps her uncle at his fish shop.",
				Questions: []models.Question{
					{ID: "q1", Question: "Where does Maya live?", Options: []string{"In a big city", "In a small town near the sea", "On a farm", "In the mountains"}, CorrectAnswer: "In a small town near the sea", Points: 1},
					{ID: "q2", Question: "What does Maya do every morning?", Options: []string{"She swims", "She walks her dog", "She works at a shop", "She cooks breakfast"}, CorrectAnswer: "She walks her dog", Points: 1},
					{ID: "q3", Question: "Who does Maya help on Saturdays?", Options: []string{"Her aunt", "Her teacher", "Her uncle", "Her friend"}, CorrectAnswer: "Her uncle", Points: 1},
					{ID: "q4", Question: "What kind of shop is it?", Options: []string{"A book shop", "A fish shop", "A shoe shop", "A toy shop"}, CorrectAnswer: "A fish shop", Points: 1},
				},
			}),
			MaxScore:  10,
			TimeLimit: 15,
		},
		{
			Title: "Essay Test - intermediate",
			Type:  models.TestEssay,
			Level: models.LevelIntermediate,
			Content: datatypes.NewJSONType(models.TestContent{
				Prompt:       "Some people think children should learn a second language at primary school. Do you agree?",
				Instructions: "Write a short essay giving your opinion with at least two reasons and examples.",
				WordLimit:    250,
			}),
			MaxScore:  10,
			TimeLimit: 30,
		},
		{
			Title: "Letter Test - intermediate",
			Type:  models.TestLetter,
			Level: models.LevelIntermediate,
			Content: datatypes.NewJSONType(models.TestContent{
				Prompt:       "You bought a jacket online but it arrived damaged. Write to the shop.",
				Instructions: "Explain the problem, say what you want the shop to do, and keep a polite formal tone.",
				WordLimit:    180,
			}),
			MaxScore:  10,
			TimeLimit: 20,
		},
	}
}
