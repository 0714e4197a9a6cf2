package service

import (
	"accounting_academy_backend/internal/model"
	"testing"
)

func makeQuestions(ids ...string) []model.QuickTestQuestion {
	questions := make([]model.QuickTestQuestion, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, model.QuickTestQuestion{
			ID:   id,
			Text: "question " + id,
			Options: []model.QuickTestOption{
				{ID: id + "-a", Text: "right", IsCorrect: true},
				{ID: id + "-b", Text: "wrong"},
				{ID: id + "-c", Text: "also wrong"},
			},
		})
	}
	return questions
}

func answered(ids ...string) map[string]model.AnswerRecord {
	answers := make(map[string]model.AnswerRecord, len(ids))
	for _, id := range ids {
		answers[id] = model.AnswerRecord{QuestionID: id, SelectedOptionID: id + "-a", IsCorrect: true}
	}
	return answers
}

func TestFindNextUnansweredIndex(t *testing.T) {
	questions := makeQuestions("q1", "q2", "q3", "q4")

	tests := []struct {
		name     string
		current  int
		answered []string
		want     int
	}{
		{"forward scan", 0, []string{"q1"}, 1},
		{"skips answered ahead", 1, []string{"q1", "q2", "q3"}, 3},
		{"wraps to start", 3, []string{"q3", "q4"}, 0},
		{"wraps past answered", 2, []string{"q1", "q3", "q4"}, 1},
		{"current is the only one left", 1, []string{"q1", "q3", "q4"}, 1},
		{"all answered", 2, []string{"q1", "q2", "q3", "q4"}, -1},
		{"nothing answered", 0, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindNextUnansweredIndex(tt.current, questions, answered(tt.answered...))
			if got != tt.want {
				t.Errorf("FindNextUnansweredIndex(%d) = %d, want %d", tt.current, got, tt.want)
			}
		})
	}
}

func TestShuffleQuestionsPreservesContent(t *testing.T) {
	original := makeQuestions("q1", "q2", "q3", "q4", "q5")
	shuffled := ShuffleQuestions(original)

	if len(shuffled) != len(original) {
		t.Fatalf("length changed: got %d, want %d", len(shuffled), len(original))
	}

	// The original slice must not be reordered in place.
	for i, id := range []string{"q1", "q2", "q3", "q4", "q5"} {
		if original[i].ID != id {
			t.Fatalf("original slice mutated at %d: %s", i, original[i].ID)
		}
	}

	seen := map[string]bool{}
	for _, q := range shuffled {
		seen[q.ID] = true
		if len(q.Options) != 3 {
			t.Fatalf("question %s lost options", q.ID)
		}
		if q.CorrectOptionID() != q.ID+"-a" {
			t.Errorf("question %s correct option changed: %s", q.ID, q.CorrectOptionID())
		}
	}
	for _, q := range original {
		if !seen[q.ID] {
			t.Errorf("question %s missing after shuffle", q.ID)
		}
	}
}

func TestShuffleQuestionsVariesOrder(t *testing.T) {
	original := makeQuestions("q1", "q2", "q3", "q4", "q5", "q6")

	sameOrder := func(qs []model.QuickTestQuestion) bool {
		for i := range qs {
			if qs[i].ID != original[i].ID {
				return false
			}
		}
		return true
	}
	sameOptions := func(qs []model.QuickTestQuestion) bool {
		for _, q := range qs {
			for i, suffix := range []string{"-a", "-b", "-c"} {
				if q.Options[i].ID != q.ID+suffix {
					return false
				}
			}
		}
		return true
	}

	// 720 question permutations: 30 identical draws in a row would mean the
	// shuffle is a no-op.
	questionOrderMoved := false
	optionOrderMoved := false
	for i := 0; i < 30; i++ {
		shuffled := ShuffleQuestions(original)
		if !sameOrder(shuffled) {
			questionOrderMoved = true
		}
		if !sameOptions(shuffled) {
			optionOrderMoved = true
		}
		if questionOrderMoved && optionOrderMoved {
			return
		}
	}
	if !questionOrderMoved {
		t.Error("question order never changed across 30 shuffles")
	}
	if !optionOrderMoved {
		t.Error("option order never changed across 30 shuffles")
	}
}

func TestScoreLevel(t *testing.T) {
	questions := makeQuestions("q1", "q2", "q3")
	answers := map[string]model.AnswerRecord{
		"q1": {QuestionID: "q1", SelectedOptionID: "q1-a", IsCorrect: true},
		"q2": {QuestionID: "q2", SelectedOptionID: "q2-b", IsCorrect: false},
		// q3 unanswered.
	}

	score, records := ScoreLevel(questions, answers)
	if score != 1 {
		t.Errorf("score = %d, want 1", score)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	byID := map[string]model.AnswerRecord{}
	for _, r := range records {
		byID[r.QuestionID] = r
	}
	if !byID["q1"].IsCorrect {
		t.Error("q1 should be correct")
	}
	if byID["q2"].IsCorrect {
		t.Error("q2 should be wrong")
	}
	if _, ok := byID["q3"]; ok {
		t.Error("q3 was never answered, no record expected")
	}
}
