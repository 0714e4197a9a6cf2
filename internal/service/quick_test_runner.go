package service

import (
	"accounting_academy_backend/internal/model"
	"math/rand"
)

// Runner navigation and scoring. Kept free of storage so the quiz flow is
// testable on its own.

// ShuffleQuestions returns a copy of the level's questions with the question
// order and every question's option order independently shuffled. The shuffle
// is unseeded on purpose: replays of the same test yield different orders.
func ShuffleQuestions(questions []model.QuickTestQuestion) []model.QuickTestQuestion {
	shuffled := make([]model.QuickTestQuestion, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for qi := range shuffled {
		options := make([]model.QuickTestOption, len(shuffled[qi].Options))
		copy(options, shuffled[qi].Options)
		rand.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		shuffled[qi].Options = options
	}
	return shuffled
}

// FindNextUnansweredIndex scans forward from current+1 for an unanswered
// question, then wraps and scans from 0 through current inclusive. Returns -1
// only when every question is answered. The wrap is what makes "skip" revisit
// skipped questions instead of dropping them.
func FindNextUnansweredIndex(current int, questions []model.QuickTestQuestion, answers map[string]model.AnswerRecord) int {
	for i := current + 1; i < len(questions); i++ {
		if _, ok := answers[questions[i].ID]; !ok {
			return i
		}
	}
	for i := 0; i <= current && i < len(questions); i++ {
		if _, ok := answers[questions[i].ID]; !ok {
			return i
		}
	}
	return -1
}

// ScoreLevel derives the subset of answers belonging to the level's questions
// and counts the correct ones.
func ScoreLevel(questions []model.QuickTestQuestion, answers map[string]model.AnswerRecord) (int, []model.AnswerRecord) {
	records := make([]model.AnswerRecord, 0, len(questions))
	score := 0
	for _, q := range questions {
		rec, ok := answers[q.ID]
		if !ok {
			continue
		}
		records = append(records, rec)
		if rec.IsCorrect {
			score++
		}
	}
	return score, records
}
