package service

import "testing"

func TestEligible(t *testing.T) {
	tests := []struct {
		name            string
		completed       int
		totalStages     int
		correct, wrong  int
		threshold       float64
		want            bool
	}{
		{"all stages, score on the line", 3, 3, 8, 2, 80, true},
		{"all stages, score below", 3, 3, 7, 3, 80, false},
		{"one stage missing", 2, 3, 10, 0, 80, false},
		{"no stages configured", 0, 0, 10, 0, 80, false},
		{"nothing answered", 3, 3, 0, 0, 80, false},
		{"perfect run", 3, 3, 12, 0, 80, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Eligible(tt.completed, tt.totalStages, tt.correct, tt.wrong, tt.threshold)
			if got != tt.want {
				t.Errorf("Eligible(%d, %d, %d, %d, %v) = %v, want %v",
					tt.completed, tt.totalStages, tt.correct, tt.wrong, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestIssueIfEligibleRejectsIncompleteCourse(t *testing.T) {
	f := newQuizFixture(t)
	user := f.seedUser(t)
	stage := f.seedStage(t, 1, 2)
	f.seedStage(t, 2, 2)

	if _, err := f.quiz.Submit(user.ID, stage.ID, answersFor(t, f, stage.ID, 2)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	eligible, _, _, err := f.certificates.EligibilityFor(user.ID)
	if err != nil {
		t.Fatalf("EligibilityFor: %v", err)
	}
	if eligible {
		t.Error("half the course should not be eligible")
	}
}
