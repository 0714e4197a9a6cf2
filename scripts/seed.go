// Seeds a fresh database with a small demo course: three stages and one
// published quick test.
//
// Usage: go run scripts/seed.go

package main

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/pkg/database"
	"accounting_academy_backend/pkg/logger"
	"fmt"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	stageRepo := repository.NewStageRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	storage := service.NewStorageService(cfg)
	stages := service.NewStageService(stageRepo, progressRepo, storage, cfg, db)

	stageInputs := []service.StageInput{
		{
			StageNumber: 1,
			Title:       "Fundamentals of Accounting",
			Description: "Assets, liabilities, equity and the accounting equation.",
			Questions: []service.StageQuestionInput{
				{
					Text:         "Which equation must always hold?",
					Options:      []string{"Assets = Liabilities + Equity", "Assets = Revenue - Expenses", "Equity = Assets + Liabilities"},
					CorrectIndex: 0,
				},
				{
					Text:         "A company buys equipment with cash. Total assets...",
					Options:      []string{"Increase", "Decrease", "Stay the same"},
					CorrectIndex: 2,
				},
			},
		},
		{
			StageNumber: 2,
			Title:       "Double-Entry Bookkeeping",
			Description: "Debits, credits and the journal.",
			Questions: []service.StageQuestionInput{
				{
					Text:         "A debit entry increases which account type?",
					Options:      []string{"Revenue", "Assets", "Liabilities"},
					CorrectIndex: 1,
				},
				{
					Text:         "Every journal entry must...",
					Options:      []string{"Balance debits and credits", "Touch exactly two accounts", "Involve cash"},
					CorrectIndex: 0,
				},
			},
		},
		{
			StageNumber: 3,
			Title:       "Financial Statements",
			Description: "Balance sheet, income statement and cash flow.",
			Questions: []service.StageQuestionInput{
				{
					Text:         "Net income appears on which statement?",
					Options:      []string{"Balance sheet", "Income statement", "Statement of cash flows only"},
					CorrectIndex: 1,
				},
				{
					Text:         "Retained earnings belong to...",
					Options:      []string{"Liabilities", "Assets", "Equity"},
					CorrectIndex: 2,
				},
			},
		},
	}

	for _, input := range stageInputs {
		stage, err := stages.CreateStage(input)
		if err != nil {
			log.Fatalf("Failed to seed stage %d: %v", input.StageNumber, err)
		}
		log.Printf("Seeded stage %d: %s", stage.StageNumber, stage.Title)
	}

	testRepo := repository.NewQuickTestRepository(db)
	resultRepo := repository.NewQuickTestResultRepository(db)
	quickTests := service.NewQuickTestService(testRepo, resultRepo, nil, nil, cfg, db)

	threshold := 80
	test, err := quickTests.Create(&service.QuickTestInput{
		Title:                "Bookkeeping Sprint",
		Description:          "Two quick levels on core bookkeeping.",
		IsPublished:          true,
		CertificateThreshold: &threshold,
		Levels: []service.QuickTestLevelInput{
			{
				Title: "Warm-up",
				Questions: []service.QuickTestQuestionInput{
					{
						Text: "Cash is classified as...",
						Options: []service.QuickTestOptionInput{
							{Text: "A current asset", IsCorrect: true},
							{Text: "A liability"},
							{Text: "Equity"},
						},
					},
					{
						Text: "Accounts payable is...",
						Options: []service.QuickTestOptionInput{
							{Text: "An asset"},
							{Text: "A liability", IsCorrect: true},
							{Text: "Revenue"},
						},
					},
				},
			},
			{
				Title: "Challenge",
				Questions: []service.QuickTestQuestionInput{
					{
						Text: "Depreciation is recorded to...",
						Options: []service.QuickTestOptionInput{
							{Text: "Allocate an asset's cost over its life", IsCorrect: true},
							{Text: "Track market value"},
							{Text: "Reduce cash"},
						},
					},
					{
						Text: "Which increases with a credit?",
						Options: []service.QuickTestOptionInput{
							{Text: "Expenses"},
							{Text: "Assets"},
							{Text: "Revenue", IsCorrect: true},
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to seed quick test: %v", err)
	}

	fmt.Printf("Seeded quick test %q, share code: %s\n", test.Title, test.ShareCode)
}
