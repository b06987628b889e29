package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/repositories"
	"alfredoptarigan/skill-evaluator/internal/services"
)

const (
	PromptAnswer = "Answer this question"
	PromptSkip   = "Skip"
	PromptQuit   = "Quit"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice interview answers in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		st, err := openStores(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.close()

		engine, closeEngine, err := newEngine(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeEngine()

		meta := services.RecordMeta{UserID: "cli", SessionID: services.NewSessionID()}
		if email != "" {
			user, err := st.users.FindByEmail(ctx, email)
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("no account for %s", email)
			}
			if err != nil {
				return err
			}
			meta.UserID = user.ID
		}

		evaluator := services.NewEvaluatorService(st.history, engine, nil, nil, log)

		role, err := ask("Job role", false)
		if err != nil {
			return err
		}
		cfgInterview, err := services.GetModeConfig(models.ModeInterview)
		if err != nil {
			return err
		}
		levels := make([]string, 0, len(cfgInterview.DifficultyLevels))
		for _, l := range cfgInterview.DifficultyLevels {
			levels = append(levels, l.ID)
		}
		_, level, err := (&promptui.Select{Label: "Difficulty", Items: levels, CursorPos: 1}).Run()
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("questions")

		set, err := evaluator.GenerateQuestions(ctx, models.QuestionRequest{
			JobRole:           role,
			DifficultyLevel:   level,
			NumberOfQuestions: count,
		})
		if err != nil {
			return err
		}

		var totals []float64
		for i, question := range set.Questions {
			fmt.Printf("\nQuestion %d/%d: %s\n", i+1, len(set.Questions), question)

			_, action, err := (&promptui.Select{Label: "Next", Items: []string{PromptAnswer, PromptSkip, PromptQuit}}).Run()
			if err != nil {
				return err
			}
			if action == PromptQuit {
				break
			}
			if action == PromptSkip {
				continue
			}

			answer, err := ask("Your answer", false)
			if err != nil {
				return err
			}

			rec, err := evaluator.EvaluateInterview(ctx, meta, models.InterviewSubmission{
				Question: question,
				Answer:   answer,
				JobRole:  role,
			})
			if err != nil {
				log.Error("❌ Evaluation failed", zap.Error(err))
				continue
			}
			printResult(rec.Result)
			totals = append(totals, rec.Result.TotalScore)
		}

		if len(totals) > 0 {
			var sum float64
			for _, t := range totals {
				sum += t
			}
			fmt.Printf("\nSession average: %.1f over %d answer(s)\n", sum/float64(len(totals)), len(totals))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().String("email", "", "save results to this account's history")
	practiceCmd.Flags().IntP("questions", "n", services.DefaultQuestionCount, "number of questions")
}

func printResult(r models.EvaluationResult) {
	fmt.Printf("\n%s: %.1f/100 (%s)\n", r.ModeDisplayName, r.TotalScore, r.LetterGrade)
	for _, c := range r.Categories {
		fmt.Printf("  %-26s %4.1f/%-3.0f %s\n", c.Name, c.Score, c.MaxScore, strings.Repeat("█", int(c.Percent/10)))
	}
	printList("Strengths", r.Strengths)
	printList("Improvements", r.Improvements)
	if r.SampleImprovedAnswer != "" {
		fmt.Printf("\nSample improved answer:\n  %s\n", r.SampleImprovedAnswer)
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
