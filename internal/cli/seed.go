package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/config"
	"cybershield-quiz-service/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewSeedCmd loads quiz definitions from a YAML file into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Quiz.SeedPath
			}
			svc, err := buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Close()
			n, err := seedQuizzes(cmd.Context(), svc.quizzes, file)
			if err != nil {
				return err
			}
			log.Printf("seeded %d quizzes from %s", n, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a top-level quizzes list (defaults to quiz.seed_path)")
	return cmd
}

type seedFile struct {
	Quizzes []any `yaml:"quizzes"`
}

// loadQuizFile decodes quizzes from YAML. Each entry is re-encoded as JSON so the
// quiz and question defaults apply exactly as they do for API payloads.
func loadQuizFile(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	quizzes := make([]domain.Quiz, 0, len(file.Quizzes))
	for i, entry := range file.Quizzes {
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("quiz %d: %w", i, err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("quiz %d: %w", i, err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

func seedQuizzes(ctx context.Context, quizzes *app.QuizService, path string) (int, error) {
	loaded, err := loadQuizFile(path)
	if err != nil {
		return 0, err
	}
	for _, quiz := range loaded {
		if _, err := quizzes.Import(ctx, quiz); err != nil {
			return 0, err
		}
	}
	return len(loaded), nil
}
