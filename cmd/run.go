package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/archive"
	"github.com/srujanlakku/ai-interview-agent/internal/evaluate"
	"github.com/srujanlakku/ai-interview-agent/internal/interview"
	"github.com/srujanlakku/ai-interview-agent/internal/logger"
	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
	"github.com/srujanlakku/ai-interview-agent/internal/oracle/gemini"
	"github.com/srujanlakku/ai-interview-agent/internal/question"
	"github.com/srujanlakku/ai-interview-agent/internal/secrets"
)

const (
	PromptAnswer = "Answer the question"
	PromptSkip   = "Skip to another question"
	PromptEnd    = "End the interview and get the report"
)

var errEndRequested = errors.New("end requested")

var turnPrompt = promptui.Select{
	Label: "Next move?",
	Items: []string{PromptAnswer, PromptSkip, PromptEnd},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive mock interview",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("archive-file", "a", "", "sqlite file for archived reports. Default is interviews.db in current directory.")

	viper.BindPFlag("archive.path", runCmd.Flags().Lookup("archive-file"))
}

// run is the main command for the cli.
func run(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ai-interview-agent", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Candidate == nil || config.Candidate.Role == "" {
		logger.Fatal("candidate role is required under candidate.role to run an interview")
	}

	orchestrator, err := buildOrchestrator(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the interview engine", zap.Error(err))
	}

	profile := interview.Profile{
		Role:       config.Candidate.Role,
		Company:    config.Candidate.Company,
		Experience: config.Candidate.Experience,
	}

	session, err := orchestrator.Start(ctx, profile)
	if err != nil {
		logger.Fatal("starting the interview",
			zap.Error(err),
			zap.String("hint", "the question service must be reachable to open a session"),
		)
	}

	logger.Info("interview started",
		zap.String("session_id", session.ID),
		zap.String("role", profile.Role),
	)

	session = interviewLoop(ctx, orchestrator, session, logger)

	session, report, err := orchestrator.End(ctx, session)
	if err != nil {
		logger.Fatal("finishing the interview", zap.Error(err))
	}

	printReport(report)

	if err := archiveReport(ctx, config, report); err != nil {
		logger.Warn("archiving the report", zap.Error(err))
	} else {
		logger.Info("report archived", zap.String("session_id", session.ID))
	}
}

func interviewLoop(ctx context.Context, orchestrator *interview.Orchestrator, session *interview.Session, logger *zap.Logger) *interview.Session {
	for session.Status == interview.StatusInProgress && session.Active != nil {
		printQuestion(session)

		_, action, err := turnPrompt.Run()
		if err != nil {
			logger.Warn("prompt aborted, ending the interview", zap.Error(err))
			return session
		}

		next, err := handleTurn(ctx, action, orchestrator, session)
		if err != nil {
			if errors.Is(err, errEndRequested) {
				return session
			}
			logger.Fatal("processing the turn", zap.Error(err))
		}

		if last, ok := next.Memory.Last(); ok {
			fmt.Printf("\nScore: %.1f/10. %s\n", last.Evaluation.Score, last.Evaluation.Feedback)
		}

		session = next
	}

	return session
}

func handleTurn(ctx context.Context, action string, orchestrator *interview.Orchestrator, session *interview.Session) (*interview.Session, error) {
	switch action {
	case PromptAnswer:
		answer := readAnswer()
		return orchestrator.ProcessAnswer(ctx, session, answer)
	case PromptSkip:
		// A skip is an empty answer: it still consumes a turn and scores
		// accordingly.
		return orchestrator.ProcessAnswer(ctx, session, "")
	case PromptEnd:
		return nil, errEndRequested
	default:
		return nil, fmt.Errorf("invalid action: %s", action)
	}
}

func printQuestion(session *interview.Session) {
	q := session.Active

	fmt.Printf("\nQuestion %d/%d [%s / %s / %s]\n",
		session.QuestionCount+1, session.MaxQuestions, q.Type, q.Topic, q.Difficulty)
	fmt.Println(q.Text)

	if q.Coding != nil && q.Coding.Statement != "" {
		fmt.Printf("\nProblem statement:\n%s\n", q.Coding.Statement)
	}
}

// readAnswer reads a multi-line answer terminated by an empty line.
func readAnswer() string {
	fmt.Println("Your answer (finish with an empty line):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func printReport(report *interview.Report) {
	fmt.Printf("\n=== Interview report ===\n")
	fmt.Printf("Verdict: %s (overall %.1f/10 over %d questions)\n\n", report.Readiness, report.OverallScore, report.QuestionsAsked)
	fmt.Println(report.Narrative)

	if len(report.CategoryScores) > 0 {
		fmt.Println("\nBy category:")
		for category, score := range report.CategoryScores {
			fmt.Printf("  %-14s %.1f/10\n", category, score)
		}
	}
	if len(report.Strengths) > 0 {
		fmt.Println("\nStrengths:")
		for _, s := range report.Strengths {
			fmt.Printf("  - %s\n", s)
		}
	}
	if len(report.Weaknesses) > 0 {
		fmt.Println("\nAreas to improve:")
		for _, w := range report.Weaknesses {
			fmt.Printf("  - %s\n", w)
		}
	}
}

func archiveReport(ctx context.Context, config *Config, report *interview.Report) error {
	store, err := archive.Open(archivePath(config))
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(ctx, report)
}

func archivePath(config *Config) string {
	if config != nil && config.Archive != nil && strings.TrimSpace(config.Archive.Path) != "" {
		return config.Archive.Path
	}
	if path := strings.TrimSpace(viper.GetString("archive.path")); path != "" {
		return path
	}
	return "interviews.db"
}

func buildOrchestrator(ctx context.Context, config *Config, logger *zap.Logger) (*interview.Orchestrator, error) {
	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	source := question.NewGenerator(completer, logger)
	gateway := evaluate.NewGateway(
		evaluate.NewTechnical(completer, logger),
		evaluate.NewCoding(completer, logger),
		evaluate.NewBehavioral(completer, logger),
		logger,
	)
	decisions := interview.NewDecisionEngine(completer, logger)
	summarizer := interview.NewSummarizer(completer, logger)

	engineConfig := interview.Config{}
	if config.Interview != nil {
		engineConfig.MaxQuestions = config.Interview.MaxQuestions
		engineConfig.MemorySize = config.Interview.MemorySize
		engineConfig.DefaultDifficulty = interview.ParseDifficulty(config.Interview.DefaultDifficulty)
	}

	return interview.New(source, gateway, decisions, summarizer, engineConfig, logger), nil
}

func newCompleter(ctx context.Context, cfg *AIConfig, log *zap.Logger) (oracle.Completer, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required under ai.gemini")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	clientLogger := logger.WithFields(log, logger.CommonFields("gemini", cfg.Gemini.Model)...)

	opts := []gemini.Option{}
	if cfg.Gemini.MaxLogLength > 0 {
		opts = append(opts, gemini.WithMaxLogLength(cfg.Gemini.MaxLogLength))
	}
	if timeout := strings.TrimSpace(cfg.Gemini.CallTimeout); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing ai.gemini.call-timeout: %w", err)
		}
		opts = append(opts, gemini.WithCallTimeout(parsed))
	}

	return gemini.New(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, clientLogger, opts...)
}
