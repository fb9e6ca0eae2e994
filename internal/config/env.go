package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskforge/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskforge/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

type OrchestratorEnv struct {
	DefaultStrategy      string        `envconfig:"DEFAULT_STRATEGY" default:"ITERATIVE"`
	MaxIterations        int           `envconfig:"MAX_ITERATIONS" default:"3"`
	MaxReviewCycles      int           `envconfig:"MAX_REVIEW_CYCLES" default:"2"`
	MaxParallelSubagents int           `envconfig:"MAX_PARALLEL_SUBAGENTS" default:"4"`
	ExecutionTimeout     time.Duration `envconfig:"EXECUTION_TIMEOUT" default:"10m"`
	ConfidenceThreshold  float64       `envconfig:"CONFIDENCE_THRESHOLD" default:"0.5"`
	EnableEscalation     bool          `envconfig:"ENABLE_ESCALATION" default:"true"`
}

type ClassifierEnv struct {
	// URL of the remote classifier service. Empty means the local heuristic
	// classifier is used instead.
	URL             string        `envconfig:"CLASSIFIER_URL"`
	Timeout         time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"50ms"`
	MaxAttempts     int           `envconfig:"CLASSIFIER_MAX_ATTEMPTS" default:"2"`
	RetryInterval   time.Duration `envconfig:"CLASSIFIER_RETRY_INTERVAL" default:"20ms"`
	BreakerFailures int           `envconfig:"CLASSIFIER_BREAKER_FAILURES" default:"3"`
	BreakerCooldown time.Duration `envconfig:"CLASSIFIER_BREAKER_COOLDOWN" default:"30s"`
}

type LLMEnv struct {
	BaseURL             string        `envconfig:"LLM_BASE_URL" required:"true"`
	APIKey              string        `envconfig:"LLM_API_KEY"`
	Model               string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	RequestTimeout      time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"120s"`
	MaxAttempts         int           `envconfig:"LLM_MAX_ATTEMPTS" default:"3"`
	RetryInterval       time.Duration `envconfig:"LLM_RETRY_INTERVAL" default:"500ms"`
	MaxTokens           int           `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	Temperature         float64       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	PromptCostPer1K     float64       `envconfig:"LLM_PROMPT_COST_PER_1K" default:"0.00015"`
	CompletionCostPer1K float64       `envconfig:"LLM_COMPLETION_COST_PER_1K" default:"0.0006"`
}

type Env struct {
	BaseEnv
	StorageEnv
	OrchestratorEnv
	ClassifierEnv
	LLMEnv
}

const namespace = "TASKFORGE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
