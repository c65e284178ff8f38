package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	LLM     LLMConfig
	Data    DataConfig
	Archive ArchiveConfig
}

// LLMConfig selects the model provider for wizard generation and chat.
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// DataConfig locates the on-disk content roots and the optional Postgres DSN
// for the model store.
type DataConfig struct {
	SkillsDir      string
	ModelsDir      string
	SettingsDir    string
	MethodologyDir string
	DoclibDir      string
	PostgresDSN    string
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Port: *port,
		Env:  env,
		LLM: LLMConfig{
			Provider: firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "openai"),
			APIKey: firstNonEmpty(
				strings.TrimSpace(os.Getenv("LLM_API_KEY")),
				strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
				strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
				strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			),
			Model:   strings.TrimSpace(os.Getenv("LLM_MODEL")),
			BaseURL: strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		},
		Data: DataConfig{
			SkillsDir:      firstNonEmpty(strings.TrimSpace(os.Getenv("SKILLS_DIR")), "data/skills/strategy-modeling"),
			ModelsDir:      firstNonEmpty(strings.TrimSpace(os.Getenv("MODELS_DIR")), "data/models"),
			SettingsDir:    firstNonEmpty(strings.TrimSpace(os.Getenv("SETTINGS_DIR")), "data/settings"),
			MethodologyDir: firstNonEmpty(strings.TrimSpace(os.Getenv("METHODOLOGY_DIR")), "data/methodology"),
			DoclibDir:      firstNonEmpty(strings.TrimSpace(os.Getenv("DOCLIB_DIR")), "data/doclib"),
			PostgresDSN:    strings.TrimSpace(os.Getenv("MODEL_STORE_PG_DSN")),
		},
		Archive: loadArchiveConfig(env),
	}
	return cfg, nil
}

func loadArchiveConfig(env string) ArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "aioep-models"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARCHIVE_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
