package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Config holds all environment-sourced settings. The process refuses to start
// when any rule is violated.
type Config struct {
	Port      int    `env:"PORT"       envDefault:"8000"`
	MongoURI  string `env:"MONGO_URI"  validate:"required,url"`
	DBName    string `env:"DB_NAME"    envDefault:"auth"`
	JWTSecret string `env:"JWT_SECRET" validate:"required,min=32"`
	ClientURL string `env:"CLIENT_URL" validate:"required,url"`
	Email     string `env:"EMAIL"      validate:"required,email"`
	Password  string `env:"PASSWORD"   validate:"required,min=8"`
	SMTPHost  string `env:"SMTP_HOST"  envDefault:"smtp.gmail.com"`
	SMTPPort  int    `env:"SMTP_PORT"  envDefault:"587"`
}

// Load parses and validates the configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	validation := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validation, trans); err != nil {
		return err
	}

	err := validation.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		messages := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			messages = append(messages, fieldErr.Translate(trans))
		}

		return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
	}

	return err
}
