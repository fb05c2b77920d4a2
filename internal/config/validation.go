package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"factorportfolio/internal/backtest"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// registration only fails on an empty tag
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("strategy", validateStrategy)

	return &CustomValidator{validator: v}
}

func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

func validateFrequency(fl validator.FieldLevel) bool {
	_, err := backtest.ParseFrequency(fl.Field().String())
	return err == nil
}

func validateStrategy(fl validator.FieldLevel) bool {
	_, err := backtest.ParseStrategy(fl.Field().String())
	return err == nil
}

func validateCrossField(cfg *Config) error {
	start, end, formationEnd, err := cfg.Window()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("universe start_date must be before end_date")
	}
	if formationEnd != nil && (!formationEnd.After(start) || !formationEnd.Before(end)) {
		return fmt.Errorf("universe formation_end must fall strictly between start_date and end_date")
	}

	seen := map[string]bool{}
	for _, symbol := range cfg.Universe.Symbols {
		if seen[symbol] {
			return fmt.Errorf("universe symbols contain duplicate %s", symbol)
		}
		seen[symbol] = true
	}

	if cfg.Optimizer.MinWeight > cfg.Optimizer.MaxWeight {
		return fmt.Errorf("optimizer min_weight %g cannot exceed max_weight %g", cfg.Optimizer.MinWeight, cfg.Optimizer.MaxWeight)
	}

	if len(cfg.Report.EmailTo) > 0 && (cfg.Report.EmailFrom == "" || cfg.Report.SESRegion == "") {
		return fmt.Errorf("report email_to requires email_from and ses_region")
	}

	if _, err := cfg.Schedule(); err != nil {
		return fmt.Errorf("invalid backtest schedule: %w", err)
	}

	return nil
}

func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var msg strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			msg.WriteString(fmt.Sprintf("- Field '%s' is required\n", field))
		case "email":
			msg.WriteString(fmt.Sprintf("- Field '%s' must be an email address, got '%v'\n", field, value))
		case "url":
			msg.WriteString(fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value))
		case "min", "max", "gt", "gte", "lt", "lte":
			msg.WriteString(fmt.Sprintf("- Field '%s' violates %s=%s, got '%v'\n", field, tag, fieldError.Param(), value))
		case "date":
			msg.WriteString(fmt.Sprintf("- Field '%s' must be a YYYY-MM-DD date, got '%v'\n", field, value))
		case "frequency":
			msg.WriteString(fmt.Sprintf("- Field '%s' must be one of: monthly, quarterly, explicit\n", field))
		case "strategy":
			msg.WriteString(fmt.Sprintf("- Field '%s' must be one of: static_daily_rebalance, drifting_buy_and_hold\n", field))
		case "oneof":
			msg.WriteString(fmt.Sprintf("- Field '%s' must be one of: %s, got '%v'\n", field, fieldError.Param(), value))
		default:
			msg.WriteString(fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag))
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", msg.String())
}
