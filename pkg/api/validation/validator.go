// ML Maid Core
// Copyright (c) 2026 The ML Maid Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ML Maid Core.
//
// ML Maid Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ML Maid Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ML Maid Core.  If not, see <http://www.gnu.org/licenses/>.

// Package validation provides validation for launch requests and API
// parameters using go-playground/validator with custom rules for monitoring
// modes.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
)

// Common validation errors.
var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
)

// Validator handles validation of launch requests and API parameters.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator with registered custom validators.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("mode", validateMode)
	v.RegisterStructValidation(validateLaunchRequest, models.LaunchRequest{})

	return &Validator{validate: v}
}

// DefaultValidator is a shared validator instance.
var DefaultValidator = NewValidator()

// Validate validates a struct and returns an *Error if validation fails.
func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateAndUnmarshal unmarshals JSON params and validates them.
// Returns ErrMissingParams if params is empty, ErrInvalidParams if unmarshal fails,
// or an Error if validation fails.
func ValidateAndUnmarshal[T any](params json.RawMessage, dest *T) error {
	if len(params) == 0 {
		return ErrMissingParams
	}
	if err := json.Unmarshal(params, dest); err != nil {
		return ErrInvalidParams
	}
	return DefaultValidator.Validate(dest)
}

// validateMode checks the value is a known monitoring mode.
func validateMode(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return models.MonitoringMode(field.Int()).Valid()
	default:
		return false
	}
}

// validateLaunchRequest enforces the per-mode requirements: process mode
// needs at least one process name, folder mode needs a directory to match
// against (an empty one resolves to the executable's directory).
func validateLaunchRequest(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(models.LaunchRequest)
	if !ok {
		return
	}
	switch req.Mode {
	case models.ModeProcess:
		if procinspect.NewNameMatcher(req.ProcessNames).Empty() {
			sl.ReportError(req.ProcessNames, "ProcessNames", "processNames", "processnames", "")
		}
	case models.ModeFolder:
		if req.WorkingDir == "" && req.ExecutablePath == "" {
			sl.ReportError(req.WorkingDir, "WorkingDir", "workingDir", "workingdir", "")
		}
	case models.ModeFile:
	}
}
