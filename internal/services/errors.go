// Package services provides the business logic layer between handlers and the
// table store. Services resolve parameters, run derivations and translate
// domain errors into ServiceErrors.
package services

import (
	"errors"

	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/view"
)

// Error codes returned by services
const (
	CodeDataIntegrity    = "DATA_INTEGRITY"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeCountryNotFound  = "COUNTRY_NOT_FOUND"
	CodeTableNotLoaded   = "TABLE_NOT_LOADED"
	CodeRefreshFailed    = "REFRESH_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// translate maps domain errors onto ServiceErrors. Errors it does not
// recognise are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var paramErr *view.InvalidParameterError
	if errors.As(err, &paramErr) {
		return NewServiceErrorWithDetails(CodeInvalidParameter, paramErr.Error(), map[string]interface{}{
			"param": paramErr.Param,
			"value": paramErr.Value,
		})
	}

	var integrityErr *series.DataIntegrityError
	if errors.As(err, &integrityErr) {
		details := map[string]interface{}{"reason": integrityErr.Reason}
		if integrityErr.Category != "" {
			details["category"] = string(integrityErr.Category)
		}
		if integrityErr.Country != "" {
			details["country"] = integrityErr.Country
		}
		return NewServiceErrorWithDetails(CodeDataIntegrity, integrityErr.Error(), details)
	}

	return err
}
