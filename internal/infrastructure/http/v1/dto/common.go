// Package dto provides Data Transfer Objects for API requests/responses.
//
// Money crosses the API as decimal strings ("150.00") and is converted to
// minor units at the boundary; the core never sees floats.
package dto

import (
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// --- Money ---

// ParseMoney converts an API money string into minor units.
func ParseMoney(field, value string) (types.MinorUnits, error) {
	m, err := types.ParseMoney(value)
	if err != nil {
		return 0, apperror.NewValidation("invalid money value").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return m, nil
}

// ParseOptionalMoney converts an optional money string. Nil stays nil.
func ParseOptionalMoney(field string, value *string) (*types.MinorUnits, error) {
	if value == nil {
		return nil, nil
	}
	m, err := ParseMoney(field, *value)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ItemsResponse wraps unpaginated lists.
type ItemsResponse struct {
	Items any `json:"items"`
}

// --- Base DTOs ---

// BaseResponse contains common response fields.
type BaseResponse struct {
	ID           string `json:"id"`
	DeletionMark bool   `json:"deletionMark"`
	Version      int    `json:"version"`
}

// FromBaseEntity creates BaseResponse from entity.BaseEntity.
func FromBaseEntity(b entity.BaseEntity) BaseResponse {
	return BaseResponse{
		ID:           b.ID.String(),
		DeletionMark: b.DeletionMark,
		Version:      b.Version,
	}
}

// DocumentResponse contains common document header fields.
type DocumentResponse struct {
	BaseResponse
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// FromBaseDocument creates DocumentResponse from entity.BaseDocument.
func FromBaseDocument(b entity.BaseDocument) DocumentResponse {
	return DocumentResponse{
		BaseResponse: FromBaseEntity(b.BaseEntity),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		CreatedBy:    b.CreatedBy,
		UpdatedBy:    b.UpdatedBy,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Deletion ---

// SetDeletionMarkRequest toggles the soft-delete mark.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}
