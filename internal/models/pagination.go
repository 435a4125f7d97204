package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const (
	// DefaultPageSize is the default number of evidence items per page
	DefaultPageSize = 100

	// MaxPageSize is the maximum allowed page size
	MaxPageSize = 500
)

// PaginationRequest contains pagination parameters for evidence queries
type PaginationRequest struct {
	// PageSize is the number of items per page (default: 100, max: 500)
	PageSize int `json:"pageSize"`

	// Cursor is an opaque cursor string for the next page (empty = first page)
	Cursor string `json:"cursor"`
}

// GetPageSize returns the page size, applying defaults and limits
func (p *PaginationRequest) GetPageSize() int {
	if p == nil || p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// PaginationResponse contains pagination metadata in the response
type PaginationResponse struct {
	// NextCursor is the cursor for the next page (empty = no more pages)
	NextCursor string `json:"nextCursor,omitempty"`

	// HasMore indicates if there are more pages available
	HasMore bool `json:"hasMore"`

	// PageSize is the actual page size used
	PageSize int `json:"pageSize"`
}

// EvidenceCursor is the decoded pagination cursor for evidence retrieval.
// It encodes the offset into the incident's append-ordered event list,
// which is stable because closed incidents are immutable.
type EvidenceCursor struct {
	// Offset is the index of the first event on the next page
	Offset int `json:"o"`
}

// Encode returns a base64-encoded cursor string
func (c *EvidenceCursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeEvidenceCursor parses a cursor string.
// Returns nil if the cursor is empty.
func DecodeEvidenceCursor(cursor string) (*EvidenceCursor, error) {
	if cursor == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var ec EvidenceCursor
	if err := json.Unmarshal(data, &ec); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	if ec.Offset < 0 {
		return nil, fmt.Errorf("invalid cursor offset: %d", ec.Offset)
	}

	return &ec, nil
}
