package shortlinks

import (
	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/api/validators"
	internalshortlinks "github.com/linkcart/storefront-core/internal/shortlinks"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
)

// ShortlinkRequest is the writable state of a shortlink. An empty path on
// create asks the server to generate one.
type ShortlinkRequest struct {
	Path           string  `json:"path" validate:"max=100"`
	DestinationURL string  `json:"destination_url" validate:"required,url,max=2048"`
	Title          *string `json:"title,omitempty" validate:"omitempty,max=200"`
	IsActive       *bool   `json:"is_active,omitempty"`
	DomainID       *string `json:"domain_id,omitempty" validate:"omitempty,max=64"`
}

func (req ShortlinkRequest) toInput() internalshortlinks.ShortlinkInput {
	input := internalshortlinks.ShortlinkInput{
		Path:           req.Path,
		DestinationURL: req.DestinationURL,
		IsActive:       true,
		DomainID:       req.DomainID,
	}
	if req.Title != nil {
		title := validators.SanitizeString(*req.Title, 200)
		input.Title = &title
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	return input
}

// CheckPathRequest asks whether a candidate path is free. exclude_id skips
// the shortlink being edited.
type CheckPathRequest struct {
	Path      string `json:"path" validate:"required,max=200"`
	ExcludeID string `json:"exclude_id,omitempty" validate:"omitempty,uuid"`
}

func (req CheckPathRequest) excludeID() (uuid.UUID, error) {
	if req.ExcludeID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(req.ExcludeID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid exclude id")
	}
	return id, nil
}
