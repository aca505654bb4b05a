package shortlinks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/db/models"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/pagination"
)

type linkStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shortlink, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Shortlink, error)
	Create(ctx context.Context, link *models.Shortlink) (*models.Shortlink, error)
	Update(ctx context.Context, link *models.Shortlink) (*models.Shortlink, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pathGenerator interface {
	Generate(ctx context.Context, baseLength, maxAttempts int) (string, error)
}

// Service exposes shortlink administration.
type Service interface {
	Create(ctx context.Context, input ShortlinkInput) (*ShortlinkDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ShortlinkInput) (*ShortlinkDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*ShortlinkDTO, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	// CheckPath validates and collision-checks a candidate; excludeID may be uuid.Nil.
	CheckPath(ctx context.Context, path string, excludeID uuid.UUID) (*PathCheck, error)
	GeneratePath(ctx context.Context) (string, error)
}

// ShortlinkInput is the writable state of a shortlink. An empty Path on
// create asks for a generated one.
type ShortlinkInput struct {
	Path           string
	DestinationURL string
	Title          *string
	IsActive       bool
	DomainID       *string
}

// GeneratorOptions feeds Generate when a path is requested.
type GeneratorOptions struct {
	BaseLength  int
	MaxAttempts int
}

type service struct {
	repo      linkStore
	checker   collisionChecker
	generator pathGenerator
	opts      GeneratorOptions
}

func NewService(repo linkStore, checker collisionChecker, generator pathGenerator, opts GeneratorOptions) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shortlink repository required")
	}
	if checker == nil {
		return nil, fmt.Errorf("collision checker required")
	}
	if generator == nil {
		return nil, fmt.Errorf("path generator required")
	}
	if opts.BaseLength <= 0 {
		opts.BaseLength = DefaultBaseLength
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &service{repo: repo, checker: checker, generator: generator, opts: opts}, nil
}

func (s *service) Create(ctx context.Context, input ShortlinkInput) (*ShortlinkDTO, error) {
	if err := validateDestination(input.DestinationURL); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(input.Path)
	if path == "" {
		generated, err := s.GeneratePath(ctx)
		if err != nil {
			return nil, err
		}
		path = generated
	} else {
		normalized, err := s.claimPath(ctx, path, uuid.Nil)
		if err != nil {
			return nil, err
		}
		path = normalized
	}

	link := &models.Shortlink{}
	applyInput(link, input, path)
	created, err := s.repo.Create(ctx, link)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pathTaken(path, nil)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shortlink")
	}
	dto := toDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ShortlinkInput) (*ShortlinkDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shortlink id is required")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateDestination(input.DestinationURL); err != nil {
		return nil, err
	}

	path := existing.Path
	if strings.TrimSpace(input.Path) != "" && NormalizePath(input.Path) != existing.Path {
		if path, err = s.claimPath(ctx, input.Path, id); err != nil {
			return nil, err
		}
	}

	applyInput(existing, input, path)
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pathTaken(path, nil)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shortlink")
	}
	dto := toDTO(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shortlink id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shortlink not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shortlink")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ShortlinkDTO, error) {
	link, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*link)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shortlinks")
	}
	rows, next := pagination.Page(rows, params.Limit, func(l models.Shortlink) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})

	items := make([]ShortlinkDTO, len(rows))
	for i, row := range rows {
		items[i] = toDTO(row)
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) CheckPath(ctx context.Context, path string, excludeID uuid.UUID) (*PathCheck, error) {
	validation := ValidatePathFormat(path)
	check := &PathCheck{Validation: validation}
	if !validation.Valid {
		return check, nil
	}
	collision := s.checker.Check(ctx, validation.Path, excludeID)
	check.Collision = &collision
	check.Available = !collision.HasCollision
	return check, nil
}

func (s *service) GeneratePath(ctx context.Context) (string, error) {
	path, err := s.generator.Generate(ctx, s.opts.BaseLength, s.opts.MaxAttempts)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate shortlink path")
	}
	return path, nil
}

// claimPath validates the candidate and confirms no namespace owns it.
func (s *service) claimPath(ctx context.Context, path string, self uuid.UUID) (string, error) {
	validation := ValidatePathFormat(path)
	if !validation.Valid {
		return "", pkgerrors.New(pkgerrors.CodeValidation, validation.Message).WithDetails(map[string]string{
			"path":      path,
			"violation": validation.Violation.String(),
		})
	}
	collision := s.checker.Check(ctx, validation.Path, self)
	if collision.HasCollision {
		return "", pathTaken(validation.Path, collision.First())
	}
	return validation.Path, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Shortlink, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shortlink not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shortlink")
	}
	return link, nil
}

func validateDestination(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shortlink").WithDetails(map[string]string{
			"destination_url": "destination_url must be an absolute http or https URL",
		})
	}
	return nil
}

func pathTaken(path string, first *Collision) error {
	details := map[string]string{"path": path}
	if first != nil {
		details["namespace"] = first.Namespace.String()
		details["resource"] = first.Resource
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "path is already in use").WithDetails(details)
}

func applyInput(link *models.Shortlink, input ShortlinkInput, path string) {
	link.Path = path
	link.DestinationURL = strings.TrimSpace(input.DestinationURL)
	link.Title = input.Title
	link.IsActive = input.IsActive
	link.DomainID = input.DomainID
}
