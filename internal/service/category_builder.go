package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/catalog-admin/internal/builder"
	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/event"
	"github.com/utafrali/catalog-admin/internal/session"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
	"github.com/utafrali/catalog-admin/pkg/logger"
	"github.com/utafrali/catalog-admin/pkg/slug"
	"github.com/utafrali/catalog-admin/pkg/validator"
)

// Move directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// CategoryInfo holds the category attributes edited next to its fields.
type CategoryInfo struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parentId,omitempty"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	SortOrder   int     `json:"sortOrder"`
}

// CategoryDraft is a category being authored in a builder session.
type CategoryDraft struct {
	CategoryID string          `json:"categoryId,omitempty"`
	Info       CategoryInfo    `json:"info"`
	Builder    builder.Builder `json:"builder"`
}

// CategoryInfoPatch edits CategoryInfo. Nil fields are left unchanged.
type CategoryInfoPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	ParentID    *string `json:"parentId"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	SortOrder   *int    `json:"sortOrder" validate:"omitempty,gte=0"`
}

// FieldPatch edits one builder entry. Options accepts the comma separated
// text typed in the builder.
type FieldPatch struct {
	Label            *string `json:"label"`
	Key              *string `json:"key"`
	InputType        *string `json:"inputType"`
	Options          *string `json:"options"`
	Required         *bool   `json:"required"`
	ShowInFilters    *bool   `json:"showInFilters"`
	ShowInHighlights *bool   `json:"showInHighlights"`
}

// FieldView is one builder entry with its move affordances.
type FieldView struct {
	builder.Entry
	CanMoveUp   bool `json:"canMoveUp"`
	CanMoveDown bool `json:"canMoveDown"`
}

// CategoryDraftView is a builder session as returned to the client.
type CategoryDraftView struct {
	ID         string       `json:"id"`
	Mode       string       `json:"mode"`
	CategoryID string       `json:"categoryId,omitempty"`
	Info       CategoryInfo `json:"info"`
	Fields     []FieldView  `json:"fields"`
}

// FieldAdded is returned when a field is appended.
type FieldAdded struct {
	FieldID string             `json:"fieldId"`
	Draft   *CategoryDraftView `json:"draft"`
}

// CategoryBuilderService drives category builder sessions.
type CategoryBuilderService struct {
	drafts     session.Store[CategoryDraft]
	refs       ReferenceData
	categories CategoryBackend
	producer   *event.Producer
	logger     *slog.Logger
}

// NewCategoryBuilderService creates a new category builder service.
func NewCategoryBuilderService(drafts session.Store[CategoryDraft], refs ReferenceData, categories CategoryBackend, producer *event.Producer, logger *slog.Logger) *CategoryBuilderService {
	return &CategoryBuilderService{
		drafts:     drafts,
		refs:       refs,
		categories: categories,
		producer:   producer,
		logger:     logger,
	}
}

// Create opens a builder. With a category ID the builder edits that
// category's attributes and schema.
func (s *CategoryBuilderService) Create(ctx context.Context, categoryID string) (*CategoryDraftView, error) {
	draft := CategoryDraft{
		Info:    CategoryInfo{Status: domain.CategoryStatusActive},
		Builder: *builder.New(),
	}

	if categoryID != "" {
		c, err := s.refs.GetCategory(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		draft.CategoryID = c.ID
		draft.Info = CategoryInfo{
			Name:        c.Name,
			Slug:        c.Slug,
			ParentID:    c.ParentID,
			Status:      c.Status,
			Description: c.Description,
			Image:       c.Image,
			SortOrder:   c.SortOrder,
		}
		draft.Builder = *builder.FromSchema(c.CustomFields)
		draft.Builder.CategoryID = c.ID
	}

	id, err := s.drafts.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create category draft: %w", err)
	}
	s.logger.InfoContext(logger.WithDraftID(ctx, id), "category draft opened",
		slog.String("category_id", categoryID),
	)
	return categoryView(id, &draft), nil
}

// Get returns a builder session.
func (s *CategoryBuilderService) Get(ctx context.Context, id string) (*CategoryDraftView, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return categoryView(id, &d), nil
}

// PatchInfo edits the category attributes.
func (s *CategoryBuilderService) PatchInfo(ctx context.Context, id string, p CategoryInfoPatch) (*CategoryDraftView, error) {
	if err := validator.Validate(p); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(d *CategoryDraft) error {
		info := &d.Info
		if p.Name != nil {
			info.Name = *p.Name
		}
		if p.Slug != nil {
			info.Slug = strings.TrimSpace(*p.Slug)
		}
		if p.ParentID != nil {
			if *p.ParentID == "" {
				info.ParentID = nil
			} else {
				parent := *p.ParentID
				info.ParentID = &parent
			}
		}
		if p.Status != nil {
			info.Status = *p.Status
		}
		if p.Description != nil {
			info.Description = *p.Description
		}
		if p.Image != nil {
			info.Image = *p.Image
		}
		if p.SortOrder != nil {
			info.SortOrder = *p.SortOrder
		}
		return nil
	})
}

// AddField appends a text field.
func (s *CategoryBuilderService) AddField(ctx context.Context, id string) (*FieldAdded, error) {
	var fieldID string
	view, err := s.update(ctx, id, func(d *CategoryDraft) error {
		fieldID = d.Builder.Add()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &FieldAdded{FieldID: fieldID, Draft: view}, nil
}

// PatchField edits one field. Label is applied before Key so an explicit
// key in the same patch wins over derivation.
func (s *CategoryBuilderService) PatchField(ctx context.Context, id, fieldID string, p FieldPatch) (*CategoryDraftView, error) {
	return s.update(ctx, id, func(d *CategoryDraft) error {
		b := &d.Builder
		if p.Label != nil {
			if err := b.SetLabel(fieldID, *p.Label); err != nil {
				return fieldErr(err, fieldID)
			}
		}
		if p.Key != nil {
			if err := b.SetKey(fieldID, *p.Key); err != nil {
				return fieldErr(err, fieldID)
			}
		}
		if p.InputType != nil {
			if err := b.SetInputType(fieldID, domain.InputType(*p.InputType)); err != nil {
				return fieldErr(err, fieldID)
			}
		}
		if p.Options != nil {
			if err := b.SetOptions(fieldID, *p.Options); err != nil {
				return fieldErr(err, fieldID)
			}
		}
		if p.Required != nil || p.ShowInFilters != nil || p.ShowInHighlights != nil {
			e, err := findEntry(b, fieldID)
			if err != nil {
				return err
			}
			required, filters, highlights := e.Schema.Required, e.Schema.ShowInFilters, e.Schema.ShowInHighlights
			if p.Required != nil {
				required = *p.Required
			}
			if p.ShowInFilters != nil {
				filters = *p.ShowInFilters
			}
			if p.ShowInHighlights != nil {
				highlights = *p.ShowInHighlights
			}
			if err := b.SetFlags(fieldID, required, filters, highlights); err != nil {
				return fieldErr(err, fieldID)
			}
		}
		return nil
	})
}

// RemoveField drops a field.
func (s *CategoryBuilderService) RemoveField(ctx context.Context, id, fieldID string) (*CategoryDraftView, error) {
	return s.update(ctx, id, func(d *CategoryDraft) error {
		return fieldErr(d.Builder.Remove(fieldID), fieldID)
	})
}

// MoveField swaps a field with its neighbour.
func (s *CategoryBuilderService) MoveField(ctx context.Context, id, fieldID, direction string) (*CategoryDraftView, error) {
	return s.update(ctx, id, func(d *CategoryDraft) error {
		switch direction {
		case DirectionUp:
			return fieldErr(d.Builder.MoveUp(fieldID), fieldID)
		case DirectionDown:
			return fieldErr(d.Builder.MoveDown(fieldID), fieldID)
		default:
			return apperrors.InvalidInput(fmt.Sprintf("direction must be %q or %q", DirectionUp, DirectionDown))
		}
	})
}

// Preview renders the fields as the product form would show them, disabled.
func (s *CategoryBuilderService) Preview(ctx context.Context, id string) ([]builder.PreviewField, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Builder.Preview(), nil
}

// Save validates the draft and creates or updates the category. The draft
// stays open and later saves update the same category.
func (s *CategoryBuilderService) Save(ctx context.Context, id string) (*domain.Category, error) {
	ctx = logger.WithDraftID(ctx, id)
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := d.Builder.Build()
	if err != nil {
		return nil, err
	}
	in := domain.CategoryInput{
		Name:         strings.TrimSpace(d.Info.Name),
		Slug:         d.Info.Slug,
		ParentID:     d.Info.ParentID,
		Status:       d.Info.Status,
		Description:  d.Info.Description,
		Image:        d.Info.Image,
		CustomFields: fields,
		SortOrder:    d.Info.SortOrder,
	}
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Name)
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	created := d.CategoryID == ""
	var saved *domain.Category
	if created {
		saved, err = s.categories.CreateCategory(ctx, in)
	} else {
		saved, err = s.categories.UpdateCategory(ctx, d.CategoryID, in)
	}
	if err != nil {
		return nil, err
	}

	s.refs.InvalidateCategory(ctx, saved.ID)

	if created {
		if _, err := s.drafts.Update(background(ctx), id, func(d *CategoryDraft) error {
			d.CategoryID = saved.ID
			d.Builder.CategoryID = saved.ID
			return nil
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to bind category draft to saved category",
				slog.String("category_id", saved.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishCategorySaved(ctx, saved, created); err != nil {
		s.logger.WarnContext(ctx, "failed to publish category saved event",
			slog.String("category_id", saved.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "category saved",
		slog.String("category_id", saved.ID),
		slog.Bool("created", created),
		slog.Int("field_count", len(fields)),
	)
	return saved, nil
}

// Discard deletes a builder session.
func (s *CategoryBuilderService) Discard(ctx context.Context, id string) error {
	return s.drafts.Delete(ctx, id)
}

// DeleteCategory deletes a category through the backend.
func (s *CategoryBuilderService) DeleteCategory(ctx context.Context, categoryID string) error {
	if err := s.categories.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	s.refs.InvalidateCategory(ctx, categoryID)

	if err := s.producer.PublishCategoryDeleted(ctx, categoryID); err != nil {
		s.logger.WarnContext(ctx, "failed to publish category deleted event",
			slog.String("category_id", categoryID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *CategoryBuilderService) update(ctx context.Context, id string, fn func(*CategoryDraft) error) (*CategoryDraftView, error) {
	d, err := s.drafts.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	return categoryView(id, &d), nil
}

func findEntry(b *builder.Builder, fieldID string) (*builder.Entry, error) {
	for i := range b.Entries {
		if b.Entries[i].TempID == fieldID {
			return &b.Entries[i], nil
		}
	}
	return nil, apperrors.NotFound("custom field", fieldID)
}

// fieldErr maps builder errors onto AppErrors.
func fieldErr(err error, fieldID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, builder.ErrFieldNotFound):
		return apperrors.NotFound("custom field", fieldID)
	case errors.Is(err, builder.ErrAtBoundary):
		return apperrors.InvalidInput(err.Error())
	default:
		return err
	}
}

func categoryView(id string, d *CategoryDraft) *CategoryDraftView {
	mode := "create"
	if d.CategoryID != "" {
		mode = "edit"
	}
	fields := make([]FieldView, len(d.Builder.Entries))
	for i, e := range d.Builder.Entries {
		fields[i] = FieldView{
			Entry:       e,
			CanMoveUp:   d.Builder.CanMoveUp(e.TempID),
			CanMoveDown: d.Builder.CanMoveDown(e.TempID),
		}
	}
	return &CategoryDraftView{
		ID:         id,
		Mode:       mode,
		CategoryID: d.CategoryID,
		Info:       d.Info,
		Fields:     fields,
	}
}
