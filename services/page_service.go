package services

import (
	"context"
	"encoding/json"
	"errors"

	"bike-shop/models"
)

// PageStore is the persistence port for CMS pages and their blocks.
type PageStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Page, error)
	GetByID(ctx context.Context, pageID int) (*models.Page, error)
	ListMenu(ctx context.Context) ([]models.Page, error)
	ListAll(ctx context.Context) ([]models.Page, error)
	Create(ctx context.Context, page *models.Page) error
	Update(ctx context.Context, page *models.Page) error
	SetPublished(ctx context.Context, pageID int, published bool) error
	Delete(ctx context.Context, pageID int) error
	AddBlock(ctx context.Context, block *models.PageBlock) error
	UpdateBlock(ctx context.Context, blockID int, content string, sortOrder *int) error
	DeleteBlock(ctx context.Context, blockID int) error
	ReorderBlocks(ctx context.Context, pageID int, blockIDs []int) error
}

type PageService struct {
	pages PageStore
}

func NewPageService(pages PageStore) *PageService {
	return &PageService{pages: pages}
}

// GetPublishedPage serves the storefront; drafts stay invisible there.
func (s *PageService) GetPublishedPage(ctx context.Context, slug string) (*models.Page, error) {
	page, err := s.pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !page.IsPublished {
		return nil, models.ErrNotFound
	}
	return page, nil
}

func (s *PageService) GetMenu(ctx context.Context) ([]models.Page, error) {
	return s.pages.ListMenu(ctx)
}

func (s *PageService) ListPages(ctx context.Context) ([]models.Page, error) {
	return s.pages.ListAll(ctx)
}

func (s *PageService) GetPage(ctx context.Context, pageID int) (*models.Page, error) {
	return s.pages.GetByID(ctx, pageID)
}

func (s *PageService) CreatePage(ctx context.Context, req models.CreatePageRequest) (*models.Page, error) {
	page := &models.Page{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		ShowInMenu:  req.ShowInMenu,
		MenuOrder:   req.MenuOrder,
	}

	if err := s.pages.Create(ctx, page); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, errors.New("slug already in use")
		}
		return nil, err
	}
	return page, nil
}

func (s *PageService) UpdatePage(ctx context.Context, pageID int, req models.UpdatePageRequest) (*models.Page, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		page.Title = req.Title
	}
	if req.Description != "" {
		page.Description = req.Description
	}
	if req.ShowInMenu != nil {
		page.ShowInMenu = *req.ShowInMenu
	}
	if req.MenuOrder != nil {
		page.MenuOrder = *req.MenuOrder
	}

	if err := s.pages.Update(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PageService) PublishPage(ctx context.Context, pageID int, published bool) error {
	return s.pages.SetPublished(ctx, pageID, published)
}

func (s *PageService) DeletePage(ctx context.Context, pageID int) error {
	return s.pages.Delete(ctx, pageID)
}

func (s *PageService) AddBlock(ctx context.Context, pageID int, req models.CreateBlockRequest) (*models.PageBlock, error) {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, err
	}
	if !json.Valid([]byte(req.Content)) {
		return nil, errors.New("block content must be valid JSON")
	}

	block := &models.PageBlock{
		PageID:    pageID,
		BlockType: req.BlockType,
		Content:   req.Content,
		SortOrder: req.SortOrder,
	}

	if err := s.pages.AddBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *PageService) UpdateBlock(ctx context.Context, blockID int, req models.UpdateBlockRequest) error {
	if req.Content != "" && !json.Valid([]byte(req.Content)) {
		return errors.New("block content must be valid JSON")
	}

	return s.pages.UpdateBlock(ctx, blockID, req.Content, req.SortOrder)
}

func (s *PageService) DeleteBlock(ctx context.Context, blockID int) error {
	return s.pages.DeleteBlock(ctx, blockID)
}

func (s *PageService) ReorderBlocks(ctx context.Context, pageID int, blockIDs []int) error {
	return s.pages.ReorderBlocks(ctx, pageID, blockIDs)
}
