package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"time"

	"bike-shop/models"

	"github.com/shopspring/decimal"
)

// ProductStore is the full catalog port, a superset of ProductFinder.
type ProductStore interface {
	ProductFinder
	ListFathers(ctx context.Context, search string, page, limit int) ([]models.Product, int, error)
	GetVariations(ctx context.Context, fatherArticle string) ([]models.Variation, error)
	GetChildren(ctx context.Context, fatherArticle string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, articleNr string) error
}

// ImageStore hosts product images; nil disables uploads.
type ImageStore interface {
	ValidateImageFile(file *multipart.FileHeader) error
	UploadImage(ctx context.Context, file multipart.File, filename, folder string) (string, string, error)
	DeleteImage(ctx context.Context, publicID string) error
}

const (
	productCacheTTL    = 5 * time.Minute
	productCachePrefix = "products:list:"
)

type ProductService struct {
	products ProductStore
	images   ImageStore
}

func NewProductService(products ProductStore, images ImageStore) *ProductService {
	return &ProductService{products: products, images: images}
}

// ListProducts pages through the browsable catalog (father articles). Results
// for unfiltered pages are cached in Redis when it is available; search
// queries always hit the database.
func (s *ProductService) ListProducts(ctx context.Context, search string, page, limit int) (*models.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 12
	}

	cacheKey := ""
	if search == "" && models.RedisClient != nil {
		cacheKey = fmt.Sprintf("%s%d:%d", productCachePrefix, page, limit)
		if cached, err := models.RedisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp models.PaginatedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	products, total, err := s.products.ListFathers(ctx, search, page, limit)
	if err != nil {
		return nil, err
	}

	resp := &models.PaginatedResponse{
		Success: true,
		Message: "Products retrieved successfully",
		Data:    products,
		Meta: models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(resp); err == nil {
			if err := models.RedisClient.Set(ctx, cacheKey, payload, productCacheTTL).Err(); err != nil {
				log.Println("Product cache write failed:", err)
			}
		}
	}

	return resp, nil
}

// GetProductDetail returns an article with its variations and, for father
// articles, the purchasable children.
func (s *ProductService) GetProductDetail(ctx context.Context, articleNr string) (*models.ProductDetail, error) {
	product, err := s.products.FindByArticleNr(ctx, articleNr)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, models.ErrNotFound
	}

	detail := &models.ProductDetail{Product: *product}

	fatherNr := product.ArticleNr
	if !product.IsFatherArticle {
		fatherNr = product.FatherArticle
	}
	if fatherNr == "" {
		return detail, nil
	}

	variations, err := s.products.GetVariations(ctx, fatherNr)
	if err != nil {
		return nil, err
	}
	detail.Variations = variations

	if product.IsFatherArticle {
		children, err := s.products.GetChildren(ctx, product.ArticleNr)
		if err != nil {
			return nil, err
		}
		detail.Children = children
	}

	return detail, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("invalid price")
	}

	product := &models.Product{
		ArticleNr:       req.ArticleNr,
		ArticleName:     req.ArticleName,
		Description:     req.Description,
		Manufacturer:    req.Manufacturer,
		PriceEUR:        price,
		Stock:           req.Stock,
		Colour:          req.Colour,
		Size:            req.Size,
		FatherArticle:   req.FatherArticle,
		IsFatherArticle: req.IsFatherArticle,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, errors.New("article number already exists")
		}
		return nil, err
	}

	s.invalidateListCache(ctx)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, articleNr string, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.products.FindByArticleNr(ctx, articleNr)
	if err != nil {
		return nil, err
	}

	if req.ArticleName != "" {
		product.ArticleName = req.ArticleName
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Manufacturer != "" {
		product.Manufacturer = req.Manufacturer
	}
	if req.Price != "" {
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			return nil, errors.New("invalid price")
		}
		product.PriceEUR = price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, articleNr string) error {
	if err := s.products.Delete(ctx, articleNr); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

// UploadProductImage replaces the article's image; the previous Cloudinary
// asset is removed after the new one is stored.
func (s *ProductService) UploadProductImage(ctx context.Context, articleNr string, header *multipart.FileHeader) (*models.Product, error) {
	if s.images == nil {
		return nil, errors.New("image uploads not configured")
	}

	product, err := s.products.FindByArticleNr(ctx, articleNr)
	if err != nil {
		return nil, err
	}

	if err := s.images.ValidateImageFile(header); err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	url, publicID, err := s.images.UploadImage(ctx, file, header.Filename, "products")
	if err != nil {
		return nil, err
	}

	oldPublicID := product.ImagePublicID
	product.ImageURL = url
	product.ImagePublicID = publicID

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	if oldPublicID != "" {
		if err := s.images.DeleteImage(ctx, oldPublicID); err != nil {
			log.Println("Failed to delete old product image:", err)
		}
	}

	s.invalidateListCache(ctx)
	return product, nil
}

func (s *ProductService) invalidateListCache(ctx context.Context) {
	if models.RedisClient == nil {
		return
	}

	iter := models.RedisClient.Scan(ctx, 0, productCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := models.RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			log.Println("Product cache invalidation failed:", err)
			return
		}
	}
	if err := iter.Err(); err != nil {
		log.Println("Product cache scan failed:", err)
	}
}
