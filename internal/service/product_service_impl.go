package service

import (
	"context"
	"strings"

	"github.com/Mythsoul/Eshop/internal/domain"
	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/internal/repository"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
)

type ProductServiceImpl struct {
	repository repository.ProductRepository
}

func CreateProductService(repository repository.ProductRepository) ProductService {
	return &ProductServiceImpl{
		repository: repository,
	}
}

func (s *ProductServiceImpl) GetProducts(ctx context.Context, filter pkgdto.Filter) (res dto.ProductListResponse, err error) {
	filter = filter.Normalize()

	data, total, err := s.repository.GetProducts(ctx, filter)
	if err != nil {
		return res, storageError(ctx, err)
	}

	res.Products = make([]dto.ProductListItem, 0, len(data))
	for _, product := range data {
		item := dto.ProductListItem{
			Product:     product,
			ReviewCount: len(product.Reviews),
		}
		// list view only needs the cover image
		if len(item.Images) > 1 {
			item.Images = item.Images[:1]
		}
		item.Reviews = nil

		res.Products = append(res.Products, item)
	}

	limit := int64(filter.Limit)
	res.Pagination = dto.Pagination{
		CurrentPage:   filter.Page,
		TotalPages:    (total + limit - 1) / limit,
		TotalProducts: total,
		HasMore:       int64(filter.Page)*limit < total,
		Limit:         filter.Limit,
		ItemsOnPage:   len(res.Products),
	}

	return res, nil
}

func (s *ProductServiceImpl) GetProductByID(ctx context.Context, id string) (product domain.Product, err error) {
	if strings.TrimSpace(id) == "" {
		return product, errs.ErrProductIDRequired
	}

	product, err = s.repository.GetProductByID(ctx, id)
	if err != nil {
		return product, storageError(ctx, err)
	}

	return product, nil
}
