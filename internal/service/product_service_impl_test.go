package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Mythsoul/Eshop/internal/domain"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(repo *fakeRepository, n int, category string) {
	for i := 0; i < n; i++ {
		repo.addProduct(domain.Product{
			Name:     fmt.Sprintf("%s-%d", category, i),
			Category: category,
			Date:     int64(1000 + i),
			Images:   []string{"cover.jpg", "side.jpg"},
			Reviews:  []domain.Review{{UserID: "u1", Rating: 5}, {UserID: "u2", Rating: 4}},
		})
	}
}

func TestGetProducts_Pagination(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo, 5, "Smartphone")
	svc := CreateProductService(repo)

	res, err := svc.GetProducts(context.Background(), pkgdto.Filter{Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Pagination.CurrentPage)
	assert.Equal(t, int64(3), res.Pagination.TotalPages)
	assert.Equal(t, int64(5), res.Pagination.TotalProducts)
	assert.True(t, res.Pagination.HasMore)
	assert.Equal(t, 2, res.Pagination.Limit)
	assert.Equal(t, 2, res.Pagination.ItemsOnPage)

	require.Len(t, res.Products, 2)
	assert.Equal(t, "Smartphone-2", res.Products[0].Name)
	assert.Equal(t, []string{"cover.jpg"}, res.Products[0].Images)
	assert.Equal(t, 2, res.Products[0].ReviewCount)
	assert.Nil(t, res.Products[0].Reviews)
}

func TestGetProducts_DefaultsAndCategory(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo, 3, "Laptop")
	seedCatalog(repo, 2, "Camera")
	svc := CreateProductService(repo)

	res, err := svc.GetProducts(context.Background(), pkgdto.Filter{Category: "Camera"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Pagination.CurrentPage)
	assert.Equal(t, pkgdto.DefaultLimit, res.Pagination.Limit)
	assert.Equal(t, int64(2), res.Pagination.TotalProducts)
	assert.Equal(t, int64(1), res.Pagination.TotalPages)
	assert.False(t, res.Pagination.HasMore)
	assert.Len(t, res.Products, 2)
}

func TestGetProducts_EmptyCatalog(t *testing.T) {
	svc := CreateProductService(newFakeRepository())

	res, err := svc.GetProducts(context.Background(), pkgdto.Filter{})
	require.NoError(t, err)

	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Products)
	assert.Equal(t, int64(0), res.Pagination.TotalPages)
}

func TestGetProducts_StorageError(t *testing.T) {
	repo := newFakeRepository()
	repo.failOn("GetProducts", errors.New("connection reset"))

	_, err := CreateProductService(repo).GetProducts(context.Background(), pkgdto.Filter{})
	assert.ErrorIs(t, err, errs.ErrServiceUnavailable)
	assert.Equal(t, "Service unavailable", err.Error())
}

func TestGetProductByID(t *testing.T) {
	repo := newFakeRepository()
	p := repo.addProduct(domain.Product{Name: "Watch", Price: 3000})
	svc := CreateProductService(repo)

	got, err := svc.GetProductByID(context.Background(), p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Watch", got.Name)

	_, err = svc.GetProductByID(context.Background(), "  ")
	assert.ErrorIs(t, err, errs.ErrProductIDRequired)

	_, err = svc.GetProductByID(context.Background(), "nope")
	assert.ErrorIs(t, err, errs.ErrProductNotFound)
}
