package dto

import "github.com/Mythsoul/Eshop/internal/domain"

type ProductListItem struct {
	domain.Product
	ReviewCount int `json:"reviewCount"`
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int64 `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasMore       bool  `json:"hasMore"`
	Limit         int   `json:"limit"`
	ItemsOnPage   int   `json:"itemsOnPage"`
}

type ProductListResponse struct {
	Products   []ProductListItem `json:"products"`
	Pagination Pagination        `json:"pagination"`
}
