package controller

import (
	"github.com/Mythsoul/Eshop/internal/dto"
	"github.com/Mythsoul/Eshop/internal/service"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/Mythsoul/Eshop/pkg/response"
	"github.com/Mythsoul/Eshop/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	orderService   service.OrderService
	productService service.ProductService
}

func CreateController(e *echo.Group, orderService service.OrderService, productService service.ProductService, isLoggedIn echo.MiddlewareFunc) {
	c := Controller{
		orderService:   orderService,
		productService: productService,
	}

	e.POST("/orders", c.PlaceOrder, isLoggedIn)
	e.GET("/orders", c.GetOrders, isLoggedIn)
	e.GET("/orders/seller", c.GetSellerOrders, isLoggedIn)
	e.PUT("/orders/status", c.UpdateOrderStatus, isLoggedIn)
	e.GET("/products", c.GetProducts)
	e.GET("/products/:id", c.GetProductByID)
}

func (c *Controller) PlaceOrder(e echo.Context) error {
	userID, _ := utils.ExtractTokenUser(e)

	payload := dto.OrderRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "PlaceOrder").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient)
	}

	payload.UserID = userID

	resp, err := c.orderService.PlaceOrder(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err)
	}

	return response.WriteSuccessResponse(e, "Order placed successfully", echo.Map{
		"orderId":      resp.OrderID,
		"orderDetails": resp.OrderDetails,
	})
}

func (c *Controller) GetOrders(e echo.Context) error {
	userID, _ := utils.ExtractTokenUser(e)

	orders, err := c.orderService.GetOrders(e.Request().Context(), userID)
	if err != nil {
		return response.WriteErrorResponse(e, err)
	}

	return response.WriteSuccessResponse(e, "", echo.Map{"orders": orders})
}

func (c *Controller) GetSellerOrders(e echo.Context) error {
	sellerID, _ := utils.ExtractTokenUser(e)

	orders, err := c.orderService.GetSellerOrders(e.Request().Context(), sellerID)
	if err != nil {
		return response.WriteErrorResponse(e, err)
	}

	return response.WriteSuccessResponse(e, "", echo.Map{"orders": orders})
}

func (c *Controller) UpdateOrderStatus(e echo.Context) error {
	sellerID, _ := utils.ExtractTokenUser(e)

	payload := dto.OrderStatusRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "UpdateOrderStatus").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient)
	}

	payload.SellerID = sellerID

	order, err := c.orderService.UpdateOrderStatus(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err)
	}

	return response.WriteSuccessResponse(e, "", echo.Map{"order": order})
}

func (c *Controller) GetProducts(e echo.Context) error {
	filter := pkgdto.Filter{}
	err := e.Bind(&filter)
	if err != nil {
		// malformed paging falls back to defaults
		log.Ctx(e.Request().Context()).Warn().Err(err).Str("component", "GetProducts").Msg("")
		filter = pkgdto.Filter{Category: e.QueryParam("category")}
	}

	resp, err := c.productService.GetProducts(e.Request().Context(), filter)
	if err != nil {
		return response.WriteErrorResponse(e, err)
	}

	return response.WriteSuccessResponse(e, "", echo.Map{
		"products":   resp.Products,
		"pagination": resp.Pagination,
	})
}

func (c *Controller) GetProductByID(e echo.Context) error {
	product, err := c.productService.GetProductByID(e.Request().Context(), e.Param("id"))
	if err != nil {
		return response.WriteErrorResponse(e, err)
	}

	return response.WriteSuccessResponse(e, "", echo.Map{"product": product})
}
