package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"shopify-tally-integration/internal/handler"
	"shopify-tally-integration/internal/logger"
	"shopify-tally-integration/internal/metrics"
	"shopify-tally-integration/internal/middleware"
	"shopify-tally-integration/internal/service"
)

type Server struct {
	echo           *echo.Echo
	apiKey         string
	metrics        *metrics.Registry
	orderHandler   *handler.OrderHandler
	voucherHandler *handler.VoucherHandler
	shopHandler    *handler.ShopHandler
}

func NewServer(
	log *zap.Logger,
	apiKey string,
	m *metrics.Registry,
	orderService service.OrderService,
	voucherService service.VoucherService,
	shopService service.ShopService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(logger.EchoMiddleware(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:           e,
		apiKey:         apiKey,
		metrics:        m,
		orderHandler:   handler.NewOrderHandler(orderService),
		voucherHandler: handler.NewVoucherHandler(voucherService),
		shopHandler:    handler.NewShopHandler(shopService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	auth := middleware.APIKey(s.apiKey)

	api := s.echo.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	// -------- manual corrections --------
	orders := api.Group("/orders", auth)
	orders.POST("/:id/reclassify", s.orderHandler.Reclassify)
	orders.POST("/reclassify-pending", s.orderHandler.ReclassifyPending)
	orders.PATCH("/classification", s.orderHandler.Override)
	orders.POST("/classification/batch", s.orderHandler.OverrideBatch)

	// -------- shopify webhooks / oauth / sync --------
	shopify := s.echo.Group("/shopify")
	shopify.POST("/webhooks/orders", s.orderHandler.ShopifyWebhook)
	shopify.GET("/install", s.shopHandler.Install)
	shopify.GET("/callback", s.shopHandler.OAuthCallback)
	shopify.POST("/sync", s.orderHandler.Sync, auth)
	shopify.POST("/sync/yesterday", s.orderHandler.SyncYesterday, auth)

	// -------- tally --------
	tally := s.echo.Group("/tally", auth)
	tally.POST("/orders/shopify", s.orderHandler.TallyOrders)
	tally.POST("/vouchers/shopify", s.voucherHandler.Push)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
