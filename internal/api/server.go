package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	appmw "github.com/sudo-init-do/arenahub/internal/middleware"
	"github.com/sudo-init-do/arenahub/internal/store"
)

// Server wires the HTTP surface over the store. All business rules live in
// the store; handlers translate requests and map errors to status codes.
type Server struct {
	store  store.Store
	secret []byte
	log    *zap.SugaredLogger
}

func NewServer(st store.Store, jwtSecret []byte, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{store: st, secret: jwtSecret, log: log}
}

func (s *Server) Routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Authenticated group
	g := e.Group("")
	g.Use(appmw.Auth(s.secret))

	g.POST("/accounts", s.SyncAccount)
	g.GET("/wallet/balance", s.Balance)
	g.GET("/wallet/ledger", s.Ledger)

	g.GET("/rooms", s.ListRooms)
	g.GET("/rooms/:id", s.RoomDetails)
	g.POST("/rooms/:id/enroll", s.Enroll)

	g.GET("/handles", s.ListHandles)
	g.POST("/handles", s.AddHandle)
	g.DELETE("/handles/:id", s.DeleteHandle)

	g.POST("/withdrawals", s.RequestWithdrawal)
	g.GET("/withdrawals", s.WithdrawalHistory)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.Auth(s.secret))
	adminGroup.Use(appmw.AdminGuard)

	adminGroup.POST("/rooms", s.CreateRoom)
	adminGroup.GET("/accounts", s.ListAccounts)
	adminGroup.POST("/accounts/:id/credit", s.CreditAccount)
	adminGroup.GET("/withdrawals/pending", s.ListPendingWithdrawals)
	adminGroup.POST("/withdrawals/:id/approve", s.ApproveWithdrawal)

	return e
}
