package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/metalpromo/coin-design/internal/config"
	"github.com/metalpromo/coin-design/internal/crm"
	"github.com/metalpromo/coin-design/internal/imagegen"
	"github.com/metalpromo/coin-design/internal/store"
)

type Server struct {
	router    *gin.Engine
	store     store.Store
	generator imagegen.Generator
	crm       *crm.Client
	config    *config.Config
}

// NewServer wires the HTTP API. generator and crmClient are optional: without
// a generator the generate endpoint reports the backend as unconfigured, and
// without a CRM client orders are served from the local cache only.
func NewServer(cfg *config.Config, st store.Store, generator imagegen.Generator, crmClient *crm.Client) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:    r,
		store:     st,
		generator: generator,
		crm:       crmClient,
		config:    cfg,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
