package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("COIN_DESIGN_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("COIN_DESIGN_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set COIN_DESIGN_API_KEY or set COIN_DESIGN_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)

	api.GET("/templates", s.handleListTemplates)
	api.GET("/templates/:id", s.handleGetTemplate)

	api.POST("/compile", s.handleCompile)
	api.POST("/generate", s.handleGenerate)

	api.GET("/orders/:id", s.handleGetOrder)
	api.GET("/orders/:id/designs", s.handleListOrderDesigns)
	api.GET("/designs/:id", s.handleGetDesign)

	return nil
}
