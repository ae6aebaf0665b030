package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/metalpromo/coin-design/internal/crm"
	"github.com/metalpromo/coin-design/internal/imagegen"
	"github.com/metalpromo/coin-design/internal/prompt"
	"github.com/metalpromo/coin-design/internal/store"
)

type fileInput struct {
	Name  string `json:"name"`
	Usage string `json:"usage"`
}

type compileRequest struct {
	TemplateID string      `json:"template_id"`
	Theme      string      `json:"theme"`
	Location   string      `json:"location,omitempty"`
	Files      []fileInput `json:"files,omitempty"`
}

type generateRequest struct {
	compileRequest
	OrderID   string `json:"order_id,omitempty"`
	AllStyles bool   `json:"all_styles,omitempty"`
}

type templateView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	RequiresFile bool   `json:"requires_file"`
}

type designView struct {
	DesignID     string `json:"design_id"`
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ImageB64     string `json:"image_b64,omitempty"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type orderView struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Organization  string    `json:"organization"`
	Notes         string    `json:"notes"`
	FirstFileURL  string    `json:"first_file_url,omitempty"`
	SecondFileURL string    `json:"second_file_url,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
	Cached        bool      `json:"cached"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTemplates(c *gin.Context) {
	all := prompt.List()
	out := make([]templateView, 0, len(all))
	for _, t := range all {
		out = append(out, newTemplateView(t))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	t, err := prompt.Get(c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTemplateView(t))
}

func (s *Server) handleCompile(c *gin.Context) {
	var req compileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	in, err := inputFromRequest(&req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	compiled, err := prompt.Assemble(req.TemplateID, in)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, compiled)
}

func (s *Server) handleGenerate(c *gin.Context) {
	if s.generator == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("image generation backend not configured"))
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	in, err := inputFromRequest(&req.compileRequest)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	if s.config != nil && s.config.Generation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Generation.Timeout)
		defer cancel()
	}

	if req.AllStyles {
		s.generateAllStyles(c, ctx, &req, in)
		return
	}

	compiled, err := prompt.Assemble(req.TemplateID, in)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	res, genErr := s.generator.Generate(ctx, &imagegen.Request{Prompt: compiled.Text, Files: in.Files})

	view := designView{
		DesignID:   uuid.NewString(),
		TemplateID: compiled.TemplateID,
		Prompt:     compiled.Text,
	}
	if genErr != nil {
		view.Error = genErr.Error()
	} else {
		view.ImageURL = res.URL
		view.ImageB64 = res.B64JSON
		view.Success = true
	}

	if err := s.saveDesign(ctx, req.OrderID, in, &view); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	if genErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": genErr.Error(), "design": view})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) generateAllStyles(c *gin.Context, ctx context.Context, req *generateRequest, in *prompt.Input) {
	concurrency := 0
	if s.config != nil {
		concurrency = s.config.Generation.Concurrency
	}

	variations, err := imagegen.GenerateVariations(ctx, s.generator, in, concurrency)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]designView, 0, len(variations))
	for _, v := range variations {
		view := designView{
			DesignID:     uuid.NewString(),
			TemplateID:   v.TemplateID,
			TemplateName: v.TemplateName,
			Prompt:       v.Prompt,
			ImageURL:     v.ImageURL,
			ImageB64:     v.ImageB64,
			Success:      v.Success,
			Error:        v.Error,
		}
		if err := s.saveDesign(ctx, req.OrderID, in, &view); err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
		out = append(out, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   req.OrderID,
		"variations": out,
	})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing order id"))
		return
	}

	ctx := c.Request.Context()

	if s.crm != nil {
		order, err := s.crm.FetchOrder(ctx, id)
		switch {
		case err == nil:
			record := orderRecordFromCRM(order)
			if s.store != nil {
				if err := s.store.SaveOrder(ctx, record); err != nil {
					respondError(c, http.StatusInternalServerError, err)
					return
				}
			}
			c.JSON(http.StatusOK, newOrderView(record, false))
			return
		case errors.Is(err, crm.ErrOrderNotFound):
			respondError(c, http.StatusNotFound, err)
			return
		default:
			// CRM unreachable; a cached copy is still useful.
			if cached := s.cachedOrder(ctx, id); cached != nil {
				c.JSON(http.StatusOK, newOrderView(cached, true))
				return
			}
			respondError(c, http.StatusBadGateway, err)
			return
		}
	}

	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("order source not configured"))
		return
	}
	record, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("order %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(record, true))
}

func (s *Server) handleListOrderDesigns(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("storage not configured"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing order id"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	designs, err := s.store.ListDesigns(c.Request.Context(), store.DesignFilter{
		OrderID:    id,
		TemplateID: strings.TrimSpace(c.Query("template")),
		Limit:      limit,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]designView, 0, len(designs))
	for _, d := range designs {
		out = append(out, designViewFromRecord(d))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetDesign(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("storage not configured"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing design id"))
		return
	}

	d, err := s.store.GetDesign(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("design %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, designViewFromRecord(d))
}

func (s *Server) saveDesign(ctx context.Context, orderID string, in *prompt.Input, view *designView) error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveDesign(ctx, &store.DesignRecord{
		ID:         view.DesignID,
		OrderID:    strings.TrimSpace(orderID),
		TemplateID: view.TemplateID,
		Theme:      in.Theme,
		Location:   in.Location,
		Prompt:     view.Prompt,
		Files:      toFileRefs(in.Files),
		ImageURL:   view.ImageURL,
		ImageB64:   view.ImageB64,
		Success:    view.Success,
		Error:      view.Error,
	})
}

func (s *Server) cachedOrder(ctx context.Context, id string) *store.OrderRecord {
	if s.store == nil {
		return nil
	}
	record, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil
	}
	return record
}

// inputFromRequest builds an engine input from the wire request. A file
// whose usage is "ignore" is dropped here, before validation: the operator
// explicitly excluded it, which is not the same as leaving the mode unset.
func inputFromRequest(req *compileRequest) (*prompt.Input, error) {
	in := &prompt.Input{
		Theme:    strings.TrimSpace(req.Theme),
		Location: strings.TrimSpace(req.Location),
	}
	for _, f := range req.Files {
		if strings.EqualFold(strings.TrimSpace(f.Usage), "ignore") {
			continue
		}
		mode, err := prompt.ParseUsageMode(f.Usage)
		if err != nil {
			return nil, err
		}
		in.Files = append(in.Files, prompt.InputFile{
			Name:  strings.TrimSpace(f.Name),
			Usage: mode,
		})
	}
	return in, nil
}

func toFileRefs(files []prompt.InputFile) []store.FileRef {
	if len(files) == 0 {
		return nil
	}
	out := make([]store.FileRef, 0, len(files))
	for _, f := range files {
		out = append(out, store.FileRef{Name: f.Name, Usage: f.Usage.String()})
	}
	return out
}

func newTemplateView(t *prompt.Template) templateView {
	return templateView{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		RequiresFile: t.RequiresFile,
	}
}

func designViewFromRecord(d *store.DesignRecord) designView {
	return designView{
		DesignID:   d.ID,
		TemplateID: d.TemplateID,
		Prompt:     d.Prompt,
		ImageURL:   d.ImageURL,
		ImageB64:   d.ImageB64,
		Success:    d.Success,
		Error:      d.Error,
	}
}

func orderRecordFromCRM(o *crm.Order) *store.OrderRecord {
	return &store.OrderRecord{
		ID:            o.ID,
		FirstName:     o.FirstName,
		LastName:      o.LastName,
		Organization:  o.Organization,
		Notes:         o.Notes,
		FirstFileURL:  o.FirstFileURL,
		SecondFileURL: o.SecondFileURL,
		FetchedAt:     time.Now().UTC(),
	}
}

func newOrderView(record *store.OrderRecord, cached bool) orderView {
	return orderView{
		ID:            record.ID,
		FirstName:     record.FirstName,
		LastName:      record.LastName,
		Organization:  record.Organization,
		Notes:         record.Notes,
		FirstFileURL:  record.FirstFileURL,
		SecondFileURL: record.SecondFileURL,
		FetchedAt:     record.FetchedAt,
		Cached:        cached,
	}
}

// respondEngineError maps engine error kinds onto HTTP statuses: unknown
// template is 404, unsatisfiable input is 422.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prompt.ErrNotFound):
		respondErrorKind(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, prompt.ErrMissingTheme):
		respondErrorKind(c, http.StatusUnprocessableEntity, "missing_theme", err)
	case errors.Is(err, prompt.ErrMissingFiles):
		respondErrorKind(c, http.StatusUnprocessableEntity, "missing_files", err)
	case errors.Is(err, prompt.ErrAmbiguousUsage):
		respondErrorKind(c, http.StatusUnprocessableEntity, "ambiguous_usage", err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func respondErrorKind(c *gin.Context, status int, kind string, err error) {
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}
