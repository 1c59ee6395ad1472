package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/http/response"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/apierr"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
	"github.com/yungbote/edutaxonomy-backend/internal/populate"
)

const maxPopulateBody = 64 << 10

var errBadScopeValue = errors.New("scope ids must be positive integers")

type CatalogHandler struct {
	log *logger.Logger
	svc populate.Service
}

func NewCatalogHandler(log *logger.Logger, svc populate.Service) *CatalogHandler {
	return &CatalogHandler{log: log.With("handler", "CatalogHandler"), svc: svc}
}

// POST /api/catalog/:kind/populate
func (h *CatalogHandler) Populate(c *gin.Context) {
	kind := catalog.Kind(c.Param("kind"))

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPopulateBody)
	req, err := decodePopulateRequest(c.Request.Body)
	if err != nil {
		response.RespondAPIError(c, apierr.New(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	req.Kind = kind

	res, err := h.svc.Populate(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, populate.APIError(kind, err))
		return
	}
	response.RespondList(c, res.Records)
}

// GET /api/catalog/:kind
func (h *CatalogHandler) List(c *gin.Context) {
	kind := catalog.Kind(c.Param("kind"))

	scope := catalog.Scope{}
	for _, col := range catalog.ScopeColumns() {
		raw := strings.TrimSpace(c.Query(col))
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.RespondAPIError(c, apierr.New(http.StatusBadRequest, "Invalid "+col, errBadScopeValue))
			return
		}
		scope[col] = id
	}

	rows, err := h.svc.List(c.Request.Context(), kind, scope)
	if err != nil {
		response.RespondAPIError(c, populate.APIError(kind, err))
		return
	}
	response.RespondList(c, rows)
}

// decodePopulateRequest reads scope ids (numbers or numeric strings), display
// names such as board_name, free-text context and limit. An empty body is an
// empty request.
func decodePopulateRequest(body io.Reader) (populate.Request, error) {
	req := populate.Request{Scope: catalog.Scope{}, Names: map[string]string{}}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}

	for _, col := range catalog.ScopeColumns() {
		if v, ok := raw[col]; ok {
			id, err := parseID(v)
			if err != nil {
				return req, fmt.Errorf("%s: %w", col, err)
			}
			if id > 0 {
				req.Scope[col] = id
			}
		}
		nameKey := strings.TrimSuffix(col, "_id") + "_name"
		if v, ok := raw[nameKey]; ok {
			var name string
			if err := json.Unmarshal(v, &name); err == nil {
				if name = strings.TrimSpace(name); name != "" {
					req.Names[col] = name
				}
			}
		}
	}
	if v, ok := raw["context"]; ok {
		if err := json.Unmarshal(v, &req.Context); err != nil {
			return req, fmt.Errorf("context: %w", err)
		}
	}
	if v, ok := raw["limit"]; ok {
		if err := json.Unmarshal(v, &req.Limit); err != nil {
			return req, fmt.Errorf("limit: %w", err)
		}
	}
	return req, nil
}

func parseID(v json.RawMessage) (int64, error) {
	if string(v) == "null" {
		return 0, nil
	}
	var n int64
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, errBadScopeValue
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errBadScopeValue
	}
	return n, nil
}
