package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/models"
	"github.com/devplatform/ldap-console/internal/prometheus"
)

// Handler serves the REST API
type Handler struct {
	svc             prometheus.DirectoryInterface
	defaultPageSize int
	logger          *logrus.Logger
}

// NewHandler creates the REST handlers
func NewHandler(svc prometheus.DirectoryInterface, defaultPageSize int, logger *logrus.Logger) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &Handler{svc: svc, defaultPageSize: defaultPageSize, logger: logger}
}

func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.svc.ListClusters(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clusters": clusters})
}

func (h *Handler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	cached, err := h.svc.CredentialCached(r.Context(), chi.URLParam(r, "cluster"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cached": cached})
}

type connectRequest struct {
	ClusterName  string `json:"cluster_name"`
	BindPassword string `json:"bind_password"`
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClusterName == "" {
		writeDetail(w, http.StatusBadRequest, "cluster_name is required")
		return
	}

	res, err := h.svc.Connect(r.Context(), req.ClusterName, req.BindPassword)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ConnectionStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cluster, ok := requireCluster(w, r)
	if !ok {
		return
	}

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	pageSize, err := intParam(q.Get("page_size"), h.defaultPageSize)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "page_size must be an integer")
		return
	}
	category, err := models.ParseCategoryFilter(q.Get("filter_type"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Search(r.Context(), models.SearchQuery{
		Cluster:    cluster,
		Category:   category,
		SearchText: q.Get("search"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	cluster, ok := requireCluster(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), cluster)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	cluster, ok := requireCluster(w, r)
	if !ok {
		return
	}

	snapshot, err := h.svc.Health(r.Context(), cluster)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) NodeMetrics(w http.ResponseWriter, r *http.Request) {
	cluster, ok := requireCluster(w, r)
	if !ok {
		return
	}

	m, err := h.svc.NodeMetrics(r.Context(), cluster)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	cluster, ok := requireCluster(w, r)
	if !ok {
		return
	}

	logs, err := h.svc.Activity(r.Context(), cluster)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func requireCluster(w http.ResponseWriter, r *http.Request) (string, bool) {
	cluster := r.URL.Query().Get("cluster")
	if cluster == "" {
		writeDetail(w, http.StatusBadRequest, "cluster is required")
		return "", false
	}
	return cluster, true
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
