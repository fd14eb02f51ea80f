package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/service"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps service errors to a status and a detail message
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	var dirErr *service.DirectoryError

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPasswordRequired):
		writeDetail(w, http.StatusBadRequest, service.ErrPasswordRequired.Error())
	case errors.Is(err, service.ErrCredentialNotCached):
		writeDetail(w, http.StatusUnauthorized, service.ErrCredentialNotCached.Error())
	case errors.Is(err, service.ErrClusterNotFound):
		writeDetail(w, http.StatusNotFound, "Cluster not found")
	case errors.As(err, &dirErr):
		writeDetail(w, http.StatusBadGateway, dirErr.Err.Error())
	default:
		logger.WithError(err).Error("Unhandled error")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
