package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/service"
)

// AgenciesHandler GET /agencies
type AgenciesHandler struct {
	directory *service.AgencyDirectoryService
	logger    *zap.Logger
}

func NewAgenciesHandler(directory *service.AgencyDirectoryService, logger *zap.Logger) *AgenciesHandler {
	return &AgenciesHandler{directory: directory, logger: logger}
}

func (h *AgenciesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agencies": list})
}
