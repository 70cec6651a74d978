package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dockyard/internal/app/service"
	"dockyard/internal/common"

	"github.com/go-chi/chi/v5"
)

type VolumeHandler struct {
	volumeService *service.VolumeService
}

func NewVolumeHandler(volumeService *service.VolumeService) *VolumeHandler {
	return &VolumeHandler{volumeService: volumeService}
}

func (h *VolumeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Delete("/", h.remove)
}

func (h *VolumeHandler) create(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.CreateVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	name, err := h.volumeService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, common.OperationResponse{
		Message: fmt.Sprintf("volume '%s' created by %s", name, actor),
		Result:  map[string]string{"volume_name": name},
	})
}

func (h *VolumeHandler) list(w http.ResponseWriter, r *http.Request) {
	volumes, err := h.volumeService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, volumes)
}

func (h *VolumeHandler) remove(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	volumeName := r.URL.Query().Get("volume_name")
	if volumeName == "" {
		common.RespondWithError(w, http.StatusBadRequest, "volume_name query parameter is required")
		return
	}

	if err := h.volumeService.Delete(r.Context(), volumeName); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("volume '%s' deleted by %s", volumeName, actor),
		Result:  map[string]string{"volume_name": volumeName},
	})
}
