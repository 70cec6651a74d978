package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dockyard/internal/app/service"
	"dockyard/internal/common"

	"github.com/go-chi/chi/v5"
)

type PodHandler struct {
	podService *service.PodService
}

func NewPodHandler(podService *service.PodService) *PodHandler {
	return &PodHandler{podService: podService}
}

func (h *PodHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.run)
	r.Get("/logs", h.logs)
}

func (h *PodHandler) run(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.RunPodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	podName, err := h.podService.Run(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("pod '%s' created by %s", podName, actor),
		Result:  map[string]string{"pod_name": podName},
	})
}

func (h *PodHandler) logs(w http.ResponseWriter, r *http.Request) {
	req := service.PodLogsRequest{
		PodName:       r.URL.Query().Get("pod_name"),
		ContainerName: r.URL.Query().Get("container_name"),
	}
	if req.PodName == "" {
		common.RespondWithError(w, http.StatusBadRequest, "pod_name query parameter is required")
		return
	}

	logs, err := h.podService.Logs(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, logs)
}
