package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"dockyard/internal/api/middleware"
	"dockyard/internal/app/service"
	"dockyard/internal/common"
	"dockyard/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ContainerHandler struct {
	containerService *service.ContainerService
	limit            func(http.Handler) http.Handler
}

func NewContainerHandler(containerService *service.ContainerService, limit func(http.Handler) http.Handler) *ContainerHandler {
	return &ContainerHandler{containerService: containerService, limit: limit}
}

func (h *ContainerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.run)
	r.Post("/stop", h.stop)
	r.Post("/start", h.start)
	r.Post("/restart", h.restart)
	r.Get("/", h.list)
	r.With(h.limit).Get("/{containerName}/logs", h.logs)

	// Container removal is the one admin-only operation.
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(model.RoleAdmin))
		admin.Post("/remove", h.remove)
	})
}

func (h *ContainerHandler) run(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.RunContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	containerID, err := h.containerService.Run(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("container '%s' started by %s", req.ContainerName, actor),
		Result:  map[string]string{"container_id": containerID},
	})
}

func (h *ContainerHandler) stop(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "stopped", h.containerService.Stop)
}

func (h *ContainerHandler) start(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "started", h.containerService.Start)
}

func (h *ContainerHandler) restart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "restarted", h.containerService.Restart)
}

func (h *ContainerHandler) remove(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "removed", h.containerService.Remove)
}

// action handles the stop/start/restart/remove family: same payload, same
// envelope, different verb.
func (h *ContainerHandler) action(w http.ResponseWriter, r *http.Request, verb string, op func(ctx context.Context, name string) error) {
	actor := actorName(r)

	var req service.ContainerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := op(r.Context(), req.ContainerName); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("container '%s' %s by %s", req.ContainerName, verb, actor),
		Result:  map[string]string{"container_name": req.ContainerName},
	})
}

func (h *ContainerHandler) list(w http.ResponseWriter, r *http.Request) {
	containers, err := h.containerService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, containers)
}

func (h *ContainerHandler) logs(w http.ResponseWriter, r *http.Request) {
	containerName := chi.URLParam(r, "containerName")

	logs, err := h.containerService.Logs(r.Context(), containerName)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, logs)
}
