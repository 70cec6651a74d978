package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dockyard/internal/api/middleware"
	"dockyard/internal/app/service"
	"dockyard/internal/common"

	"github.com/go-chi/chi/v5"
)

type ImageHandler struct {
	imageService *service.ImageService
	limit        func(http.Handler) http.Handler
}

func NewImageHandler(imageService *service.ImageService, limit func(http.Handler) http.Handler) *ImageHandler {
	return &ImageHandler{imageService: imageService, limit: limit}
}

func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/build", h.build)
	r.Post("/build-from-repo", h.buildFromRepo)
	r.Post("/push", h.push)
	r.Post("/push-ghcr", h.pushGHCR)
	r.Post("/pull", h.pull)
	r.Post("/pull-ghcr", h.pullGHCR)
	r.With(h.limit).Get("/", h.list)
	r.Delete("/", h.remove)
}

func (h *ImageHandler) build(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.BuildImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	output, err := h.imageService.Build(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' built by %s", req.ImageName, actor),
		Result:  map[string]string{"output": output},
	})
}

func (h *ImageHandler) buildFromRepo(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.BuildFromRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	output, err := h.imageService.BuildFromRepo(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' built by %s from %s", req.ImageName, actor, req.RepoURL),
		Result:  map[string]string{"output": output},
	})
}

func (h *ImageHandler) push(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.PushImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	output, err := h.imageService.Push(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' pushed by %s to %s", req.LocalImageName, actor, req.RepositoryName),
		Result:  map[string]string{"output": output},
	})
}

func (h *ImageHandler) pushGHCR(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.GHCRImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	output, err := h.imageService.PushGHCR(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' pushed to GHCR by %s", req.ImageName, actor),
		Result:  map[string]string{"output": output},
	})
}

func (h *ImageHandler) pull(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.PullImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	output, err := h.imageService.Pull(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' pulled by %s", req.ImageName, actor),
		Result:  map[string]string{"output": output},
	})
}

func (h *ImageHandler) pullGHCR(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.GHCRImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	output, err := h.imageService.PullGHCR(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' pulled from GHCR by %s", req.ImageName, actor),
		Result:  map[string]string{"output": output},
	})
}

func (h *ImageHandler) list(w http.ResponseWriter, r *http.Request) {
	images, err := h.imageService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, images)
}

func (h *ImageHandler) remove(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	imageName := r.URL.Query().Get("image_name")
	if imageName == "" {
		common.RespondWithError(w, http.StatusBadRequest, "image_name query parameter is required")
		return
	}

	output, err := h.imageService.Remove(r.Context(), imageName)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("image '%s' removed by %s", imageName, actor),
		Result:  map[string]string{"output": output},
	})
}

// RegistryLogin authenticates the engine against the primary registry.
// Registered by the router at /registry/login (rate limited).
func (h *ImageHandler) RegistryLogin(w http.ResponseWriter, r *http.Request) {
	actor := actorName(r)

	var req service.RegistryLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	status, err := h.imageService.RegistryLogin(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.OperationResponse{
		Message: fmt.Sprintf("registry login performed by %s", actor),
		Result:  map[string]string{"status": status},
	})
}

// actorName names the authenticated operator for response messages.
func actorName(r *http.Request) string {
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		return user.Username
	}
	return "unknown"
}
