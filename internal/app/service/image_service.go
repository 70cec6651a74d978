package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dockyard/internal/common"
	"dockyard/internal/domain/model"
	"dockyard/internal/platform/config"
	"dockyard/internal/platform/logging"

	git "github.com/go-git/go-git/v5"
	"github.com/gosimple/slug"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/archive"
	"go.uber.org/zap"
)

type ImageService struct {
	engine EngineAPI
}

func NewImageService(engine EngineAPI) *ImageService {
	return &ImageService{engine: engine}
}

type RegistryLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type BuildImageRequest struct {
	ImageName      string `json:"image_name"`
	DockerfilePath string `json:"dockerfile_path"`
	DockerfileName string `json:"dockerfile_name"`
}

type BuildFromRepoRequest struct {
	RepoURL   string `json:"repo_url"`
	RepoName  string `json:"repo_name"`
	ImageName string `json:"image_name"`
}

type PushImageRequest struct {
	LocalImageName string `json:"local_image_name"`
	RepositoryName string `json:"repository_name"`
	Username       string `json:"username"`
	Password       string `json:"password"`
}

type PullImageRequest struct {
	ImageName      string `json:"image_name"`
	RepositoryName string `json:"repository_name"`
}

type GHCRImageRequest struct {
	ImageName string `json:"image_name"`
	Username  string `json:"username"`
	Token     string `json:"token"`
}

// RegistryLogin authenticates against the configured primary registry.
// Credentials are supplied per call; nothing is cached.
func (s *ImageService) RegistryLogin(ctx context.Context, req RegistryLoginRequest) (string, error) {
	if req.Username == "" || req.Password == "" {
		return "", common.ErrBadRequest
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	body, err := s.engine.RegistryLogin(ctx, registry.AuthConfig{
		Username:      req.Username,
		Password:      req.Password,
		ServerAddress: config.AppConfig.DockerRegistry,
	})
	if err != nil {
		return "", wrapEngineErr(err)
	}

	logging.L.Info("registry login", zap.String("registry", config.AppConfig.DockerRegistry))
	return body.Status, nil
}

// Build tars the given directory and submits it as the build context.
func (s *ImageService) Build(ctx context.Context, req BuildImageRequest) (string, error) {
	if req.ImageName == "" || req.DockerfilePath == "" {
		return "", common.ErrBadRequest
	}
	if req.DockerfileName == "" {
		req.DockerfileName = "Dockerfile"
	}

	buildCtx, err := archive.TarWithOptions(req.DockerfilePath, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to read build context %s: %v: %w", req.DockerfilePath, err, common.ErrOperationFailed)
	}
	defer buildCtx.Close()

	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := s.engine.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{req.ImageName},
		Dockerfile: req.DockerfileName,
		Remove:     true,
	})
	if err != nil {
		return "", wrapEngineErr(err)
	}
	defer resp.Body.Close()

	output, err := drainStream(resp.Body)
	if err != nil {
		return output, err
	}

	logging.L.Info("image built", zap.String("image", req.ImageName))
	return fmt.Sprintf("Image '%s' built successfully.\nLogs:\n%s", req.ImageName, output), nil
}

// BuildFromRepo clones a source repository and builds an image rooted at
// the clone. The clone fails fast if the destination already exists, and
// a clone failure is returned unchanged without attempting the build.
func (s *ImageService) BuildFromRepo(ctx context.Context, req BuildFromRepoRequest) (string, error) {
	if req.RepoURL == "" || req.RepoName == "" || req.ImageName == "" {
		return "", common.ErrBadRequest
	}

	dest, err := s.cloneRepo(ctx, req.RepoURL, req.RepoName)
	if err != nil {
		return "", err
	}

	logging.L.Info("repository cloned", zap.String("repo", req.RepoURL), zap.String("dest", dest))

	return s.Build(ctx, BuildImageRequest{
		ImageName:      req.ImageName,
		DockerfilePath: dest,
		DockerfileName: "Dockerfile",
	})
}

func (s *ImageService) cloneRepo(ctx context.Context, repoURL, repoName string) (string, error) {
	base := config.AppConfig.CloneBaseDir
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare clone directory: %v: %w", err, common.ErrOperationFailed)
	}

	dest := filepath.Join(base, slug.Make(repoName))
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("directory %s already exists: %w", dest, common.ErrConflict)
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	if _, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: repoURL, Depth: 1}); err != nil {
		return "", fmt.Errorf("failed to clone repository: %v: %w", err, common.ErrOperationFailed)
	}
	return dest, nil
}

// Push tags a local image into the target repository and pushes it,
// re-authenticating against the primary registry for this call only.
func (s *ImageService) Push(ctx context.Context, req PushImageRequest) (string, error) {
	if req.LocalImageName == "" || req.RepositoryName == "" {
		return "", common.ErrBadRequest
	}

	encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username:      req.Username,
		Password:      req.Password,
		ServerAddress: config.AppConfig.DockerRegistry,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode registry credentials: %w", err)
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.engine.ImageTag(ctx, req.LocalImageName, req.RepositoryName); err != nil {
		return "", wrapEngineErr(err)
	}

	rc, err := s.engine.ImagePush(ctx, req.RepositoryName, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return "", wrapEngineErr(err)
	}
	defer rc.Close()

	output, err := drainStream(rc)
	if err != nil {
		return output, err
	}

	logging.L.Info("image pushed",
		zap.String("image", req.LocalImageName),
		zap.String("repository", req.RepositoryName))
	return fmt.Sprintf("Image '%s' pushed as '%s'.\nResponse:\n%s", req.LocalImageName, req.RepositoryName, output), nil
}

// PushGHCR pushes an image to the token-authenticated registry.
func (s *ImageService) PushGHCR(ctx context.Context, req GHCRImageRequest) (string, error) {
	if req.ImageName == "" || req.Token == "" {
		return "", common.ErrBadRequest
	}

	encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username:      req.Username,
		Password:      req.Token,
		ServerAddress: config.AppConfig.GHCRRegistry,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode registry credentials: %w", err)
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	rc, err := s.engine.ImagePush(ctx, req.ImageName, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return "", wrapEngineErr(err)
	}
	defer rc.Close()

	output, err := drainStream(rc)
	if err != nil {
		return output, err
	}

	logging.L.Info("image pushed", zap.String("image", req.ImageName), zap.String("registry", config.AppConfig.GHCRRegistry))
	return output, nil
}

// Pull fetches <repository>:<tag>, taking the tag from the requested image
// name.
func (s *ImageService) Pull(ctx context.Context, req PullImageRequest) (string, error) {
	if req.ImageName == "" || req.RepositoryName == "" {
		return "", common.ErrBadRequest
	}

	tag := req.ImageName
	if i := strings.LastIndex(req.ImageName, ":"); i >= 0 {
		tag = req.ImageName[i+1:]
	}
	fullName := req.RepositoryName + ":" + tag

	ctx, cancel := opContext(ctx)
	defer cancel()

	rc, err := s.engine.ImagePull(ctx, fullName, image.PullOptions{})
	if err != nil {
		return "", wrapEngineErr(err)
	}
	defer rc.Close()

	if _, err := drainStream(rc); err != nil {
		return "", err
	}

	logging.L.Info("image pulled", zap.String("image", fullName))
	return fmt.Sprintf("Image '%s' pulled successfully", fullName), nil
}

// PullGHCR fetches an image from the token-authenticated registry. The
// token is optional; public images pull anonymously.
func (s *ImageService) PullGHCR(ctx context.Context, req GHCRImageRequest) (string, error) {
	if req.ImageName == "" {
		return "", common.ErrBadRequest
	}

	var opts image.PullOptions
	if req.Token != "" {
		encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{
			Username:      req.Username,
			Password:      req.Token,
			ServerAddress: config.AppConfig.GHCRRegistry,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode registry credentials: %w", err)
		}
		opts.RegistryAuth = encoded
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	rc, err := s.engine.ImagePull(ctx, req.ImageName, opts)
	if err != nil {
		return "", wrapEngineErr(err)
	}
	defer rc.Close()

	if _, err := drainStream(rc); err != nil {
		return "", err
	}

	logging.L.Info("image pulled", zap.String("image", req.ImageName), zap.String("registry", config.AppConfig.GHCRRegistry))
	return fmt.Sprintf("Image '%s' pulled successfully", req.ImageName), nil
}

func (s *ImageService) List(ctx context.Context) ([]model.ImageSummary, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	images, err := s.engine.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	summaries := make([]model.ImageSummary, 0, len(images))
	for _, img := range images {
		summaries = append(summaries, model.ImageSummary{
			ID:      img.ID,
			Tags:    img.RepoTags,
			ShortID: shortImageID(img.ID),
		})
	}
	return summaries, nil
}

func (s *ImageService) Remove(ctx context.Context, imageName string) (string, error) {
	if imageName == "" {
		return "", common.ErrBadRequest
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	if _, err := s.engine.ImageRemove(ctx, imageName, image.RemoveOptions{Force: true, PruneChildren: true}); err != nil {
		return "", wrapEngineErr(err)
	}

	logging.L.Info("image removed", zap.String("image", imageName))
	return fmt.Sprintf("Image '%s' removed", imageName), nil
}

func shortImageID(id string) string {
	const prefixed = len("sha256:") + 10
	if strings.HasPrefix(id, "sha256:") && len(id) >= prefixed {
		return id[:prefixed]
	}
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
