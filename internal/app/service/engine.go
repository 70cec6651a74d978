package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"dockyard/internal/common"
	"dockyard/internal/platform/config"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
)

// EngineAPI is the slice of the Docker client the services call.
// *client.Client satisfies it; tests substitute a fake.
type EngineAPI interface {
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)

	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, img string, options image.PushOptions) (io.ReadCloser, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)

	ContainerCreate(ctx context.Context, cfg *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)

	VolumeCreate(ctx context.Context, options volume.CreateOptions) (volume.Volume, error)
	VolumeList(ctx context.Context, options volume.ListOptions) (volume.ListResponse, error)
	VolumeRemove(ctx context.Context, volumeID string, force bool) error
}

var _ EngineAPI = (*client.Client)(nil)

// opContext bounds a single engine or cluster round-trip. Operations are
// single-shot; a hung daemon surfaces as a deadline error rather than a
// stuck request.
func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := 2 * time.Minute
	if config.AppConfig != nil {
		timeout = config.AppConfig.EngineTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapEngineErr normalizes Docker client failures into the closed error
// set. The engine's own message is preserved verbatim.
func wrapEngineErr(err error) error {
	if err == nil {
		return nil
	}
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%v: %w", err, common.ErrNotFound)
	}
	if client.IsErrConnectionFailed(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, common.ErrEngineUnavailable)
	}
	return fmt.Errorf("%v: %w", err, common.ErrOperationFailed)
}

// wrapClusterErr normalizes Kubernetes client failures. API status errors
// keep their reason; transport failures mean the cluster is unreachable.
func wrapClusterErr(err error) error {
	if err == nil {
		return nil
	}
	if k8serrors.IsNotFound(err) {
		return fmt.Errorf("%v: %w", err, common.ErrNotFound)
	}
	var statusErr *k8serrors.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("kubernetes api error: %s: %w", statusErr.ErrStatus.Reason, common.ErrClusterAPI)
	}
	return fmt.Errorf("%v: %w", err, common.ErrEngineUnavailable)
}

// streamChunk is one line of the engine's build/push/pull progress stream.
type streamChunk struct {
	Stream string `json:"stream"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// drainStream accumulates the engine's JSON progress stream into plain
// text, failing if the stream carries an error record.
func drainStream(body io.Reader) (string, error) {
	var out strings.Builder
	dec := json.NewDecoder(body)
	for {
		var chunk streamChunk
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return out.String(), fmt.Errorf("decoding engine stream: %w", common.ErrOperationFailed)
		}
		if chunk.Error != "" {
			return out.String(), fmt.Errorf("%s: %w", chunk.Error, common.ErrOperationFailed)
		}
		if chunk.Stream != "" {
			out.WriteString(chunk.Stream)
		}
		if chunk.Status != "" {
			out.WriteString(chunk.Status)
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}
