package service

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/api/types/volume"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// fakeEngine implements EngineAPI for tests. Behaviors are overridden per
// test through the function fields; unset operations succeed with zero
// values. Call counters record what the services actually invoked.
type fakeEngine struct {
	buildCalls  int
	pushCalls   int
	pullCalls   int
	createCalls int
	startCalls  int

	lastCreateConfig     *container.Config
	lastCreateHostConfig *container.HostConfig
	lastCreateName       string

	registryLoginFn func(registry.AuthConfig) (registry.AuthenticateOKBody, error)
	imageBuildFn    func(types.ImageBuildOptions) (types.ImageBuildResponse, error)
	imageTagFn      func(source, target string) error
	imagePushFn     func(img string, options image.PushOptions) (io.ReadCloser, error)
	imagePullFn     func(refStr string, options image.PullOptions) (io.ReadCloser, error)
	imageListFn     func() ([]image.Summary, error)
	imageRemoveFn   func(imageID string) ([]image.DeleteResponse, error)

	containerCreateFn  func(name string) (container.CreateResponse, error)
	containerStartFn   func(id string) error
	containerStopFn    func(id string) error
	containerRestartFn func(id string) error
	containerRemoveFn  func(id string) error
	containerListFn    func() ([]types.Container, error)
	containerLogsFn    func(id string) (io.ReadCloser, error)

	volumeCreateFn func(options volume.CreateOptions) (volume.Volume, error)
	volumeListFn   func() (volume.ListResponse, error)
	volumeRemoveFn func(id string, force bool) error
}

func emptyStream() io.ReadCloser {
	return io.NopCloser(strings.NewReader(""))
}

func (f *fakeEngine) RegistryLogin(_ context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error) {
	if f.registryLoginFn != nil {
		return f.registryLoginFn(auth)
	}
	return registry.AuthenticateOKBody{Status: "Login Succeeded"}, nil
}

func (f *fakeEngine) ImageBuild(_ context.Context, _ io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	f.buildCalls++
	if f.imageBuildFn != nil {
		return f.imageBuildFn(options)
	}
	return types.ImageBuildResponse{Body: emptyStream()}, nil
}

func (f *fakeEngine) ImageTag(_ context.Context, source, target string) error {
	if f.imageTagFn != nil {
		return f.imageTagFn(source, target)
	}
	return nil
}

func (f *fakeEngine) ImagePush(_ context.Context, img string, options image.PushOptions) (io.ReadCloser, error) {
	f.pushCalls++
	if f.imagePushFn != nil {
		return f.imagePushFn(img, options)
	}
	return emptyStream(), nil
}

func (f *fakeEngine) ImagePull(_ context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error) {
	f.pullCalls++
	if f.imagePullFn != nil {
		return f.imagePullFn(refStr, options)
	}
	return emptyStream(), nil
}

func (f *fakeEngine) ImageList(_ context.Context, _ image.ListOptions) ([]image.Summary, error) {
	if f.imageListFn != nil {
		return f.imageListFn()
	}
	return nil, nil
}

func (f *fakeEngine) ImageRemove(_ context.Context, imageID string, _ image.RemoveOptions) ([]image.DeleteResponse, error) {
	if f.imageRemoveFn != nil {
		return f.imageRemoveFn(imageID)
	}
	return nil, nil
}

func (f *fakeEngine) ContainerCreate(_ context.Context, cfg *container.Config, hostConfig *container.HostConfig, _ *network.NetworkingConfig, _ *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	f.createCalls++
	f.lastCreateConfig = cfg
	f.lastCreateHostConfig = hostConfig
	f.lastCreateName = containerName
	if f.containerCreateFn != nil {
		return f.containerCreateFn(containerName)
	}
	return container.CreateResponse{ID: "cid-1"}, nil
}

func (f *fakeEngine) ContainerStart(_ context.Context, containerID string, _ container.StartOptions) error {
	f.startCalls++
	if f.containerStartFn != nil {
		return f.containerStartFn(containerID)
	}
	return nil
}

func (f *fakeEngine) ContainerStop(_ context.Context, containerID string, _ container.StopOptions) error {
	if f.containerStopFn != nil {
		return f.containerStopFn(containerID)
	}
	return nil
}

func (f *fakeEngine) ContainerRestart(_ context.Context, containerID string, _ container.StopOptions) error {
	if f.containerRestartFn != nil {
		return f.containerRestartFn(containerID)
	}
	return nil
}

func (f *fakeEngine) ContainerRemove(_ context.Context, containerID string, _ container.RemoveOptions) error {
	if f.containerRemoveFn != nil {
		return f.containerRemoveFn(containerID)
	}
	return nil
}

func (f *fakeEngine) ContainerList(_ context.Context, _ container.ListOptions) ([]types.Container, error) {
	if f.containerListFn != nil {
		return f.containerListFn()
	}
	return nil, nil
}

func (f *fakeEngine) ContainerLogs(_ context.Context, containerID string, _ container.LogsOptions) (io.ReadCloser, error) {
	if f.containerLogsFn != nil {
		return f.containerLogsFn(containerID)
	}
	return emptyStream(), nil
}

func (f *fakeEngine) VolumeCreate(_ context.Context, options volume.CreateOptions) (volume.Volume, error) {
	if f.volumeCreateFn != nil {
		return f.volumeCreateFn(options)
	}
	return volume.Volume{Name: options.Name}, nil
}

func (f *fakeEngine) VolumeList(_ context.Context, _ volume.ListOptions) (volume.ListResponse, error) {
	if f.volumeListFn != nil {
		return f.volumeListFn()
	}
	return volume.ListResponse{}, nil
}

func (f *fakeEngine) VolumeRemove(_ context.Context, volumeID string, force bool) error {
	if f.volumeRemoveFn != nil {
		return f.volumeRemoveFn(volumeID, force)
	}
	return nil
}

var _ EngineAPI = (*fakeEngine)(nil)
