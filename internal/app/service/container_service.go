package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"dockyard/internal/common"
	"dockyard/internal/domain/model"
	"dockyard/internal/platform/logging"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"go.uber.org/zap"
)

type ContainerService struct {
	engine EngineAPI
}

func NewContainerService(engine EngineAPI) *ContainerService {
	return &ContainerService{engine: engine}
}

type RunContainerRequest struct {
	ImageName     string            `json:"image_name"`
	ContainerName string            `json:"container_name"`
	Ports         map[string]string `json:"ports,omitempty"`       // container port -> host port
	Environment   map[string]string `json:"environment,omitempty"` // name -> value
	VolumeName    string            `json:"volume_name,omitempty"`
	MountPath     string            `json:"mount_path,omitempty"`
}

type ContainerActionRequest struct {
	ContainerName string `json:"container_name"`
}

// Run creates and starts a detached container.
func (s *ContainerService) Run(ctx context.Context, req RunContainerRequest) (string, error) {
	if req.ImageName == "" || req.ContainerName == "" {
		return "", common.ErrBadRequest
	}

	exposed, bindings, err := portBindings(req.Ports)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, common.ErrBadRequest)
	}

	cfg := &container.Config{
		Image:        req.ImageName,
		Env:          envList(req.Environment),
		ExposedPorts: exposed,
	}
	hostCfg := &container.HostConfig{PortBindings: bindings}

	if req.VolumeName != "" && req.MountPath != "" {
		hostCfg.Mounts = []mount.Mount{{
			Type:   mount.TypeVolume,
			Source: req.VolumeName,
			Target: req.MountPath,
		}}
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	created, err := s.engine.ContainerCreate(ctx, cfg, hostCfg, nil, nil, req.ContainerName)
	if err != nil {
		return "", wrapEngineErr(err)
	}
	if err := s.engine.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", wrapEngineErr(err)
	}

	logging.L.Info("container started",
		zap.String("container", req.ContainerName),
		zap.String("image", req.ImageName))
	return created.ID, nil
}

func (s *ContainerService) Stop(ctx context.Context, name string) error {
	if name == "" {
		return common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.engine.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return wrapEngineErr(err)
	}
	logging.L.Info("container stopped", zap.String("container", name))
	return nil
}

func (s *ContainerService) Start(ctx context.Context, name string) error {
	if name == "" {
		return common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.engine.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return wrapEngineErr(err)
	}
	logging.L.Info("container started", zap.String("container", name))
	return nil
}

func (s *ContainerService) Restart(ctx context.Context, name string) error {
	if name == "" {
		return common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.engine.ContainerRestart(ctx, name, container.StopOptions{}); err != nil {
		return wrapEngineErr(err)
	}
	logging.L.Info("container restarted", zap.String("container", name))
	return nil
}

func (s *ContainerService) Remove(ctx context.Context, name string) error {
	if name == "" {
		return common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.engine.ContainerRemove(ctx, name, container.RemoveOptions{}); err != nil {
		return wrapEngineErr(err)
	}
	logging.L.Info("container removed", zap.String("container", name))
	return nil
}

// Logs fetches the container's timestamped log lines. The engine
// multiplexes stdout/stderr on one stream, so it is demuxed here.
func (s *ContainerService) Logs(ctx context.Context, name string) (*model.ContainerLogs, error) {
	if name == "" {
		return nil, common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	rc, err := s.engine.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
	})
	if err != nil {
		return nil, wrapEngineErr(err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return nil, fmt.Errorf("failed to read container logs: %v: %w", err, common.ErrOperationFailed)
	}

	return &model.ContainerLogs{
		Container: name,
		Logs:      splitLines(buf.String()),
	}, nil
}

// List reports running containers (docker ps).
func (s *ContainerService) List(ctx context.Context) ([]model.ContainerSummary, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	containers, err := s.engine.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	summaries := make([]model.ContainerSummary, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		summaries = append(summaries, model.ContainerSummary{
			ID:     c.ID,
			Name:   name,
			Status: c.Status,
			Image:  []string{c.Image},
		})
	}
	return summaries, nil
}

func portBindings(ports map[string]string) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for containerPort, hostPort := range ports {
		proto, portNum := nat.SplitProtoPort(containerPort)
		port, err := nat.NewPort(proto, portNum)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid port %q: %v", containerPort, err)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: hostPort}}
	}
	return exposed, bindings, nil
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	return list
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
