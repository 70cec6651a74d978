package service

import (
	"context"

	"dockyard/internal/common"
	"dockyard/internal/domain/model"
	"dockyard/internal/platform/logging"

	"github.com/docker/docker/api/types/volume"
	"go.uber.org/zap"
)

type VolumeService struct {
	engine EngineAPI
}

func NewVolumeService(engine EngineAPI) *VolumeService {
	return &VolumeService{engine: engine}
}

type CreateVolumeRequest struct {
	VolumeName string `json:"volume_name"`
}

// Create makes a named volume and returns its name as reported by the
// engine.
func (s *VolumeService) Create(ctx context.Context, req CreateVolumeRequest) (string, error) {
	if req.VolumeName == "" {
		return "", common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	vol, err := s.engine.VolumeCreate(ctx, volume.CreateOptions{Name: req.VolumeName})
	if err != nil {
		return "", wrapEngineErr(err)
	}

	logging.L.Info("volume created", zap.String("volume", vol.Name))
	return vol.Name, nil
}

func (s *VolumeService) List(ctx context.Context) ([]model.VolumeSummary, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := s.engine.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, wrapEngineErr(err)
	}

	summaries := make([]model.VolumeSummary, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		summaries = append(summaries, model.VolumeSummary{Name: v.Name, Driver: v.Driver})
	}
	return summaries, nil
}

func (s *VolumeService) Delete(ctx context.Context, volumeName string) error {
	if volumeName == "" {
		return common.ErrBadRequest
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.engine.VolumeRemove(ctx, volumeName, false); err != nil {
		return wrapEngineErr(err)
	}

	logging.L.Info("volume deleted", zap.String("volume", volumeName))
	return nil
}
