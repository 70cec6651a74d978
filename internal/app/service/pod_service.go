package service

import (
	"context"
	"fmt"

	"dockyard/internal/common"
	"dockyard/internal/domain/model"
	"dockyard/internal/platform/logging"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const dockerSockPath = "/var/run/docker.sock"

type PodService struct {
	clientset kubernetes.Interface
	namespace string
}

// NewPodService wires the cluster client. A nil clientset means cluster
// support is disabled; pod operations then report it as unavailable.
func NewPodService(clientset kubernetes.Interface, namespace string) *PodService {
	return &PodService{clientset: clientset, namespace: namespace}
}

type RunPodRequest struct {
	ImageName     string `json:"image_name"`
	ContainerName string `json:"container_name"`
	ContainerPort int32  `json:"container_port"`
}

type PodLogsRequest struct {
	PodName       string `json:"pod_name"`
	ContainerName string `json:"container_name"`
}

// Run submits a single-container pod exposing the local engine socket.
// The pod name gets a random 8-hex-char suffix to avoid collisions;
// uniqueness is not otherwise verified before submission.
func (s *PodService) Run(ctx context.Context, req RunPodRequest) (string, error) {
	if req.ImageName == "" || req.ContainerName == "" {
		return "", common.ErrBadRequest
	}
	if s.clientset == nil {
		return "", fmt.Errorf("kubernetes support is not configured: %w", common.ErrEngineUnavailable)
	}

	podName := fmt.Sprintf("%s-%s", slug.Make(req.ContainerName), uuid.NewString()[:8])
	hostPathType := corev1.HostPathSocket

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:   podName,
			Labels: map[string]string{"app": req.ContainerName},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{{
				Name:  req.ContainerName,
				Image: req.ImageName,
				Ports: []corev1.ContainerPort{{ContainerPort: req.ContainerPort}},
				VolumeMounts: []corev1.VolumeMount{{
					Name:      "docker-sock",
					MountPath: dockerSockPath,
				}},
			}},
			Volumes: []corev1.Volume{{
				Name: "docker-sock",
				VolumeSource: corev1.VolumeSource{
					HostPath: &corev1.HostPathVolumeSource{
						Path: dockerSockPath,
						Type: &hostPathType,
					},
				},
			}},
		},
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	if _, err := s.clientset.CoreV1().Pods(s.namespace).Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		return "", wrapClusterErr(err)
	}

	logging.L.Info("pod created",
		zap.String("pod", podName),
		zap.String("image", req.ImageName),
		zap.String("namespace", s.namespace))
	return podName, nil
}

// Logs fetches timestamped log lines for a pod, optionally scoped to one
// container inside it.
func (s *PodService) Logs(ctx context.Context, req PodLogsRequest) (*model.PodLogs, error) {
	if req.PodName == "" {
		return nil, common.ErrBadRequest
	}
	if s.clientset == nil {
		return nil, fmt.Errorf("kubernetes support is not configured: %w", common.ErrEngineUnavailable)
	}

	ctx, cancel := opContext(ctx)
	defer cancel()

	raw, err := s.clientset.CoreV1().Pods(s.namespace).
		GetLogs(req.PodName, &corev1.PodLogOptions{
			Container:  req.ContainerName,
			Timestamps: true,
		}).
		Do(ctx).
		Raw()
	if err != nil {
		return nil, wrapClusterErr(err)
	}

	return &model.PodLogs{
		Pod:  req.PodName,
		Logs: splitLines(string(raw)),
	}, nil
}
