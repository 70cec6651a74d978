package cluster

import (
	"log"
	"os"
	"path/filepath"

	"dockyard/internal/platform/config"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Connect resolves a Kubernetes clientset: in-cluster config when running
// inside a pod, kubeconfig otherwise. Returns nil when neither resolves;
// pod operations then report the cluster as unavailable.
func Connect() kubernetes.Interface {
	cfg, err := resolveConfig()
	if err != nil {
		log.Printf("Kubernetes disabled: %v", err)
		return nil
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		log.Printf("Kubernetes disabled: %v", err)
		return nil
	}
	return clientset
}

func resolveConfig() (*rest.Config, error) {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return rest.InClusterConfig()
	}

	kubeconfig := config.AppConfig.Kubeconfig
	if kubeconfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		kubeconfig = filepath.Join(home, ".kube", "config")
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}
