package registry

import (
	"context"
	"errors"
	"fmt"
	"os"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultConfigMapKey is the ConfigMap data key holding the registry document
const DefaultConfigMapKey = "clusters.yaml"

// FileSource reads the registry from a YAML file. A missing file is an empty registry.
type FileSource struct {
	Path string
}

// Load implements Source
func (s FileSource) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster registry %s: %w", s.Path, err)
	}
	return data, nil
}

// Describe implements Source
func (s FileSource) Describe() string {
	return "file:" + s.Path
}

// ConfigMapSource reads the registry from a key of a Kubernetes ConfigMap
type ConfigMapSource struct {
	Client    kubernetes.Interface
	Namespace string
	Name      string
	Key       string
}

// Load implements Source. A missing ConfigMap or key is an empty registry.
func (s ConfigMapSource) Load(ctx context.Context) ([]byte, error) {
	cm, err := s.Client.CoreV1().ConfigMaps(s.Namespace).Get(ctx, s.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configmap %s/%s: %w", s.Namespace, s.Name, err)
	}

	key := s.Key
	if key == "" {
		key = DefaultConfigMapKey
	}
	data, ok := cm.Data[key]
	if !ok {
		return nil, nil
	}
	return []byte(data), nil
}

// Describe implements Source
func (s ConfigMapSource) Describe() string {
	return fmt.Sprintf("configmap:%s/%s", s.Namespace, s.Name)
}

// NewKubeClient builds a clientset from a kubeconfig path, falling back to in-cluster config
func NewKubeClient(kubeconfig string) (kubernetes.Interface, error) {
	config, err := kubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return client, nil
}

func kubeConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}

	config, err := rest.InClusterConfig()
	if err != nil {
		home, _ := os.UserHomeDir()
		defaultPath := home + "/.kube/config"
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			return clientcmd.BuildConfigFromFlags("", defaultPath)
		}
		return nil, err
	}
	return config, nil
}
