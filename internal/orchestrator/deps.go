package orchestrator

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"ragctl/internal/config"
	"ragctl/internal/credentials"
	"ragctl/internal/kube"
)

// Cluster is the slice of the cluster client the pipeline consumes. Every
// mutating call is an upsert.
type Cluster interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	CanListSecrets(ctx context.Context, namespace string) (bool, error)
	ApplySecret(ctx context.Context, namespace, name string, data map[string]string) (bool, error)
	ApplyObjects(ctx context.Context, namespace string, objs []*unstructured.Unstructured) error
	WaitForWorkloads(ctx context.Context, namespace, selector string, timeout time.Duration) error
}

// Renderer produces a resource descriptor set from a named overlay.
type Renderer interface {
	Render(overlay string) ([]*unstructured.Unstructured, error)
}

// Installer installs a packaged release into the namespace if absent or
// upgrades it if present. The namespace is passed per call so the release
// lands in the namespace the context stage resolved, which may differ from
// anything known at construction time.
type Installer interface {
	InstallOrUpgrade(ctx context.Context, namespace, release, chartRef, repoURL, version string, values map[string]interface{}) error
}

// Deps bundles the collaborators a run needs. LookupEnv and
// InClusterNamespace default to the real environment when left nil.
type Deps struct {
	Cluster   Cluster
	Renderer  Renderer
	Installer Installer

	LookupEnv          credentials.LookupFunc
	InClusterNamespace func() (string, bool)
}

func (d *Deps) applyDefaults() {
	if d.LookupEnv == nil {
		d.LookupEnv = config.LookupEnv
	}
	if d.InClusterNamespace == nil {
		d.InClusterNamespace = kube.InClusterNamespace
	}
}
