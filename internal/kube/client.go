// Package kube is the cluster-facing collaborator for the deployment
// pipeline. It wraps client-go with the handful of operations the
// orchestrator needs: namespace and permission probes, idempotent secret and
// manifest upserts, bounded readiness polling, and label-based listing for
// the final status snapshot.
package kube

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth" // Important for various auth providers
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"k8s.io/apimachinery/pkg/api/meta"
)

const (
	// fieldManager identifies this tool in server-side apply managed fields.
	fieldManager = "ragctl"

	// LabelPartOf is the label every platform workload and secret carries;
	// readiness waits and status listings select on it.
	LabelPartOf = "app.kubernetes.io/part-of"

	// PlatformName is the LabelPartOf value shared by all platform resources.
	PlatformName = "advanced-rag"
)

// PlatformSelector selects every resource belonging to the platform.
var PlatformSelector = fmt.Sprintf("%s=%s", LabelPartOf, PlatformName)

var (
	// ErrNamespaceNotFound indicates the target namespace does not exist and
	// the run is not entitled to create it.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrAccessDenied indicates the current identity failed the permission
	// probe for the target namespace.
	ErrAccessDenied = errors.New("access denied")

	// ErrReadinessTimeout indicates workloads did not become ready within
	// the stage deadline. Whether this is fatal is the sequencer's call.
	ErrReadinessTimeout = errors.New("readiness timeout")
)

// NewK8sClientsetFromConfig is a package-level variable for creating a
// clientset from rest.Config. Exported to allow overriding in tests.
var NewK8sClientsetFromConfig = func(c *rest.Config) (kubernetes.Interface, error) {
	return kubernetes.NewForConfig(c)
}

// NewDynamicClientFromConfig mirrors NewK8sClientsetFromConfig for the
// dynamic client used by server-side apply.
var NewDynamicClientFromConfig = func(c *rest.Config) (dynamic.Interface, error) {
	return dynamic.NewForConfig(c)
}

// inClusterNamespacePath is the service-account namespace file mounted into
// every pod. Overridable in tests.
var inClusterNamespacePath = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

// Client bundles the typed and dynamic clients plus the REST mapping needed
// to apply arbitrary rendered manifests.
type Client struct {
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
	mapper    meta.RESTMapper
}

// NewClient builds a Client for the given kubeconfig path and context name.
// Both may be empty, in which case the standard kubeconfig resolution order
// (KUBECONFIG, ~/.kube/config, in-cluster) applies.
func NewClient(kubeconfig, kubeContext string) (*Client, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		loadingRules.ExplicitPath = kubeconfig
	}
	configOverrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get REST config for context %q: %w", kubeContext, err)
	}
	restConfig.Timeout = 30 * time.Second

	clientset, err := NewK8sClientsetFromConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}

	dyn, err := NewDynamicClientFromConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	disc, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disc))

	return &Client{clientset: clientset, dynamic: dyn, mapper: mapper}, nil
}

// InClusterNamespace reports the namespace of the pod this process runs in,
// if it runs in one at all. The second return is false outside a cluster.
func InClusterNamespace() (string, bool) {
	data, err := os.ReadFile(inClusterNamespacePath)
	if err != nil {
		return "", false
	}
	ns := strings.TrimSpace(string(data))
	return ns, ns != ""
}
