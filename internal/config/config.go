package config

import (
	"os"
)

// For mocking in tests
var osLookupEnv = os.LookupEnv

const (
	// DefaultNamespace is the namespace the platform is deployed into when
	// the operator does not name one explicitly.
	DefaultNamespace = "advanced-rag"

	// EnvNamespace names the target namespace.
	EnvNamespace = "NAMESPACE"

	// Skip directives. Each one suppresses a single pipeline stage; the
	// only recognized value is the literal string "true".
	EnvSkipMilvus   = "SKIP_MILVUS"
	EnvSkipServices = "SKIP_SERVICES"
	EnvSkipMCP      = "SKIP_MCP"

	skipEnabledValue = "true"
)

// Config is the immutable run configuration for a single deployment run.
// It is constructed once at startup from the process environment plus
// command-line flags and passed by reference into every stage; nothing
// mutates it afterwards.
type Config struct {
	// Namespace is the operator-supplied target namespace. The effective
	// namespace may still differ when running in-cluster; that
	// reconciliation is the context stage's job, not this package's.
	Namespace string

	// Stage skip directives.
	SkipMilvus   bool
	SkipServices bool
	SkipMCP      bool

	// OverlayRoot is the directory containing the kustomize overlays for
	// the stateless services and the MCP gateway.
	OverlayRoot string

	// Kubeconfig and KubeContext select the cluster to deploy into. Both
	// empty means the standard kubeconfig resolution order applies.
	Kubeconfig  string
	KubeContext string

	// MilvusValuesFile optionally points at a YAML file with value
	// overrides for the milvus chart.
	MilvusValuesFile string

	// DryRun resolves context and credentials and renders every manifest
	// set, but applies nothing to the cluster.
	DryRun bool
}

// FromEnvironment builds a Config from the process environment. Flag-driven
// fields (OverlayRoot, Kubeconfig, ...) are left zero for the caller to fill
// in before the Config is handed to the orchestrator.
func FromEnvironment() Config {
	return Config{
		Namespace:    envOrDefault(EnvNamespace, DefaultNamespace),
		SkipMilvus:   skipRequested(EnvSkipMilvus),
		SkipServices: skipRequested(EnvSkipServices),
		SkipMCP:      skipRequested(EnvSkipMCP),
	}
}

// LookupEnv exposes the (mockable) environment lookup used by this package
// so the credential resolver can read its inputs through the same seam.
func LookupEnv(name string) string {
	v, _ := osLookupEnv(name)
	return v
}

func envOrDefault(name, fallback string) string {
	if v, ok := osLookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}

func skipRequested(name string) bool {
	v, _ := osLookupEnv(name)
	return v == skipEnabledValue
}
