package orchestrator

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// mockCluster is a mock implementation of Cluster for testing. Every call is
// recorded in order; function hooks override the default happy-path
// behavior.
type mockCluster struct {
	calls []string

	// Simulated cluster state
	namespaces map[string]bool
	allowed    bool
	secrets    map[string]map[string]string

	// secretWrites counts only the ApplySecret calls that reported a
	// change; upserts against identical data do not count.
	secretWrites int

	// Function hooks for testing
	applySecretFunc func(namespace, name string, data map[string]string) (bool, error)
	applyFunc       func(namespace string, objs []*unstructured.Unstructured) error
	waitFunc        func(namespace, selector string, timeout time.Duration) error
}

func newMockCluster() *mockCluster {
	return &mockCluster{
		namespaces: map[string]bool{"advanced-rag": true, "demo": true},
		allowed:    true,
		secrets:    make(map[string]map[string]string),
	}
}

func (m *mockCluster) record(format string, args ...interface{}) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockCluster) NamespaceExists(ctx context.Context, name string) (bool, error) {
	m.record("namespace-exists %s", name)
	return m.namespaces[name], nil
}

func (m *mockCluster) CanListSecrets(ctx context.Context, namespace string) (bool, error) {
	m.record("can-list-secrets %s", namespace)
	return m.allowed, nil
}

func (m *mockCluster) ApplySecret(ctx context.Context, namespace, name string, data map[string]string) (bool, error) {
	m.record("apply-secret %s/%s", namespace, name)
	if m.applySecretFunc != nil {
		changed, err := m.applySecretFunc(namespace, name, data)
		if changed {
			m.secretWrites++
		}
		return changed, err
	}
	if existing, ok := m.secrets[name]; ok && mapsEqual(existing, data) {
		return false, nil
	}
	m.secrets[name] = data
	m.secretWrites++
	return true, nil
}

func (m *mockCluster) ApplyObjects(ctx context.Context, namespace string, objs []*unstructured.Unstructured) error {
	m.record("apply-objects %s (%d)", namespace, len(objs))
	if m.applyFunc != nil {
		return m.applyFunc(namespace, objs)
	}
	return nil
}

func (m *mockCluster) WaitForWorkloads(ctx context.Context, namespace, selector string, timeout time.Duration) error {
	m.record("wait %s %s", namespace, selector)
	if m.waitFunc != nil {
		return m.waitFunc(namespace, selector, timeout)
	}
	return nil
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// mockRenderer returns a canned object set per overlay.
type mockRenderer struct {
	calls   []string
	objects map[string][]*unstructured.Unstructured
	err     error
}

func newMockRenderer() *mockRenderer {
	deployment := func(name string) *unstructured.Unstructured {
		return &unstructured.Unstructured{Object: map[string]interface{}{
			"apiVersion": "apps/v1",
			"kind":       "Deployment",
			"metadata":   map[string]interface{}{"name": name},
		}}
	}
	return &mockRenderer{
		objects: map[string][]*unstructured.Unstructured{
			OverlayServices: {deployment("plan-service"), deployment("chunker-service")},
			OverlayMCP:      {deployment("rag-mcp")},
		},
	}
}

func (m *mockRenderer) Render(overlay string) ([]*unstructured.Unstructured, error) {
	m.calls = append(m.calls, overlay)
	if m.err != nil {
		return nil, m.err
	}
	return m.objects[overlay], nil
}

// mockInstaller records install calls.
type mockInstaller struct {
	calls []string
	err   error
}

func (m *mockInstaller) InstallOrUpgrade(ctx context.Context, namespace, release, chartRef, repoURL, version string, values map[string]interface{}) error {
	m.calls = append(m.calls, namespace+"/"+release)
	return m.err
}
