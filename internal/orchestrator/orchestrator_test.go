package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragctl/internal/config"
	"ragctl/internal/credentials"
	"ragctl/internal/kube"
)

type testHarness struct {
	cluster   *mockCluster
	renderer  *mockRenderer
	installer *mockInstaller
	env       map[string]string
	inCluster func() (string, bool)
}

func newHarness() *testHarness {
	return &testHarness{
		cluster:   newMockCluster(),
		renderer:  newMockRenderer(),
		installer: &mockInstaller{},
		env:       map[string]string{"OPENAI_API_KEY": "sk-x"},
		inCluster: func() (string, bool) { return "", false },
	}
}

func (h *testHarness) orchestrator(cfg config.Config) *Orchestrator {
	return New(&cfg, Deps{
		Cluster:            h.cluster,
		Renderer:           h.renderer,
		Installer:          h.installer,
		LookupEnv:          func(name string) string { return h.env[name] },
		InClusterNamespace: h.inCluster,
	})
}

func TestRun_HappyPath(t *testing.T) {
	h := newHarness()
	cfg := config.Config{Namespace: "demo"}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "demo", record.Namespace)
	for _, name := range []StageName{StageContext, StageSecrets, StageStore, StageServices, StageGateway} {
		assert.Equal(t, OutcomeReady, record.Stage(name).Outcome, "stage %s", name)
	}
	assert.False(t, record.Degraded())
	assert.Equal(t, []string{"demo/milvus"}, h.installer.calls)
	assert.Equal(t, []string{OverlayServices, OverlayMCP}, h.renderer.calls)
}

func TestRun_StageOrdering(t *testing.T) {
	h := newHarness()
	cfg := config.Config{Namespace: "demo"}

	_, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	// Secrets must all be applied before the first manifest apply, and the
	// store wait must precede the services apply.
	lastSecret, firstApply, storeWait, servicesApply := -1, -1, -1, -1
	for i, call := range h.cluster.calls {
		if strings.HasPrefix(call, "apply-secret") {
			lastSecret = i
		}
		if strings.HasPrefix(call, "apply-objects") && firstApply == -1 {
			firstApply = i
		}
		if strings.HasPrefix(call, "wait demo app.kubernetes.io/instance=milvus") {
			storeWait = i
		}
		if call == "apply-objects demo (2)" {
			servicesApply = i
		}
	}
	require.GreaterOrEqual(t, lastSecret, 0)
	require.GreaterOrEqual(t, firstApply, 0)
	require.GreaterOrEqual(t, storeWait, 0)
	require.GreaterOrEqual(t, servicesApply, 0)
	assert.Less(t, lastSecret, firstApply, "all secrets before any manifest apply")
	assert.Less(t, storeWait, servicesApply, "store wait before services apply")
}

func TestRun_SecondRunConvergesWithoutChanges(t *testing.T) {
	h := newHarness()
	cfg := config.Config{Namespace: "demo"}

	_, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	writesAfterFirst := h.cluster.secretWrites
	require.Greater(t, writesAfterFirst, 0, "first run must materialize secrets")

	// Same mock cluster carries the materialized secrets into the re-run.
	h.cluster.calls = nil
	record, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, record.Degraded())

	// The second run re-checks every secret but writes none of them.
	assert.Equal(t, writesAfterFirst, h.cluster.secretWrites, "re-run must not rewrite any secret")
	secretUpserts := 0
	for _, call := range h.cluster.calls {
		if strings.HasPrefix(call, "apply-secret") {
			secretUpserts++
		}
	}
	assert.Equal(t, writesAfterFirst, secretUpserts, "every secret is still upserted on the re-run")

	// Store and overlay applies repeat as upserts rather than being elided.
	assert.Equal(t, []string{"demo/milvus", "demo/milvus"}, h.installer.calls)
	assert.Contains(t, h.cluster.calls, "apply-objects demo (2)")
	assert.Contains(t, h.cluster.calls, "apply-objects demo (1)")
}

func TestRun_SkipStore(t *testing.T) {
	h := newHarness()
	cfg := config.Config{Namespace: "demo", SkipMilvus: true}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, record.Stage(StageStore).Outcome)
	assert.Empty(t, h.installer.calls, "skipped store must never invoke the installer")
	assert.Equal(t, OutcomeReady, record.Stage(StageServices).Outcome)
	assert.Equal(t, OutcomeReady, record.Stage(StageGateway).Outcome)
}

func TestRun_SecretsAlwaysPrecedeServices(t *testing.T) {
	// For every skip combination, the services stage must not start before
	// the secrets stage completed.
	for _, skips := range []struct{ milvus, services, mcp bool }{
		{false, false, false},
		{true, false, false},
		{false, false, true},
		{true, false, true},
	} {
		t.Run(fmt.Sprintf("milvus=%v services=%v mcp=%v", skips.milvus, skips.services, skips.mcp), func(t *testing.T) {
			h := newHarness()
			cfg := config.Config{
				Namespace:    "demo",
				SkipMilvus:   skips.milvus,
				SkipServices: skips.services,
				SkipMCP:      skips.mcp,
			}

			record, err := h.orchestrator(cfg).Run(context.Background())
			require.NoError(t, err)
			assert.Contains(t, []Outcome{OutcomeReady, OutcomeDegraded}, record.Stage(StageSecrets).Outcome)

			lastSecret, firstApply := -1, -1
			for i, call := range h.cluster.calls {
				if strings.HasPrefix(call, "apply-secret") {
					lastSecret = i
				}
				if firstApply == -1 && strings.HasPrefix(call, "apply-objects") {
					firstApply = i
				}
			}
			require.GreaterOrEqual(t, lastSecret, 0)
			if firstApply != -1 {
				assert.Less(t, lastSecret, firstApply)
			}
		})
	}
}

func TestRun_MissingCredentialHaltsBeforeAnyMutation(t *testing.T) {
	h := newHarness()
	h.env = map[string]string{} // no OPENAI_API_KEY, no overrides
	cfg := config.Config{Namespace: "demo"}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrMissingCredential)

	assert.Equal(t, OutcomeReady, record.Stage(StageContext).Outcome)
	assert.Equal(t, OutcomeFailed, record.Stage(StageSecrets).Outcome)
	assert.Equal(t, OutcomePending, record.Stage(StageStore).Outcome)

	for _, call := range h.cluster.calls {
		assert.False(t, strings.HasPrefix(call, "apply-"), "no mutation expected, got %s", call)
	}
	assert.Empty(t, h.installer.calls)
}

func TestRun_NamespaceMissingIsFatal(t *testing.T) {
	h := newHarness()
	cfg := config.Config{Namespace: "nonexistent"}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, kube.ErrNamespaceNotFound)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Equal(t, OutcomeFailed, record.Stage(StageContext).Outcome)
	assert.Equal(t, OutcomePending, record.Stage(StageSecrets).Outcome)
}

func TestRun_AccessDeniedIsFatal(t *testing.T) {
	h := newHarness()
	h.cluster.allowed = false
	cfg := config.Config{Namespace: "demo"}

	_, err := h.orchestrator(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, kube.ErrAccessDenied)
}

func TestRun_AmbientNamespaceOverrides(t *testing.T) {
	h := newHarness()
	h.inCluster = func() (string, bool) { return "advanced-rag", true }
	cfg := config.Config{Namespace: "demo"}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "advanced-rag", record.Namespace)
	// In-cluster runs never probe namespace existence; the pod is proof.
	for _, call := range h.cluster.calls {
		assert.NotContains(t, call, "namespace-exists")
	}

	// Every mutation targets the resolved namespace, never the stale
	// operator-supplied one. The store release is the easy one to miss:
	// the installer learns the namespace per call, after resolution.
	assert.Equal(t, []string{"advanced-rag/milvus"}, h.installer.calls)
	for _, call := range h.cluster.calls {
		assert.NotContains(t, call, "demo", "mutation escaped the resolved namespace: %s", call)
	}
}

func TestRun_StoreTimeoutDegradesAndContinues(t *testing.T) {
	h := newHarness()
	h.cluster.waitFunc = func(namespace, selector string, timeout time.Duration) error {
		if strings.Contains(selector, "milvus") {
			return fmt.Errorf("not ready after %s: %w", timeout, kube.ErrReadinessTimeout)
		}
		return nil
	}
	cfg := config.Config{Namespace: "demo"}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err, "a tolerated timeout must not fail the run")

	assert.Equal(t, OutcomeDegraded, record.Stage(StageStore).Outcome)
	assert.True(t, record.Degraded())
	assert.Equal(t, OutcomeReady, record.Stage(StageServices).Outcome)
	assert.Equal(t, OutcomeReady, record.Stage(StageGateway).Outcome)
}

func TestRun_InstallerErrorIsFatalDespiteWarnCriticality(t *testing.T) {
	// Criticality only tolerates readiness timeouts; a synchronous action
	// failure always halts.
	h := newHarness()
	h.installer.err = fmt.Errorf("chart pull failed")
	cfg := config.Config{Namespace: "demo"}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, record.Stage(StageStore).Outcome)
	assert.Equal(t, OutcomePending, record.Stage(StageServices).Outcome)
	assert.Empty(t, h.renderer.calls)
}

func TestRun_RenderErrorIsFatal(t *testing.T) {
	h := newHarness()
	h.renderer.err = fmt.Errorf("malformed overlay")
	cfg := config.Config{Namespace: "demo", SkipMilvus: true}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, record.Stage(StageServices).Outcome)
	assert.Equal(t, OutcomePending, record.Stage(StageGateway).Outcome)
}

func TestRun_DryRunAppliesNothing(t *testing.T) {
	h := newHarness()
	cfg := config.Config{Namespace: "demo", DryRun: true}

	record, err := h.orchestrator(cfg).Run(context.Background())
	require.NoError(t, err)

	for _, name := range []StageName{StageContext, StageSecrets, StageStore, StageServices, StageGateway} {
		assert.Equal(t, OutcomeReady, record.Stage(name).Outcome, "stage %s", name)
	}
	for _, call := range h.cluster.calls {
		assert.False(t, strings.HasPrefix(call, "apply-"), "dry run must not mutate, got %s", call)
		assert.False(t, strings.HasPrefix(call, "wait"), "dry run must not wait, got %s", call)
	}
	assert.Empty(t, h.installer.calls)
	// Rendering still happens so overlay problems surface in dry runs.
	assert.Equal(t, []string{OverlayServices, OverlayMCP}, h.renderer.calls)
}

func TestExecute_FatalCriticalityTimeoutHalts(t *testing.T) {
	// The table currently marks every wait-bearing stage warn-tolerant, but
	// the sequencer must still honor fatal criticality when a table says so.
	h := newHarness()
	o := h.orchestrator(config.Config{Namespace: "demo"})

	timeoutErr := fmt.Errorf("wrapped: %w", kube.ErrReadinessTimeout)
	stages := []Stage{
		{Name: StageStore, Criticality: FatalOnFailure, Run: func(ctx context.Context) error { return timeoutErr }},
		{Name: StageServices, Criticality: WarnOnFailure, Run: func(ctx context.Context) error { return nil }},
	}

	record, err := o.execute(context.Background(), stages)
	require.Error(t, err)
	assert.ErrorIs(t, err, kube.ErrReadinessTimeout)
	assert.Equal(t, OutcomeFailed, record.Stage(StageStore).Outcome)
	assert.Equal(t, OutcomePending, record.Stage(StageServices).Outcome)
}

func TestClassifyReadiness(t *testing.T) {
	assert.Equal(t, ReadinessReady, classifyReadiness(nil))
	assert.Equal(t, ReadinessTimedOut, classifyReadiness(fmt.Errorf("x: %w", kube.ErrReadinessTimeout)))
	assert.Equal(t, ReadinessPreconditionFailed, classifyReadiness(fmt.Errorf("x: %w", ErrPreconditionFailed)))
	assert.Equal(t, ReadinessPreconditionFailed, classifyReadiness(fmt.Errorf("render exploded")))
}
