package orchestrator

import (
	"context"
	"time"

	"ragctl/internal/credentials"
	"ragctl/internal/helm"
	"ragctl/internal/kube"
	"ragctl/pkg/logging"
)

// runSecrets resolves credentials and materializes one secret per downstream
// service. Resolution happens first, so an exhausted fallback chain fails
// the run before a single secret is written.
func (o *Orchestrator) runSecrets(ctx context.Context) error {
	resolved, err := credentials.Resolve(o.deps.LookupEnv)
	if err != nil {
		return err
	}
	payloads := credentials.Payloads(resolved)

	if o.cfg.DryRun {
		logging.Info("Secrets", "Dry run: would materialize %d service secrets", len(payloads))
		return nil
	}

	for _, p := range payloads {
		changed, err := o.deps.Cluster.ApplySecret(ctx, o.namespace, p.SecretName, p.Data)
		if err != nil {
			return err
		}
		if changed {
			logging.Info("Secrets", "Materialized secret %s for %s", p.SecretName, p.Service)
		} else {
			logging.Info("Secrets", "Secret %s already up to date", p.SecretName)
		}
	}
	return nil
}

// runStore provisions the milvus release and waits for the stateful fleet.
func (o *Orchestrator) runStore(ctx context.Context) error {
	values, err := helm.MilvusValues(o.cfg.MilvusValuesFile)
	if err != nil {
		return err
	}

	if o.cfg.DryRun {
		logging.Info("Store", "Dry run: would install/upgrade release %q", helm.MilvusReleaseName)
		return nil
	}

	err = o.deps.Installer.InstallOrUpgrade(ctx, o.namespace,
		helm.MilvusReleaseName, helm.MilvusChartRef, helm.MilvusRepoURL, helm.MilvusChartVersion, values)
	if err != nil {
		return err
	}

	return o.deps.Cluster.WaitForWorkloads(ctx, o.namespace, helm.MilvusSelector, storeReadinessDeadline)
}

// runServices applies the stateless service overlay, one descriptor at a
// time via the applier, then waits on the platform selector.
func (o *Orchestrator) runServices(ctx context.Context) error {
	return o.applyOverlay(ctx, OverlayServices, kube.PlatformSelector, servicesReadinessDeadline)
}

// runGateway applies the MCP gateway overlay.
func (o *Orchestrator) runGateway(ctx context.Context) error {
	return o.applyOverlay(ctx, OverlayMCP, gatewaySelector, gatewayReadinessDeadline)
}

func (o *Orchestrator) applyOverlay(ctx context.Context, overlay, selector string, deadline time.Duration) error {
	objs, err := o.deps.Renderer.Render(overlay)
	if err != nil {
		return err
	}
	logging.Info("Apply", "Overlay %q rendered %d objects", overlay, len(objs))

	if o.cfg.DryRun {
		logging.Info("Apply", "Dry run: would apply overlay %q", overlay)
		return nil
	}

	if err := o.deps.Cluster.ApplyObjects(ctx, o.namespace, objs); err != nil {
		return err
	}
	return o.deps.Cluster.WaitForWorkloads(ctx, o.namespace, selector, deadline)
}
