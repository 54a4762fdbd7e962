// Package helm manages the packaged releases the pipeline provisions, via
// the Helm SDK rather than a shelled-out binary. Install-if-absent /
// upgrade-if-present keeps re-runs idempotent by construction.
package helm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/storage/driver"

	"ragctl/pkg/logging"
)

// Installer drives install/upgrade actions. It holds only cluster selection;
// the target namespace is bound per call, because the effective namespace is
// not known until the pipeline's context stage has resolved it.
type Installer struct {
	kubeconfig  string
	kubeContext string
	timeout     time.Duration
}

// NewInstaller builds an Installer for the selected cluster.
func NewInstaller(kubeconfig, kubeContext string, timeout time.Duration) *Installer {
	return &Installer{
		kubeconfig:  kubeconfig,
		kubeContext: kubeContext,
		timeout:     timeout,
	}
}

// configFor binds an action configuration to the namespace. Release state is
// stored in secrets in that same namespace, the Helm default.
func (i *Installer) configFor(namespace string) (*cli.EnvSettings, *action.Configuration, error) {
	settings := cli.New()
	if i.kubeconfig != "" {
		settings.KubeConfig = i.kubeconfig
	}
	if i.kubeContext != "" {
		settings.KubeContext = i.kubeContext
	}
	settings.SetNamespace(namespace)

	actionConfig := new(action.Configuration)
	err := actionConfig.Init(settings.RESTClientGetter(), namespace, "secret", func(format string, v ...interface{}) {
		logging.Debug("Helm", format, v...)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Helm action config: %w", err)
	}
	return settings, actionConfig, nil
}

// InstallOrUpgrade installs the release into the namespace if it does not
// exist yet and upgrades it in place otherwise. The chart is fetched from
// repoURL at the pinned version; values replace the chart defaults they name.
func (i *Installer) InstallOrUpgrade(ctx context.Context, namespace, release, chartRef, repoURL, version string, values map[string]interface{}) error {
	settings, actionConfig, err := i.configFor(namespace)
	if err != nil {
		return err
	}

	history := action.NewHistory(actionConfig)
	history.Max = 1
	_, err = history.Run(release)

	switch {
	case errors.Is(err, driver.ErrReleaseNotFound):
		return i.install(ctx, settings, actionConfig, namespace, release, chartRef, repoURL, version, values)
	case err != nil:
		return fmt.Errorf("failed to query history of release %q: %w", release, err)
	default:
		return i.upgrade(ctx, settings, actionConfig, namespace, release, chartRef, repoURL, version, values)
	}
}

func (i *Installer) install(ctx context.Context, settings *cli.EnvSettings, actionConfig *action.Configuration, namespace, release, chartRef, repoURL, version string, values map[string]interface{}) error {
	logging.Info("Helm", "Installing release %q into %q (chart %s@%s)", release, namespace, chartRef, version)

	install := action.NewInstall(actionConfig)
	install.ReleaseName = release
	install.Namespace = namespace
	install.Timeout = i.timeout
	install.RepoURL = repoURL
	install.Version = version

	chartPath, err := install.ChartPathOptions.LocateChart(chartRef, settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart %q: %w", chartRef, err)
	}
	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart %q: %w", chartPath, err)
	}

	if _, err := install.RunWithContext(ctx, chart, values); err != nil {
		return fmt.Errorf("failed to install release %q: %w", release, err)
	}
	return nil
}

func (i *Installer) upgrade(ctx context.Context, settings *cli.EnvSettings, actionConfig *action.Configuration, namespace, release, chartRef, repoURL, version string, values map[string]interface{}) error {
	logging.Info("Helm", "Release %q already present in %q, upgrading (chart %s@%s)", release, namespace, chartRef, version)

	upgrade := action.NewUpgrade(actionConfig)
	upgrade.Namespace = namespace
	upgrade.Timeout = i.timeout
	upgrade.RepoURL = repoURL
	upgrade.Version = version

	chartPath, err := upgrade.ChartPathOptions.LocateChart(chartRef, settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart %q: %w", chartRef, err)
	}
	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart %q: %w", chartPath, err)
	}

	if _, err := upgrade.RunWithContext(ctx, release, chart, values); err != nil {
		return fmt.Errorf("failed to upgrade release %q: %w", release, err)
	}
	return nil
}
