package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ragctl/internal/config"
	"ragctl/internal/helm"
	"ragctl/internal/kube"
	"ragctl/internal/orchestrator"
	"ragctl/internal/render"
	"ragctl/internal/reporting"
)

// helmTimeout bounds a single chart install or upgrade. Readiness is waited
// on separately, so this only needs to cover the release operation itself.
const helmTimeout = 10 * time.Minute

var (
	deployNamespace    string
	deployOverlayRoot  string
	deployKubeconfig   string
	deployContext      string
	deployMilvusValues string
	deployDryRun       bool
)

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the advanced-rag platform into a namespace",
		Long: `Runs the full deployment pipeline: resolves the target namespace,
materializes credential secrets, installs or upgrades the milvus vector
store, applies the stateless services and finally the MCP gateway.

The target namespace comes from the NAMESPACE environment variable (or
--namespace), credentials from the OPENAI_API_KEY family of variables,
and individual stages can be suppressed with SKIP_MILVUS, SKIP_SERVICES
and SKIP_MCP set to "true".`,
		Args: cobra.NoArgs,
		RunE: runDeploy,
	}

	cmd.Flags().StringVarP(&deployNamespace, "namespace", "n", "", "Target namespace (overrides NAMESPACE)")
	cmd.Flags().StringVar(&deployOverlayRoot, "overlay-root", "deploy/overlays", "Directory containing the kustomize overlays")
	cmd.Flags().StringVar(&deployKubeconfig, "kubeconfig", "", "Path to the kubeconfig file (default: standard resolution)")
	cmd.Flags().StringVar(&deployContext, "context", "", "Kubeconfig context to use")
	cmd.Flags().StringVar(&deployMilvusValues, "milvus-values", "", "YAML file with milvus chart value overrides")
	cmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Resolve, render and report without touching the cluster")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnvironment()
	if deployNamespace != "" {
		cfg.Namespace = deployNamespace
	}
	cfg.OverlayRoot = deployOverlayRoot
	cfg.Kubeconfig = deployKubeconfig
	cfg.KubeContext = deployContext
	cfg.MilvusValuesFile = deployMilvusValues
	cfg.DryRun = deployDryRun

	client, err := kube.NewClient(cfg.Kubeconfig, cfg.KubeContext)
	if err != nil {
		return fmt.Errorf("building cluster client: %w", err)
	}

	orch := orchestrator.New(&cfg, orchestrator.Deps{
		Cluster:   client,
		Renderer:  render.NewRenderer(cfg.OverlayRoot),
		Installer: helm.NewInstaller(cfg.Kubeconfig, cfg.KubeContext, helmTimeout),
	})

	record, runErr := orch.Run(cmd.Context())
	reporting.PrintRunRecord(cmd.OutOrStdout(), record)
	return runErr
}
