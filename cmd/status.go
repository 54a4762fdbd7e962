package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragctl/internal/config"
	"ragctl/internal/helm"
	"ragctl/internal/kube"
	"ragctl/internal/reporting"
)

var (
	statusNamespace  string
	statusKubeconfig string
	statusContext    string
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the readiness of the deployed platform workloads",
		Long: `Lists the platform's Deployments and StatefulSets in the target
namespace together with their ready and desired replica counts. This
covers both the labelled platform workloads and the milvus release.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	cmd.Flags().StringVarP(&statusNamespace, "namespace", "n", "", "Target namespace (overrides NAMESPACE)")
	cmd.Flags().StringVar(&statusKubeconfig, "kubeconfig", "", "Path to the kubeconfig file (default: standard resolution)")
	cmd.Flags().StringVar(&statusContext, "context", "", "Kubeconfig context to use")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnvironment()
	if statusNamespace != "" {
		cfg.Namespace = statusNamespace
	}

	namespace := cfg.Namespace
	if ambient, ok := kube.InClusterNamespace(); ok {
		namespace = ambient
	}

	client, err := kube.NewClient(statusKubeconfig, statusContext)
	if err != nil {
		return fmt.Errorf("building cluster client: %w", err)
	}

	ctx := cmd.Context()

	// The milvus chart labels its workloads by release instance, not with
	// the platform label, so both selectors are needed for a full picture.
	workloads, err := client.ListWorkloads(ctx, namespace, kube.PlatformSelector)
	if err != nil {
		return fmt.Errorf("listing platform workloads: %w", err)
	}
	store, err := client.ListWorkloads(ctx, namespace, helm.MilvusSelector)
	if err != nil {
		return fmt.Errorf("listing store workloads: %w", err)
	}
	workloads = append(workloads, store...)

	reporting.PrintWorkloads(cmd.OutOrStdout(), namespace, workloads)
	return nil
}
