package kube

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"

	"ragctl/pkg/logging"
)

// readinessPollInterval is how often workload status is re-read during a
// bounded wait. Coarse on purpose; overridable in tests.
var readinessPollInterval = 5 * time.Second

// WorkloadStatus is one deployment or statefulset row for the status
// snapshot.
type WorkloadStatus struct {
	Kind    string
	Name    string
	Ready   int32
	Desired int32
}

// IsReady reports whether every desired replica is ready.
func (w WorkloadStatus) IsReady() bool {
	return w.Desired > 0 && w.Ready >= w.Desired
}

// ListWorkloads returns the deployments and statefulsets matching the label
// selector, in API order.
func (c *Client) ListWorkloads(ctx context.Context, namespace, selector string) ([]WorkloadStatus, error) {
	opts := metav1.ListOptions{LabelSelector: selector}

	var workloads []WorkloadStatus

	deployments, err := c.clientset.AppsV1().Deployments(namespace).List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments in %q: %w", namespace, err)
	}
	for _, d := range deployments.Items {
		workloads = append(workloads, WorkloadStatus{
			Kind:    "Deployment",
			Name:    d.Name,
			Ready:   d.Status.ReadyReplicas,
			Desired: deploymentDesired(&d),
		})
	}

	statefulsets, err := c.clientset.AppsV1().StatefulSets(namespace).List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list statefulsets in %q: %w", namespace, err)
	}
	for _, s := range statefulsets.Items {
		workloads = append(workloads, WorkloadStatus{
			Kind:    "StatefulSet",
			Name:    s.Name,
			Ready:   s.Status.ReadyReplicas,
			Desired: statefulsetDesired(&s),
		})
	}

	return workloads, nil
}

// WaitForWorkloads polls the workloads matching the selector until every one
// of them is ready or the deadline elapses. Elapsing yields a wrapped
// ErrReadinessTimeout; API failures abort the wait with the underlying
// error. Zero matching workloads counts as not ready: manifests just applied
// may not have materialized controllers yet.
func (c *Client) WaitForWorkloads(ctx context.Context, namespace, selector string, timeout time.Duration) error {
	condition := func(ctx context.Context) (bool, error) {
		workloads, err := c.ListWorkloads(ctx, namespace, selector)
		if err != nil {
			return false, err
		}
		if len(workloads) == 0 {
			return false, nil
		}
		for _, w := range workloads {
			if !w.IsReady() {
				logging.Debug("Kube", "Waiting on %s %s (%d/%d ready)", w.Kind, w.Name, w.Ready, w.Desired)
				return false, nil
			}
		}
		return true, nil
	}

	err := wait.PollUntilContextTimeout(ctx, readinessPollInterval, timeout, true, condition)
	if err == nil {
		return nil
	}
	if wait.Interrupted(err) {
		return fmt.Errorf("workloads matching %q in %q not ready after %s: %w",
			selector, namespace, timeout, ErrReadinessTimeout)
	}
	return err
}

func deploymentDesired(d *appsv1.Deployment) int32 {
	if d.Spec.Replicas != nil {
		return *d.Spec.Replicas
	}
	return 1
}

func statefulsetDesired(s *appsv1.StatefulSet) int32 {
	if s.Spec.Replicas != nil {
		return *s.Spec.Replicas
	}
	return 1
}
