package kube

import (
	"bytes"
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"

	"ragctl/pkg/logging"
)

// ApplySecret creates or updates an Opaque secret with the given string
// data. Submitting an identical payload twice is a no-op; the returned bool
// reports whether anything was actually written.
func (c *Client) ApplySecret(ctx context.Context, namespace, name string, data map[string]string) (bool, error) {
	desired := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				LabelPartOf:                    PlatformName,
				"app.kubernetes.io/managed-by": fieldManager,
			},
		},
		Type:       corev1.SecretTypeOpaque,
		StringData: data,
	}

	existing, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := c.clientset.CoreV1().Secrets(namespace).Create(ctx, desired, metav1.CreateOptions{}); err != nil {
			return false, fmt.Errorf("failed to create secret %s/%s: %w", namespace, name, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}

	if secretDataEqual(existing.Data, data) {
		logging.Debug("Kube", "Secret %s/%s unchanged, skipping update", namespace, name)
		return false, nil
	}

	if _, err := c.clientset.CoreV1().Secrets(namespace).Update(ctx, desired, metav1.UpdateOptions{}); err != nil {
		return false, fmt.Errorf("failed to update secret %s/%s: %w", namespace, name, err)
	}
	return true, nil
}

func secretDataEqual(existing map[string][]byte, desired map[string]string) bool {
	if len(existing) != len(desired) {
		return false
	}
	for k, v := range desired {
		if !bytes.Equal(existing[k], []byte(v)) {
			return false
		}
	}
	return true
}

// ApplyObjects upserts a rendered resource descriptor set via server-side
// apply. Every object must land in the given namespace; cluster-scoped
// objects and objects pinned to a different namespace are refused so a run
// can never mutate resources outside its resolved boundary.
func (c *Client) ApplyObjects(ctx context.Context, namespace string, objs []*unstructured.Unstructured) error {
	for _, obj := range objs {
		gvk := obj.GroupVersionKind()
		mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if err != nil {
			return fmt.Errorf("no REST mapping for %s: %w", gvk, err)
		}

		if mapping.Scope.Name() != meta.RESTScopeNameNamespace {
			return fmt.Errorf("refusing to apply cluster-scoped %s %q", gvk.Kind, obj.GetName())
		}
		if obj.GetNamespace() == "" {
			obj.SetNamespace(namespace)
		}
		if obj.GetNamespace() != namespace {
			return fmt.Errorf("refusing to apply %s %q into namespace %q (run is bound to %q)",
				gvk.Kind, obj.GetName(), obj.GetNamespace(), namespace)
		}

		ri := c.dynamic.Resource(mapping.Resource).Namespace(obj.GetNamespace())
		if err := c.applyOne(ctx, ri, obj); err != nil {
			return fmt.Errorf("failed to apply %s %s/%s: %w", gvk.Kind, obj.GetNamespace(), obj.GetName(), err)
		}
		logging.Debug("Kube", "Applied %s %s/%s", gvk.Kind, obj.GetNamespace(), obj.GetName())
	}
	return nil
}

func (c *Client) applyOne(ctx context.Context, ri dynamic.ResourceInterface, obj *unstructured.Unstructured) error {
	_, err := ri.Apply(ctx, obj.GetName(), obj, metav1.ApplyOptions{
		FieldManager: fieldManager,
		Force:        true,
	})
	return err
}
