package helm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Milvus release coordinates. The chart version is pinned so re-runs are
// reproducible; bumping it is a deliberate change, not a side effect of a
// repo update.
const (
	MilvusReleaseName  = "milvus"
	MilvusChartRef     = "milvus"
	MilvusRepoURL      = "https://zilliztech.github.io/milvus-helm/"
	MilvusChartVersion = "4.2.8"

	// MilvusSelector matches the workloads the milvus chart creates.
	MilvusSelector = "app.kubernetes.io/instance=" + MilvusReleaseName
)

// DefaultMilvusValues returns the value overrides for a single-tenant
// standalone milvus suitable for the platform namespace. Cluster mode with
// its pulsar/kafka fleet is deliberately not enabled here.
func DefaultMilvusValues() map[string]interface{} {
	return map[string]interface{}{
		"cluster": map[string]interface{}{
			"enabled": false,
		},
		"standalone": map[string]interface{}{
			"persistence": map[string]interface{}{
				"enabled": true,
			},
		},
		"etcd": map[string]interface{}{
			"replicaCount": 1,
		},
		"minio": map[string]interface{}{
			"mode": "standalone",
		},
		"pulsarv3": map[string]interface{}{
			"enabled": false,
		},
	}
}

// MilvusValues merges the defaults with an optional operator-supplied YAML
// values file. File values win key by key; nested maps are merged rather
// than replaced wholesale.
func MilvusValues(valuesFile string) (map[string]interface{}, error) {
	values := DefaultMilvusValues()
	if valuesFile == "" {
		return values, nil
	}

	data, err := os.ReadFile(valuesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file %q: %w", valuesFile, err)
	}
	var overrides map[string]interface{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse values file %q: %w", valuesFile, err)
	}

	return mergeValues(values, overrides), nil
}

func mergeValues(base, overrides map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		overrideMap, overrideIsMap := v.(map[string]interface{})
		baseMap, baseIsMap := merged[k].(map[string]interface{})
		if overrideIsMap && baseIsMap {
			merged[k] = mergeValues(baseMap, overrideMap)
			continue
		}
		merged[k] = v
	}
	return merged
}
