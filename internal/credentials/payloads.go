package credentials

import "fmt"

// ServiceSecret is one downstream service's secret payload, ready for the
// secrets stage to materialize. Data holds only the keys the service
// actually reads; base URL keys are absent (not empty) when the role
// resolved to the provider default.
type ServiceSecret struct {
	// Service is the downstream workload the payload belongs to.
	Service string
	// SecretName is the name of the Secret object to materialize.
	SecretName string
	Data       map[string]string
}

// keyBinding maps one role's credential into the key names a service reads.
// KeyNames usually holds a single role-specific name; services that predate
// the role split also list the generic OPENAI_API_KEY name for
// compatibility.
type keyBinding struct {
	Role     Role
	KeyNames []string
	URLName  string
}

// serviceBindings enumerates the five downstream services and the exact
// secret keys each one expects. The set mirrors the workloads the ingestion
// pipeline talks to.
var serviceBindings = []struct {
	Service  string
	Bindings []keyBinding
}{
	{
		Service: "plan-service",
		Bindings: []keyBinding{
			{Role: RoleLLM, KeyNames: []string{EnvOpenAIAPIKey, EnvLLMAPIKey}, URLName: EnvLLMBaseURL},
		},
	},
	{
		Service: "chunker-service",
		Bindings: []keyBinding{
			{Role: RoleLLM, KeyNames: []string{EnvOpenAIAPIKey}, URLName: EnvOpenAIBaseURL},
		},
	},
	{
		Service: "vector-gateway",
		Bindings: []keyBinding{
			{Role: RoleEmbedding, KeyNames: []string{EnvOpenAIAPIKey, EnvEmbeddingAPIKey}, URLName: EnvEmbeddingBaseURL},
		},
	},
	{
		Service: "retrieval-service",
		Bindings: []keyBinding{
			{Role: RoleEmbedding, KeyNames: []string{EnvEmbeddingAPIKey}, URLName: EnvEmbeddingBaseURL},
			{Role: RoleRerank, KeyNames: []string{EnvRerankAPIKey, EnvCohereAPIKey}, URLName: EnvRerankBaseURL},
		},
	},
	{
		Service: "rag-mcp",
		Bindings: []keyBinding{
			{Role: RoleLLM, KeyNames: []string{EnvOpenAIAPIKey}, URLName: EnvOpenAIBaseURL},
		},
	},
}

// Payloads renders the per-service secret payloads from resolved role
// credentials. The returned order is stable so the secrets stage applies
// payloads deterministically.
func Payloads(resolved map[Role]Credential) []ServiceSecret {
	payloads := make([]ServiceSecret, 0, len(serviceBindings))
	for _, svc := range serviceBindings {
		data := make(map[string]string)
		for _, b := range svc.Bindings {
			cred := resolved[b.Role]
			for _, name := range b.KeyNames {
				data[name] = cred.APIKey
			}
			if cred.BaseURL != "" {
				data[b.URLName] = cred.BaseURL
			}
		}
		payloads = append(payloads, ServiceSecret{
			Service:    svc.Service,
			SecretName: fmt.Sprintf("%s-credentials", svc.Service),
			Data:       data,
		})
	}
	return payloads
}
