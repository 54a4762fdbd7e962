// Package credentials resolves the API credentials consumed by the
// advanced-rag services from a layered set of environment inputs.
//
// Each logical role (embedding, llm, rerank) has its own fallback chain of
// candidate variables; the first non-empty candidate wins. The API key and
// base URL axes resolve independently, so a deployment can pin a custom
// base URL for one role while inheriting the universal default key.
package credentials

import (
	"errors"
	"fmt"
)

// Role is a logical consumer category for credentials, decoupled from any
// single downstream service.
type Role string

const (
	RoleEmbedding Role = "embedding"
	RoleLLM       Role = "llm"
	RoleRerank    Role = "rerank"
)

// Environment inputs recognized by the resolver.
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"

	EnvEmbeddingAPIKey  = "EMBEDDING_API_KEY"
	EnvEmbeddingBaseURL = "EMBEDDING_BASE_URL"
	EnvLLMAPIKey        = "LLM_API_KEY"
	EnvLLMBaseURL       = "LLM_BASE_URL"
	EnvRerankAPIKey     = "RERANK_API_KEY"
	EnvRerankBaseURL    = "RERANK_BASE_URL"

	// EnvCohereAPIKey is the legacy rerank-only override, kept for
	// deployments that predate the role-specific variables.
	EnvCohereAPIKey = "COHERE_API_KEY"
)

// ErrMissingCredential is returned when a role's API key fallback chain is
// exhausted without producing a non-empty value.
var ErrMissingCredential = errors.New("missing credential")

// Credential is the resolved key material for one role. APIKey is never
// empty after a successful resolution; an empty BaseURL means the provider
// default applies and the override key is omitted from secret payloads.
type Credential struct {
	APIKey  string
	BaseURL string
}

// LookupFunc reads one named environment input. Missing and empty are
// equivalent for resolution purposes.
type LookupFunc func(name string) string

// apiKeyChains lists the API key candidates per role, highest precedence
// first. The rerank chain carries the legacy COHERE_API_KEY tier between the
// role-specific override and the universal default.
var apiKeyChains = map[Role][]string{
	RoleEmbedding: {EnvEmbeddingAPIKey, EnvOpenAIAPIKey},
	RoleLLM:       {EnvLLMAPIKey, EnvOpenAIAPIKey},
	RoleRerank:    {EnvRerankAPIKey, EnvCohereAPIKey, EnvOpenAIAPIKey},
}

// baseURLChains lists the base URL candidates per role. Unlike API keys,
// exhausting a URL chain is legitimate: it means "use the provider default".
var baseURLChains = map[Role][]string{
	RoleEmbedding: {EnvEmbeddingBaseURL, EnvOpenAIBaseURL},
	RoleLLM:       {EnvLLMBaseURL, EnvOpenAIBaseURL},
	RoleRerank:    {EnvRerankBaseURL, EnvOpenAIBaseURL},
}

// Roles returns all roles in a stable order.
func Roles() []Role {
	return []Role{RoleEmbedding, RoleLLM, RoleRerank}
}

// Resolve walks every role's fallback chains and returns the effective
// credential per role. It fails with ErrMissingCredential on the first role
// whose API key chain comes up empty; a role with no usable key must never
// silently proceed to the secrets stage.
func Resolve(lookup LookupFunc) (map[Role]Credential, error) {
	resolved := make(map[Role]Credential, len(apiKeyChains))
	for _, role := range Roles() {
		key := firstNonEmpty(lookup, apiKeyChains[role])
		if key == "" {
			return nil, fmt.Errorf("%w: no value for role %q (checked %v)",
				ErrMissingCredential, role, apiKeyChains[role])
		}
		resolved[role] = Credential{
			APIKey:  key,
			BaseURL: firstNonEmpty(lookup, baseURLChains[role]),
		}
	}
	return resolved, nil
}

func firstNonEmpty(lookup LookupFunc, candidates []string) string {
	for _, name := range candidates {
		if v := lookup(name); v != "" {
			return v
		}
	}
	return ""
}
