package auth

import "os"

// envVars maps secret names to the variables the config loader also reads
var envVars = map[string]string{
	BingAPIKey:         "RASHSET_BING_KEY",
	RedditClientID:     "RASHSET_REDDIT_CLIENT_ID",
	RedditClientSecret: "RASHSET_REDDIT_CLIENT_SECRET",
	RedditUsername:     "RASHSET_REDDIT_USERNAME",
	RedditPassword:     "RASHSET_REDDIT_PASSWORD",
}

// EnvironmentStore is a read-only SecretStore over environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based secret store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Get reads the variable mapped to name
func (e *EnvironmentStore) Get(name string) (string, error) {
	key, ok := envVars[name]
	if !ok {
		return "", ErrUnknownSecret
	}
	v := os.Getenv(key)
	if v == "" {
		return "", ErrSecretNotFound
	}
	return v, nil
}

// Set is not supported for environment variables
func (e *EnvironmentStore) Set(name, value string) error {
	return ErrStoreUnavailable
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// EnvVar returns the environment variable that holds name
func EnvVar(name string) string {
	return envVars[name]
}
