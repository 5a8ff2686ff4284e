package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(ProviderConfig{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = NewClient(ProviderConfig{Provider: ProviderTEI, ServiceURL: "http://localhost:8091", Dimension: 8, Cache: CacheConfig{Type: "memory", MaxSize: 10}})
	require.NoError(t, err)
	require.IsType(t, &BreakerClient{}, client)
	assert.Equal(t, 8, client.Dimension())

	_, err = NewClient(ProviderConfig{Provider: ProviderOpenAI, Dimension: 8})
	assert.Error(t, err)

	_, err = NewClient(ProviderConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
