package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("valid url", func(t *testing.T) {
		client, err := NewClient("redis://localhost:6379/2")
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", client.Options().Addr)
		assert.Equal(t, 2, client.Options().DB)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := NewClient("not-a-redis-url")
		assert.Error(t, err)
	})
}
