package migrations_test

import (
	"testing"

	"billing-service/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrderedAndComplete(t *testing.T) {
	ms, err := migrations.Load()
	require.NoError(t, err)
	require.Len(t, ms, 3)

	for i, m := range ms {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.SQL)
	}
	assert.Equal(t, "documents", ms[0].Name)
	assert.Contains(t, ms[0].SQL, "PRIMARY KEY (user_id, id)")
	assert.Contains(t, ms[2].SQL, "audit_logs")
}
