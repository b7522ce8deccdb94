package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

func TestValidateMalformedConnectionString(t *testing.T) {
	connector := NewPgxConnector(2 * time.Second)

	err := connector.Validate(context.Background(), "not a connection string")
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeConnection, utils.CodeOf(err))
}

func TestInsertTransactionMalformedConnectionString(t *testing.T) {
	connector := NewPgxConnector(2 * time.Second)

	err := connector.InsertTransaction(context.Background(), "://", "desc", "addr")
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeConnection, utils.CodeOf(err))
}

func TestNewPgxConnectorDefaultTimeout(t *testing.T) {
	connector := NewPgxConnector(0)
	assert.Equal(t, 10*time.Second, connector.connectTimeout)
}
