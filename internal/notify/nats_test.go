package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func TestConnectUnreachableIsNetworkError(t *testing.T) {
	// Port 1 is never a NATS server.
	_, err := Connect(context.Background(), "nats://127.0.0.1:1", "", nil)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}
