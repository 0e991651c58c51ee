package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb/oxidbtest"
)

func TestPoolRoundRobin(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, err := oxidbtest.Start()
	require.NoError(t, err)
	defer srv.Close()

	p, err := NewPool(srv.Host(), srv.Port(), 3)
	require.NoError(t, err)
	defer p.Close()

	seen := map[any]bool{}
	for i := 0; i < 3; i++ {
		seen[p.Get()] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 3, p.Size())
	require.NoError(t, p.Ping())
}

func TestPoolReconnectsAfterDrop(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, err := oxidbtest.Start()
	require.NoError(t, err)
	defer srv.Close()

	p, err := NewPool(srv.Host(), srv.Port(), 2, WithKeepalive(20*time.Millisecond))
	require.NoError(t, err)
	defer p.Close()

	srv.DropConnections()

	require.Eventually(t, func() bool {
		return p.Ping() == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPoolConnectFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, err := oxidbtest.Start()
	require.NoError(t, err)
	host, port := srv.Host(), srv.Port()
	srv.Close()

	_, err = NewPool(host, port, 1)
	require.Error(t, err)
}

func TestPoolCloseTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv, err := oxidbtest.Start()
	require.NoError(t, err)
	defer srv.Close()

	p, err := NewPool(srv.Host(), srv.Port(), 1)
	require.NoError(t, err)
	p.Close()
	p.Close()
}
