package server

import (
	"context"
	"testing"

	"github.com/pixperk/padlock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func check(t *testing.T, s *Server, name string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: name})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func TestServingStatus(t *testing.T) {
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(types.Held))
	for _, st := range []types.State{types.Idle, types.Acquiring, types.Releasing} {
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(st), st.String())
	}
}

func TestTrack(t *testing.T) {
	s := NewServer(zaptest.NewLogger(t))

	got, err := check(t, s, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got, "process health")

	_, err = check(t, s, "jobs")
	assert.Equal(t, codes.NotFound, status.Code(err), "untracked lock")

	s.Track("jobs", types.Held)
	got, err = check(t, s, "jobs")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	s.Track("jobs", types.Idle)
	got, err = check(t, s, "jobs")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)
}

func TestStopMarksNotServing(t *testing.T) {
	s := NewServer(nil)
	s.Track("jobs", types.Held)
	s.Stop()

	got, err := check(t, s, "jobs")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)
}
