package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromContextDefaultsToNoop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
	require.Same(t, NoopLogger(), FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))
}

func TestSanitizeRoute(t *testing.T) {
	require.Equal(t, "/", SanitizeRoute(""))
	require.Equal(t, "/api/contents/list", SanitizeRoute("/api/contents/list\n"))
}

func TestSanitizeEmail(t *testing.T) {
	require.Equal(t, "u***@example.com", SanitizeEmail("user@example.com"))
	require.Equal(t, "***", SanitizeEmail("nope"))
	require.Equal(t, "***", SanitizeEmail("@example.com"))
}
