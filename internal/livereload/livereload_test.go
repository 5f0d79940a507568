package livereload_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/ngstatic/internal/livereload"
)

func TestPayload(t *testing.T) {
	t.Parallel()

	got, err := json.Marshal(livereload.Payload([]string{"index.html"}, nil))

	require.NoError(t, err)
	require.JSONEq(t, `{"files": ["index.html"], "failed": []}`, string(got))
}

func TestDial_InvalidURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "unparseable", url: "http://[::1", wantErr: "failed to parse"},
		{name: "bad scheme", url: "ftp://localhost:3000", wantErr: "unsupported live reload URL scheme"},
		{name: "no host", url: "http:///socket.io", wantErr: "has no host"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := livereload.Dial(context.Background(), livereload.Options{URL: tc.url})

			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDial_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := livereload.Dial(ctx, livereload.Options{
		URL:            "http://127.0.0.1:1",
		ConnectTimeout: 2 * time.Second,
	})

	require.Error(t, err)
}

func TestNotifier_ClosedIsNoop(t *testing.T) {
	t.Parallel()

	n := &livereload.Notifier{}
	n.Close()
	n.Rebuilt(context.Background(), []string{"a.html"}, nil)
	n.Close()
}
