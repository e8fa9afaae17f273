package page

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a browser started with --remote-debugging-port, e.g.
// CLUSTERTRACK_TEST_BROWSER=ws://127.0.0.1:9222/devtools/browser/<id>.
func TestLive_AgainstBrowser(t *testing.T) {
	controlURL := os.Getenv("CLUSTERTRACK_TEST_BROWSER")
	if controlURL == "" {
		t.Skip("CLUSTERTRACK_TEST_BROWSER not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	live, err := OpenLive(ctx, LiveOptions{ControlURL: controlURL, PageURL: "about:blank"})
	require.NoError(t, err)
	defer live.Close()

	cards, err := live.Cards(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)

	has, err := live.HasElement(ctx, "z2r2p6")
	require.NoError(t, err)
	assert.False(t, has)
}
