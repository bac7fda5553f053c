package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/tradedesk/pkg/config"
	"github.com/betbot/tradedesk/pkg/shutdown"
)

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "tradedesk dev")
}

func TestNewApp_MemoryStore(t *testing.T) {
	c := config.Default()
	c.Store.Driver = config.DriverMemory
	c.Auth.JWTSecret = "s"
	c.Auth.BcryptCost = 4
	require.NoError(t, c.Validate())

	sm := shutdown.NewManager()
	defer sm.Shutdown(context.Background())
	a, err := newApp(context.Background(), c, sm)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	n, err := a.bots.SeedDemo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
