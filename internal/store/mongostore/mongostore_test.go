package mongostore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/internal/store/storetest"
	"github.com/betbot/tradedesk/pkg/id"
)

// Runs against a live server only: TRADEDESK_TEST_MONGO_URL=mongodb://localhost:27017
func TestMongo(t *testing.T) {
	uri := os.Getenv("TRADEDESK_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TRADEDESK_TEST_MONGO_URL not set")
	}
	storetest.Run(t, func(t *testing.T) ports.Store {
		ctx := context.Background()
		dbName := "tradedesk_test_" + id.New()[:8]
		s, err := Open(ctx, uri, dbName)
		require.NoError(t, err)
		return &droppingStore{Store: s, database: dbName}
	})
}

// droppingStore removes the per-test database before disconnecting.
type droppingStore struct {
	*Store
	database string
}

func (d *droppingStore) Close() error {
	_ = d.client.Database(d.database).Drop(context.Background())
	return d.Store.Close()
}
