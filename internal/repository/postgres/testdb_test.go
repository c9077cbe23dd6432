// internal/repository/postgres/testdb_test.go
package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"crmsync-service/internal/db"
	"crmsync-service/internal/migration"
)

// One container per package run; each test truncates the tables it uses.
var (
	sharedMu  sync.Mutex
	sharedDSN string
)

func migrationsPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	path, err := filepath.Abs(filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations"))
	require.NoError(t, err)
	return path
}

func startPostgres(t *testing.T) string {
	t.Helper()

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedDSN != "" {
		return sharedDSN
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("nopcommerce_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, migrationsPath(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, uint(2), version)
	require.False(t, dirty)

	sharedDSN = dsn
	return dsn
}

// newTestPool connects to the shared container and empties every table.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: startPostgres(t), MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE salesforce_sync_log, salesforce_external_ids, order_items, orders,
		         product_specification_attributes, products, customer_addresses,
		         customers, addresses
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
	return pool
}

const contactXML = `<Attributes><CustomerAttribute ID="1"><CustomerAttributeValue><Value>CON12345</Value></CustomerAttributeValue></CustomerAttribute></Attributes>`

// seedStore inserts one customer with two addresses, two products and one order.
func seedStore(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	statements := []string{
		`INSERT INTO addresses (id, first_name, last_name, email, address1, city, country, custom_attributes)
		 VALUES (1, 'Ravi', 'Kumar', 'ravi@example.com', '12 MG Road', 'Pune', 'India', 'Save as: Home'),
		        (2, 'Ravi', 'Kumar', '', '1 Marine Drive', 'Mumbai', 'India', '')`,
		`INSERT INTO customers (id, first_name, last_name, email, phone, gender, custom_attributes_xml, billing_address_id)
		 VALUES (1, NULL, NULL, 'ravi@example.com', NULL, 'M', '` + contactXML + `', 2)`,
		`INSERT INTO customer_addresses (customer_id, address_id) VALUES (1, 2), (1, 1)`,
		`INSERT INTO products (id, sku, name) VALUES (10, 'SKU-10', 'Assam Tea'), (11, 'SKU-11', 'Filter Coffee')`,
		`INSERT INTO product_specification_attributes (product_id, name, attribute_values, display_order)
		 VALUES (10, 'Weight', '{"250 grams"}', 1),
		        (10, 'Color', '{}', 0),
		        (11, 'Weight', '{"1000g","2kg"}', 0)`,
		`INSERT INTO orders (id, customer_id, billing_address_id, order_subtotal_excl_tax, order_total,
		                     customer_currency_code, payment_transaction_id)
		 VALUES (100, 1, 1, 120.5, 130, 'INR', 'txn-1')`,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price_excl_tax, price_excl_tax)
		 VALUES (100, 10, 2, 50.25, 100.5), (100, 11, 1, 20, 20)`,
	}

	for _, stmt := range statements {
		_, err := pool.Exec(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}
}
