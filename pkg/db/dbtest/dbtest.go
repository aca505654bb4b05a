// Package dbtest opens throwaway SQLite databases carrying the storefront
// schema for repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  price TEXT NOT NULL,
  discounted_price TEXT,
  on_sale INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  type TEXT NOT NULL,
  value TEXT NOT NULL,
  apply_to TEXT NOT NULL DEFAULT 'cart',
  product_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  expires_at DATETIME,
  max_uses INTEGER NOT NULL DEFAULT 0,
  used_count INTEGER NOT NULL DEFAULT 0,
  min_purchase TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_coupons_code ON coupons (UPPER(code));`,
	`CREATE TABLE shortlinks (
  id TEXT PRIMARY KEY,
  path TEXT NOT NULL,
  destination_url TEXT NOT NULL,
  title TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  domain_id TEXT,
  click_count INTEGER NOT NULL DEFAULT 0,
  last_clicked_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_shortlinks_path ON shortlinks (path);`,
	`CREATE TABLE blog_posts (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  published_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE projects (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE certificates (
  id TEXT PRIMARY KEY,
  credential_id TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  issuer TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  cart_session_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'placed',
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  notes TEXT,
  coupon_id TEXT,
  coupon_code TEXT,
  subtotal TEXT NOT NULL,
  discount TEXT NOT NULL,
  total TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  effective_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME
);`,
}

// Open returns an isolated in-memory database with every storefront table.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:storefront_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
