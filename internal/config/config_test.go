package config

import "testing"

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":  "postgres://localhost:5432/gehna",
		"REDIS_URL":     "redis://localhost:6379/0",
		"JWT_SECRET":    "test-secret",
		"ADMIN_API_KEY": "admin-key",
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error when DATABASE_URL missing")
	}
}

func TestLoadRequiresAdminKey(t *testing.T) {
	env := baseEnv()
	env["ADMIN_API_KEY"] = ""
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error when ADMIN_API_KEY missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CurrencyCode != "INR" {
		t.Fatalf("expected INR default, got %s", cfg.CurrencyCode)
	}
	if cfg.CouponPerCustomerDefault != 1 {
		t.Fatalf("expected per-customer default 1, got %d", cfg.CouponPerCustomerDefault)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected addr %s", cfg.HTTPAddr())
	}
}
