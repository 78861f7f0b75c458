package config

import "os"

type Config struct {
	Port            string
	PublicBaseURL   string
	EntitlementsURL string
	EntitlementsKey string
	AdminUser       string
	AdminPass       string
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.PublicBaseURL = getenv("PUBLIC_BASE_URL", "http://localhost:8080")
	c.EntitlementsURL = os.Getenv("ENTITLEMENTS_URL")
	c.EntitlementsKey = os.Getenv("ENTITLEMENTS_API_KEY")
	c.AdminUser = os.Getenv("ADMIN_USER")
	c.AdminPass = os.Getenv("ADMIN_PASS")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
