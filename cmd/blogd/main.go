// blogd runs the blogging platform HTTP server. All configuration comes from
// environment variables, read once at startup.
package main

import (
	"log"
	"os"

	blog "github.com/EmersonGarrido/blog-emersongarrido.com.br-sub000"
)

func main() {
	cfg := blog.SiteConfig{
		Name:        blog.EnvOr("SITE_NAME", "Blog"),
		URL:         blog.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: os.Getenv("SITE_DESCRIPTION"),
		Author:      os.Getenv("SITE_AUTHOR"),

		Addr:         blog.EnvOr("ADDR", ":3000"),
		DatabasePath: blog.EnvOr("DATABASE_PATH", "data/blog.db"),

		AnalyticsDatabasePath: blog.EnvOr("ANALYTICS_DATABASE_PATH", "data/analytics.db"),
		GeoLookupURL:          os.Getenv("GEO_LOOKUP_URL"),

		AdminPassword: blog.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: blog.MustEnv("SESSION_SECRET"),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",
	}

	app := blog.New(cfg, blog.ViewFuncs{})
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
