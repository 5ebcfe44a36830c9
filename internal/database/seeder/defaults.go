package seeder

import "resume-match/internal/config"

// Defaults returns the seeders enabled by cfg.
func Defaults(cfg config.SeedConfig) []Seeder {
	var out []Seeder
	if cfg.DemoUser {
		out = append(out, DemoUserSeeder{
			Username: cfg.DemoUsername,
			Email:    cfg.DemoEmail,
			Password: cfg.DemoPassword,
		})
	}
	return out
}
