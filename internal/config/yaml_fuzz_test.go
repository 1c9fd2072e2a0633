package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func FuzzConfigParse(f *testing.F) {
	f.Add([]byte("server:\n  url: http://localhost:9000\n"))
	f.Add([]byte(""))
	f.Add([]byte("---"))
	f.Add([]byte("ai:\n  token_budget: 30000\n  safety_margin: 0.9\n"))
	f.Add([]byte("{invalid"))

	f.Fuzz(func(t *testing.T, data []byte) {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return
		}
		// Round-trip: if parse succeeded, marshal should not panic.
		yaml.Marshal(&cfg) //nolint:errcheck,gosec // fuzz: testing crash-freedom
	})
}
