package config

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{
			name: "valid config",
			envs: map[string]string{
				"BLOG_API_KEY": "a-perfectly-adequate-key",
			},
		},
		{
			name: "empty api key",
			envs: map[string]string{
				"BLOG_API_KEY": "",
			},
			wantErr: "BLOG_API_KEY",
		},
		{
			name: "api key too short",
			envs: map[string]string{
				"BLOG_API_KEY": "short",
			},
			wantErr: "at least",
		},
		{
			name: "weak default key rejected",
			envs: map[string]string{
				"BLOG_API_KEY": "REPLACE_WITH_YOUR_OWN_API_KEY",
			},
			wantErr: "known default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Load() succeeded, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Load(): %v", err)
			}
			if cfg.ServerPort != 7701 {
				t.Errorf("ServerPort = %d, want default 7701", cfg.ServerPort)
			}
			if cfg.SiteName != "The New Heretics" {
				t.Errorf("SiteName = %q, want default site name", cfg.SiteName)
			}
			if !cfg.IsDevelopment() {
				t.Error("IsDevelopment() = false, want true by default")
			}
			if cfg.ServerAddr() != "localhost:7701" {
				t.Errorf("ServerAddr() = %q, want localhost:7701", cfg.ServerAddr())
			}
		})
	}
}
