package token

import "testing"

func TestOrigin(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "explicit port",
			raw:  "https://hub.local:8080/api/v1",
			want: "https://hub.local:8080",
		},
		{
			name: "default https port",
			raw:  "https://hub.local",
			want: "https://hub.local:443",
		},
		{
			name: "default http port",
			raw:  "http://hub.local/some/path",
			want: "http://hub.local:80",
		},
		{
			name: "case insensitive host and scheme",
			raw:  "HTTPS://Hub.Local:8080",
			want: "https://hub.local:8080",
		},
		{
			name: "unknown scheme keeps no port",
			raw:  "custom://hub.local",
			want: "custom://hub.local",
		},
		{
			name:    "missing scheme",
			raw:     "hub.local:8080",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "relative path",
			raw:     "/api/v1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Origin(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Origin(%q) expected error, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Origin(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Origin(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "identical",
			a:    "https://hub.local:8080",
			b:    "https://hub.local:8080",
			want: true,
		},
		{
			name: "default port normalised",
			a:    "https://hub.local",
			b:    "https://hub.local:443",
			want: true,
		},
		{
			name: "paths ignored",
			a:    "https://hub.local:8080/api/v1",
			b:    "https://hub.local:8080/other",
			want: true,
		},
		{
			name: "different port",
			a:    "https://hub.local:8080",
			b:    "https://hub.local:8081",
			want: false,
		},
		{
			name: "different scheme",
			a:    "http://hub.local",
			b:    "https://hub.local",
			want: false,
		},
		{
			name: "different host",
			a:    "https://hub-a.local",
			b:    "https://hub-b.local",
			want: false,
		},
		{
			name: "unparseable never matches",
			a:    "not a url",
			b:    "not a url",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameOrigin(tt.a, tt.b); got != tt.want {
				t.Errorf("SameOrigin(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
