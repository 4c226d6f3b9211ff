package service

import (
	"errors"
	"reflect"
	"testing"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"turnOn", "turn_on"},
		{"TurnOn", "turn_on"},
		{"turn_on", "turn_on"},
		{"light", "light"},
		{"HVACMode", "hvac_mode"},
		{"setHVACMode", "set_hvac_mode"},
		{"volume2Up", "volume2_up"},
		{"", ""},
		{"service:123", ""},
		{"turn-on", ""},
		{"turn on", ""},
	}

	for _, tt := range tests {
		if got := ToSnakeCase(tt.in); got != tt.want {
			t.Errorf("ToSnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    map[string]any
		wantErr bool
	}{
		{
			name: "nil target",
			in:   nil,
			want: nil,
		},
		{
			name: "single identifier",
			in:   "light.living_room",
			want: map[string]any{"entity_id": []string{"light.living_room"}},
		},
		{
			name: "identifier list",
			in:   []string{"light.a", "light.b"},
			want: map[string]any{"entity_id": []string{"light.a", "light.b"}},
		},
		{
			name: "structured target passes through",
			in:   map[string]any{"area_id": "kitchen"},
			want: map[string]any{"area_id": "kitchen"},
		},
		{
			name:    "unsupported type",
			in:      42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTarget(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTarget) {
					t.Fatalf("NormalizeTarget() error = %v, want ErrInvalidTarget", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTarget() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTarget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCall_Normalize(t *testing.T) {
	domain, svc, target, err := Call{
		Domain:  "climate",
		Service: "setHVACMode",
		Target:  "climate.hallway",
	}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if domain != "climate" || svc != "set_hvac_mode" {
		t.Errorf("Normalize() = (%q, %q), want (climate, set_hvac_mode)", domain, svc)
	}
	want := map[string]any{"entity_id": []string{"climate.hallway"}}
	if !reflect.DeepEqual(target, want) {
		t.Errorf("Normalize() target = %v, want %v", target, want)
	}
}

func TestCall_NormalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		call    Call
		wantErr error
	}{
		{
			name:    "empty domain",
			call:    Call{Domain: "", Service: "turnOn"},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "invalid domain characters",
			call:    Call{Domain: "light!", Service: "turnOn"},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "empty service",
			call:    Call{Domain: "light", Service: ""},
			wantErr: ErrInvalidService,
		},
		{
			name:    "invalid service characters",
			call:    Call{Domain: "light", Service: "service:123"},
			wantErr: ErrInvalidService,
		},
		{
			name:    "invalid target",
			call:    Call{Domain: "light", Service: "turnOn", Target: 3.14},
			wantErr: ErrInvalidTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := tt.call.Normalize(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
