package main

import (
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{"defaults", nil, options{timeout: 120 * time.Second}, false},
		{"seed", []string{"--seed-rooms", "rooms.yaml", "--timeout=30s"}, options{seedRooms: "rooms.yaml", timeout: 30 * time.Second}, false},
		{"seed only", []string{"--seed-rooms=rooms.yaml", "--skip-schema"}, options{seedRooms: "rooms.yaml", skipSchema: true, timeout: 120 * time.Second}, false},
		{"nothing to do", []string{"--skip-schema"}, options{}, true},
		{"unknown flag", []string{"--drop-everything"}, options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
