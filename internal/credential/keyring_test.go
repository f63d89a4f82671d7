package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	if err := s.Set("gemini-api-key", "secret"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("gemini-api-key")
	if err != nil || got != "secret" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := s.Delete("gemini-api-key"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("gemini-api-key"); err == nil {
		t.Error("expected error after delete")
	}
}

func TestNames(t *testing.T) {
	tests := []struct{ provider, key, env string }{
		{"gemini", "gemini-api-key", "GOOGLE_API_KEY"},
		{"", "gemini-api-key", "GOOGLE_API_KEY"},
		{"Anthropic", "anthropic-api-key", "ANTHROPIC_API_KEY"},
	}
	for _, tt := range tests {
		if got := KeyName(tt.provider); got != tt.key {
			t.Errorf("KeyName(%q) = %q, want %q", tt.provider, got, tt.key)
		}
		if got := EnvVar(tt.provider); got != tt.env {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.provider, got, tt.env)
		}
	}
}

func TestAPIKey(t *testing.T) {
	ring := NewStore(keyring.NewArrayKeyring([]keyring.Item{
		{Key: "anthropic-api-key", Data: []byte("from-ring")},
	}))

	tests := []struct {
		name     string
		provider string
		env      map[string]string
		store    *Store
		want     string
		wantErr  bool
	}{
		{"env wins", "anthropic", map[string]string{"ANTHROPIC_API_KEY": "from-env"}, ring, "from-env", false},
		{"keyring fallback", "anthropic", nil, ring, "from-ring", false},
		{"default provider env", "", map[string]string{"GOOGLE_API_KEY": " g "}, nil, "g", false},
		{"missing", "gemini", nil, ring, "", true},
		{"missing without keyring", "gemini", nil, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := APIKey(tt.provider, env(tt.env), tt.store)
			if tt.wantErr {
				if !errors.Is(err, ErrNoAPIKey) {
					t.Errorf("err = %v, want ErrNoAPIKey", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("APIKey = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}
