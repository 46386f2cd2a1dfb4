package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type backend struct {
	name      string
	available bool
	closed    bool
	closeErr  error
}

func (b *backend) Name() string                     { return b.name }
func (b *backend) IsAvailable(context.Context) bool { return b.available }
func (b *backend) Close(context.Context) error {
	b.closed = true
	return b.closeErr
}

func TestRegistry_SetGetNames(t *testing.T) {
	reg := NewRegistry[*backend]()
	if _, ok := reg.Get("remote_api"); ok {
		t.Error("expected an empty registry")
	}
	reg.Set("self_hosted", &backend{name: "self_hosted"})
	reg.Set("remote_api", &backend{name: "old"})
	reg.Set("remote_api", &backend{name: "remote_api"})

	if got, ok := reg.Get("remote_api"); !ok || got.Name() != "remote_api" {
		t.Errorf("expected the replacement, got %v", got)
	}
	if names := strings.Join(reg.Names(), ","); names != "remote_api,self_hosted" {
		t.Errorf("expected sorted names, got %s", names)
	}
}

func TestRegistry_FirstAvailable(t *testing.T) {
	reg := NewRegistry[*backend]()
	reg.Set("self_hosted", &backend{name: "self_hosted"})
	reg.Set("remote_api", &backend{name: "remote_api", available: true})
	reg.Set("local_model", &backend{name: "local_model"})

	tests := []struct {
		chain   []string
		want    string
		wantErr bool
	}{
		{[]string{"self_hosted", "remote_api"}, "remote_api", false},
		{[]string{"remote_api"}, "remote_api", false},
		{[]string{"local_model"}, "", true},
		{[]string{"carrier_pigeon", "remote_api"}, "remote_api", false},
		{nil, "", true},
	}
	for _, tc := range tests {
		got, err := reg.FirstAvailable(context.Background(), tc.chain...)
		if tc.wantErr {
			if !errors.Is(err, ErrNoProvider) {
				t.Errorf("%v: expected ErrNoProvider, got %v", tc.chain, err)
			}
			continue
		}
		if err != nil || got.Name() != tc.want {
			t.Errorf("%v: expected %s, got %v (err=%v)", tc.chain, tc.want, got, err)
		}
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := NewRegistry[*backend]()
	ok := &backend{name: "remote_api"}
	bad := &backend{name: "local_model", closeErr: errors.New("model busy")}
	reg.Set(ok.name, ok)
	reg.Set(bad.name, bad)

	err := reg.Close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "local_model: model busy") {
		t.Fatalf("expected named close error, got %v", err)
	}
	if !ok.closed || !bad.closed {
		t.Error("expected every provider closed")
	}
}
