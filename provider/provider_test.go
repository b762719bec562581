package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type testProvider struct {
	name      string
	available bool
}

func (p *testProvider) Name() string                         { return p.name }
func (p *testProvider) IsAvailable(ctx context.Context) bool { return p.available }

type testConfig struct {
	Name string
	Fail bool
}

func newTestRegistry() *Registry[*testProvider, testConfig] {
	reg := NewRegistry[*testProvider, testConfig]()
	reg.RegisterFactory("test", func(cfg testConfig) (*testProvider, error) {
		if cfg.Fail {
			return nil, errors.New("bad config")
		}
		return &testProvider{name: cfg.Name, available: true}, nil
	})
	return reg
}

func TestRegistry_Create(t *testing.T) {
	reg := newTestRegistry()

	p, err := reg.Create("test", testConfig{Name: "primary"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "primary" || !p.IsAvailable(context.Background()) {
		t.Errorf("unexpected provider %+v", p)
	}

	if _, err := reg.Create("test", testConfig{Fail: true}); err == nil {
		t.Error("expected factory error to propagate")
	}
}

func TestRegistry_CreateUnregistered(t *testing.T) {
	reg := newTestRegistry()
	_, err := reg.Create("missing", testConfig{})
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected 'not registered' error, got %v", err)
	}
	if !strings.Contains(err.Error(), "test") {
		t.Errorf("error should list known factories, got %q", err.Error())
	}
}

func TestRegistry_List(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterFactory("alpha", func(cfg testConfig) (*testProvider, error) { return &testProvider{}, nil })

	names := reg.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "test" {
		t.Errorf("expected sorted [alpha test], got %v", names)
	}
}
