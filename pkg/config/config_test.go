package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gastrodon/pkg/cache"
	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
)

const sample = `
default_endpoint = "dbpedia"

[prefixes]
foaf = "http://xmlns.com/foaf/0.1/"

[endpoints.dbpedia]
url = "https://dbpedia.org/sparql"
default_graph = "http://dbpedia.org"
base_uri = "http://dbpedia.org/resource/"
timeout = "30s"

[endpoints.dbpedia.prefixes]
dbo = "http://dbpedia.org/ontology/"

[endpoints.private]
url = "https://example.com/sparql"
auth = "basic"
user = "me"
password = "secret"

[cache]
backend = "redis"
ttl = "24h"
redis_addr = "localhost:6379"
redis_db = 2
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if diff := cmp.Diff([]string{"dbpedia", "private"}, cfg.EndpointNames()); diff != "" {
		t.Errorf("EndpointNames() mismatch (-want +got):\n%s", diff)
	}

	e, err := cfg.Endpoint("")
	if err != nil {
		t.Fatalf("Endpoint(default) error = %v", err)
	}
	if e.URL != "https://dbpedia.org/sparql" || e.DefaultGraph != "http://dbpedia.org" || e.Timeout.Duration != 30*time.Second {
		t.Errorf("Endpoint(default) = %+v", e)
	}

	want := cache.Config{Backend: "redis", TTL: 24 * time.Hour, RedisAddr: "localhost:6379", RedisDB: 2}
	if diff := cmp.Diff(want, cfg.Cache.Options()); diff != "" {
		t.Errorf("Cache.Options() mismatch (-want +got):\n%s", diff)
	}
}

func TestNamespaces(t *testing.T) {
	cfg, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, _ := cfg.Endpoint("dbpedia")
	ns, err := cfg.Namespaces(e)
	if err != nil {
		t.Fatalf("Namespaces() error = %v", err)
	}
	for prefix, want := range map[string]string{
		"foaf": "http://xmlns.com/foaf/0.1/",
		"dbo":  "http://dbpedia.org/ontology/",
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	} {
		if got, _ := ns.Namespace(prefix); got != want {
			t.Errorf("Namespace(%s) = %q, want %q", prefix, got, want)
		}
	}
}

func TestNamespacesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefixes.ttl")
	if err := os.WriteFile(path, []byte("@prefix schema: <http://schema.org/> .\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{Prefixes: map[string]string{"schema": "http://wrong.example/"}}
	ns, err := cfg.Namespaces(Endpoint{PrefixesFile: path})
	if err != nil {
		t.Fatalf("Namespaces() error = %v", err)
	}
	if got, _ := ns.Namespace("schema"); got != "http://schema.org/" {
		t.Errorf("schema = %q, want the file binding", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
	}{
		{"syntax", "[endpoints", ""},
		{"unknown key", "[cache]\nbakend = \"file\"", "cache.bakend"},
		{"bad prefix", "[prefixes]\n\"1x\" = \"http://e/\"", "prefixes.1x"},
		{"bad namespace", "[prefixes]\nx = \"http://e/<\"", "prefixes.x"},
		{"no url or data", "[endpoints.a]\nbase_uri = \"http://e/\"", "endpoints.a"},
		{"url and data", "[endpoints.a]\nurl = \"http://e/\"\ndata = [\"x.ttl\"]", "endpoints.a"},
		{"bad url", "[endpoints.a]\nurl = \"ftp://e/\"", "endpoints.a.url"},
		{"auth", "[endpoints.a]\nurl = \"http://e/\"\nauth = \"digest\"", "endpoints.a.auth"},
		{"raw local", "[endpoints.a]\ndata = [\"x.ttl\"]\nraw = true", "endpoints.a.raw"},
		{"basic without user", "[endpoints.a]\nurl = \"http://e/\"\nauth = \"basic\"", "endpoints.a.user"},
		{"default endpoint", "default_endpoint = \"nope\"", "default_endpoint"},
		{"backend", "[cache]\nbackend = \"memcached\"", "cache.backend"},
		{"redis addr", "[cache]\nbackend = \"redis\"", "cache.redis_addr"},
		{"mongo uri", "[cache]\nbackend = \"mongo\"", "cache.mongo_uri"},
		{"ttl", "[cache]\nttl = \"soon\"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Parse() error = %v, want INVALID_CONFIG", err)
			}
			if tt.key != "" && !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %q", err, tt.key)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without a file error = %v", err)
	}
	if len(cfg.Endpoints) != 0 || cfg.Path != "" {
		t.Errorf("Load() without a file = %+v, want empty", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path != path || cfg.DefaultEndpoint != "dbpedia" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", "gastrodon", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	got, err = DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, filepath.Join(".config", "gastrodon", "config.toml")) {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestEndpointLookup(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.Endpoint(""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Endpoint(\"\") error = %v, want INVALID_INPUT", err)
	}
	if _, err := cfg.Endpoint("x"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Endpoint(x) error = %v, want NOT_FOUND", err)
	}
}

func TestConnect(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.ttl")
	if err := os.WriteFile(data, []byte("@prefix ex: <http://example.com/> .\nex:a ex:p 1 .\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse(sample + "\n[endpoints.local]\ndata = [\"" + filepath.ToSlash(data) + "\"]\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	e, _ := cfg.Endpoint("local")
	q, err := cfg.Connect(e, nil, nil)
	if err != nil {
		t.Fatalf("Connect(local) error = %v", err)
	}
	if _, ok := q.(*endpoint.Local); !ok {
		t.Errorf("Connect(local) = %T, want *endpoint.Local", q)
	}

	e, _ = cfg.Endpoint("private")
	q, err = cfg.Connect(e, nil, nil)
	if err != nil {
		t.Fatalf("Connect(private) error = %v", err)
	}
	if r, ok := q.(*endpoint.Remote); !ok || r.URL() != "https://example.com/sparql" {
		t.Errorf("Connect(private) = %#v", q)
	}
}
