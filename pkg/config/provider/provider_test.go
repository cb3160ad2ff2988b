package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{"file", TypeFile, false},
		{"consul", TypeConsul, false},
		{"etcd", TypeEtcd, false},
		{"zookeeper", TypeZookeeper, false},
		{"", TypeFile, false},
		{"redis", "", true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "ParseType(%q)", tt.input)
			continue
		}
		require.NoError(t, err, "ParseType(%q)", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Options{Type: TypeFile})
	assert.Error(t, err)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(Options{Type: "redis", Path: "quiver/config"})
	assert.Error(t, err)
}

func TestNewDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o644))

	tests := []struct {
		opts Options
		want Type
	}{
		{Options{Path: path}, TypeFile},
		{Options{Type: TypeFile, Path: path}, TypeFile},
		{Options{Type: TypeEtcd, Path: "quiver/config"}, TypeEtcd},
		{Options{Type: TypeZookeeper, Path: "/quiver/config"}, TypeZookeeper},
	}

	for _, tt := range tests {
		p, err := New(tt.opts)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Type())
		assert.NoError(t, p.Close())
	}
}

// consulKVHandler fakes the Consul KV HTTP API for one key.
func consulKVHandler(key string, value *atomic.Value, index *atomic.Uint64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/kv/"+key) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Consul-Index", fmt.Sprintf("%d", index.Load()))
		w.Header().Set("X-Consul-Knownleader", "true")
		w.Header().Set("X-Consul-Lastcontact", "0")
		w.Header().Set("Content-Type", "application/json")

		encoded := base64.StdEncoding.EncodeToString(value.Load().([]byte))
		fmt.Fprintf(w, `[{"Key":%q,"Value":%q,"CreateIndex":1,"ModifyIndex":%d,"LockIndex":0,"Flags":0}]`,
			key, encoded, index.Load())
	}
}

func TestConsulProviderLoad(t *testing.T) {
	var value atomic.Value
	value.Store([]byte("version: \"1\"\nname: remote\n"))
	var index atomic.Uint64
	index.Store(1)

	server := httptest.NewServer(consulKVHandler("quiver/config", &value, &index))
	defer server.Close()

	p, err := NewConsulProvider([]string{strings.TrimPrefix(server.URL, "http://")}, "quiver/config")
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, TypeConsul, p.Type())

	data, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: remote")
}

func TestConsulProviderLoadMissingKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Consul-Index", "1")
		w.Header().Set("X-Consul-Knownleader", "true")
		w.Header().Set("X-Consul-Lastcontact", "0")
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, err := NewConsulProvider([]string{strings.TrimPrefix(server.URL, "http://")}, "quiver/missing")
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load(context.Background())
	assert.Error(t, err)
}

func TestConsulProviderWatch(t *testing.T) {
	var value atomic.Value
	value.Store([]byte("version: \"1\"\n"))
	var index atomic.Uint64
	index.Store(1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Blocking query: stall until the index moves past the caller's.
		if waitIndex := r.URL.Query().Get("index"); waitIndex != "" {
			deadline := time.Now().Add(5 * time.Second)
			for fmt.Sprintf("%d", index.Load()) == waitIndex && time.Now().Before(deadline) {
				select {
				case <-r.Context().Done():
					return
				case <-time.After(10 * time.Millisecond):
				}
			}
		}
		consulKVHandler("quiver/config", &value, &index)(w, r)
	}))
	defer server.Close()

	p, err := NewConsulProvider([]string{strings.TrimPrefix(server.URL, "http://")}, "quiver/config")
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := p.Watch(ctx)
	require.NoError(t, err)

	value.Store([]byte("version: \"1\"\nname: changed\n"))
	index.Store(2)

	select {
	case _, ok := <-changes:
		require.True(t, ok, "watch channel closed before signalling")
	case <-time.After(5 * time.Second):
		t.Fatal("key change was never observed")
	}

	data, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: changed")
}
