package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePool(t *testing.T, data string) string {
	f := filepath.Join(t.TempDir(), "pool.yml")
	require.Nil(t, os.WriteFile(f, []byte(data), 0644))
	return f
}

func TestParsePool(t *testing.T) {
	p, err := ParsePool([]byte("A: [R1, R2]\nb_Task:\n  - R2\n"))
	assert.Nil(t, err)
	assert.Equal(t, api.Pool{"A": {"R1", "R2"}, "b_Task": {"R2"}}, p)
}

func TestParsePool_Fails(t *testing.T) {
	_, err := ParsePool([]byte(""))
	assert.NotNil(t, err)
	_, err = ParsePool([]byte("A: []\n"))
	assert.NotNil(t, err)
	_, err = ParsePool([]byte("A: R1: x\n"))
	assert.NotNil(t, err)
}

func TestLoadPool_NoFile(t *testing.T) {
	_, err := LoadPool(filepath.Join(t.TempDir(), "none.yml"))
	assert.NotNil(t, err)
}

func TestNewPoolProvider(t *testing.T) {
	pp, err := NewPoolProvider(writePool(t, "A: [R1]\n"))
	require.Nil(t, err)
	p, err := pp.Get()
	assert.Nil(t, err)
	assert.Equal(t, api.Pool{"A": {"R1"}}, p)
}

func TestNewPoolProvider_Fails(t *testing.T) {
	_, err := NewPoolProvider("")
	assert.NotNil(t, err)
	_, err = NewPoolProvider(writePool(t, "A: []\n"))
	assert.NotNil(t, err)
}

func TestPoolProvider_GetReturnsCopy(t *testing.T) {
	pp, err := NewPoolProvider(writePool(t, "A: [R1]\n"))
	require.Nil(t, err)
	p, _ := pp.Get()
	p["A"][0] = "X"
	p2, _ := pp.Get()
	assert.Equal(t, api.Resource("R1"), p2["A"][0])
}

func TestPoolProvider_Reload(t *testing.T) {
	f := writePool(t, "A: [R1]\n")
	pp, err := NewPoolProvider(f)
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(f, []byte("A: [R1, R2]\n"), 0644))
	pp.reload()
	p, _ := pp.Get()
	assert.Equal(t, api.Pool{"A": {"R1", "R2"}}, p)
}

func TestPoolProvider_ReloadKeepsOldOnError(t *testing.T) {
	f := writePool(t, "A: [R1]\n")
	pp, err := NewPoolProvider(f)
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(f, []byte("A: []\n"), 0644))
	pp.reload()
	p, _ := pp.Get()
	assert.Equal(t, api.Pool{"A": {"R1"}}, p)
}
