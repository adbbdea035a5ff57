package config

import (
	"sync"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// PoolProvider keeps the default resource pool loaded from file and reloads it on change.
// Runs already created keep the pool they started with
type PoolProvider struct {
	file string
	v    *viper.Viper
	m    sync.RWMutex
	pool api.Pool
}

//NewPoolProvider creates PoolProvider watching the file
func NewPoolProvider(file string) (*PoolProvider, error) {
	cmdapp.Log.Infof("Init pool from: %s", file)
	if file == "" {
		return nil, errors.New("No pool file provided")
	}
	pool, err := LoadPool(file)
	if err != nil {
		return nil, err
	}
	res := &PoolProvider{file: file, pool: pool}
	res.v = viper.New()
	res.v.SetConfigFile(file)
	res.v.SetConfigType("yml")
	if err := res.v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "Can't read pool file: "+file)
	}
	res.v.OnConfigChange(func(e fsnotify.Event) {
		res.reload()
	})
	res.v.WatchConfig()
	return res, nil
}

func (pp *PoolProvider) reload() {
	pool, err := LoadPool(pp.file)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Pool not reloaded"))
		return
	}
	pp.m.Lock()
	defer pp.m.Unlock()
	pp.pool = pool
	cmdapp.Log.Infof("Pool reloaded from: %s", pp.file)
}

// Get returns a copy of the current default pool
func (pp *PoolProvider) Get() (api.Pool, error) {
	pp.m.RLock()
	defer pp.m.RUnlock()
	if pp.pool == nil {
		return nil, errors.New("No default pool")
	}
	res := make(api.Pool, len(pp.pool))
	for k, v := range pp.pool {
		res[k] = append([]api.Resource{}, v...)
	}
	return res, nil
}
