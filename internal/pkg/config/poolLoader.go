package config

import (
	"os"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

//LoadPool reads the resource pool from yaml file: `taskType: [resource, ...]`
func LoadPool(file string) (api.Pool, error) {
	fData, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load: "+file)
	}
	res, err := ParsePool(fData)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load: "+file)
	}
	return res, nil
}

//ParsePool parses yaml data into a validated pool
func ParsePool(data []byte) (api.Pool, error) {
	m := map[string][]string{}
	err := yaml.Unmarshal(data, &m)
	if err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal")
	}
	res := make(api.Pool, len(m))
	for k, v := range m {
		rs := make([]api.Resource, len(v))
		for i, r := range v {
			rs[i] = api.Resource(r)
		}
		res[api.TaskType(k)] = rs
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
