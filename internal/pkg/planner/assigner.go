package planner

import (
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

//assign takes the head task of the table, gives it its best resource and rebuilds
//the table until no task or no idle resource is left
func assign(st *Statistics, table candidateTable, idle []api.Resource, working []api.Task) ([]api.Assignment, error) {
	var res []api.Assignment
	for len(working) > 0 {
		if len(working) != len(table) {
			return nil, errors.Wrapf(ErrCandidateMismatch, "tasks %d != candidates %d", len(working), len(table))
		}
		head := table[0]
		if len(head.resources) == 0 {
			working = removeTask(working, head.task)
			table = table[1:]
			continue
		}
		r := head.resources[0]
		res = append(res, api.Assignment{Task: head.task, Resource: r})
		idle = removeResource(idle, r)
		working = removeTask(working, head.task)
		if len(idle) == 0 {
			break
		}
		var err error
		table, working, err = buildCandidates(st, idle, working)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func removeTask(ts []api.Task, t api.Task) []api.Task {
	res := make([]api.Task, 0, len(ts))
	for _, v := range ts {
		if v != t {
			res = append(res, v)
		}
	}
	return res
}

func removeResource(rs []api.Resource, r api.Resource) []api.Resource {
	res := make([]api.Resource, 0, len(rs))
	for _, v := range rs {
		if v != r {
			res = append(res, v)
		}
	}
	return res
}
