package planner

import (
	"sort"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
)

type candidate struct {
	task      api.Task
	resources []api.Resource
}

//candidateTable is ordered by task priority, each resource list by resource priority
type candidateTable []*candidate

//buildCandidates returns the prioritized table and the working set without unassignable tasks
func buildCandidates(st *Statistics, idle []api.Resource, working []api.Task) (candidateTable, []api.Task, error) {
	res := make(candidateTable, 0, len(working))
	left := make([]api.Task, 0, len(working))
	for _, t := range working {
		if err := st.ensureWindows(t.Type); err != nil {
			return nil, nil, err
		}
		rs := make([]api.Resource, 0, len(idle))
		for _, r := range idle {
			if st.Eligible(t.Type, r) {
				rs = append(rs, r)
			}
		}
		if len(rs) == 0 {
			continue
		}
		sortResources(st, t.Type, rs)
		res = append(res, &candidate{task: t, resources: rs})
		left = append(left, t)
	}
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if len(a.resources) != len(b.resources) {
			return len(a.resources) < len(b.resources)
		}
		ab, bb := st.TaskTypeBreadth(a.task.Type), st.TaskTypeBreadth(b.task.Type)
		if ab != bb {
			return ab < bb
		}
		return a.task.CaseID < b.task.CaseID
	})
	return res, left, nil
}

func sortResources(st *Statistics, t api.TaskType, rs []api.Resource) {
	means := make(map[api.Resource]Mean, len(rs))
	for _, r := range rs {
		means[r] = st.MeanDuration(t, r)
	}
	sort.SliceStable(rs, func(i, j int) bool {
		mi, mj := means[rs[i]], means[rs[j]]
		if mi != mj {
			return mi.Less(mj)
		}
		return -st.ResourceBreadth(rs[i]) < -st.ResourceBreadth(rs[j])
	})
}
