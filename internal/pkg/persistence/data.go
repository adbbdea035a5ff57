package persistence

import (
	"time"

	"github.com/airenas/bpoc/internal/pkg/planner"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
)

type (
	//RunRecord is the final state of a closed planning run
	RunRecord struct {
		ID          string            `json:"ID" bson:"ID"`
		Strategy    string            `json:"strategy" bson:"strategy"`
		Pool        api.Pool          `json:"pool" bson:"pool"`
		Rounds      int               `json:"rounds" bson:"rounds"`
		Assignments int               `json:"assignments" bson:"assignments"`
		Events      int               `json:"events" bson:"events"`
		Failure     string            `json:"failure,omitempty" bson:"failure,omitempty"`
		Statistics  *planner.Snapshot `json:"statistics,omitempty" bson:"statistics,omitempty"`
		Created     time.Time         `json:"created" bson:"created"`
		Closed      time.Time         `json:"closed" bson:"closed"`
	}
)
