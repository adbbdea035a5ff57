package mongo

import (
	"context"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunSaver keeps closed run records in mongo db
type RunSaver struct {
	SessionProvider *SessionProvider
}

//NewRunSaver creates RunSaver instance
func NewRunSaver(sessionProvider *SessionProvider) (*RunSaver, error) {
	f := RunSaver{SessionProvider: sessionProvider}
	return &f, nil
}

// Save upserts run record by ID
func (rs *RunSaver) Save(data *persistence.RunRecord) error {
	cmdapp.Log.Infof("Saving run %s", data.ID)
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := rs.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(runTable)
	_, err = c.ReplaceOne(ctx, bson.M{"ID": sanitize(data.ID)}, data, options.Replace().SetUpsert(true))
	return err
}

// Get retrieves run record by ID, returns nil if not found
func (rs *RunSaver) Get(id string) (*persistence.RunRecord, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := rs.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())
	c := session.Client().Database(store).Collection(runTable)
	var res persistence.RunRecord
	err = c.FindOne(ctx, bson.M{"ID": sanitize(id)}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't get run")
	}
	return &res, nil
}
