package dispatcher

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/messages"
	"github.com/airenas/bpoc/internal/pkg/persistence"
	"github.com/airenas/bpoc/internal/pkg/planner"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	//PoolProvider returns the default resource pool for new runs
	PoolProvider interface {
		Get() (api.Pool, error)
	}

	//RunSaver persists closed runs
	RunSaver interface {
		Save(data *persistence.RunRecord) error
	}

	//RunProvider returns a persisted run record, nil if not found
	RunProvider interface {
		Get(id string) (*persistence.RunRecord, error)
	}

	//Recorder keeps the decision and event trail
	Recorder interface {
		RecordDecision(runID string, round int, as []api.Assignment) error
		RecordEvent(runID string, e *api.Event) error
	}

	newPlannerFunc func(pool api.Pool, prm planner.Params) (api.Planner, error)
)

// ServiceData keeps data required for service work
type ServiceData struct {
	PoolProvider  PoolProvider
	RunSaver      RunSaver
	RunProvider   RunProvider
	Recorder      Recorder
	MessageSender messages.Sender
	DecisionQueue string
	Defaults      planner.Params

	Port       int
	health     healthcheck.Handler
	metrics    serviceMetric
	runs       *runs
	subs       *subscriptions
	newPlanner newPlannerFunc
}

func newServiceData() (*ServiceData, error) {
	res := &ServiceData{runs: newRuns(), subs: newSubscriptions(), newPlanner: planner.New}
	res.health = healthcheck.NewHandler()
	if err := initMetrics(res); err != nil {
		return nil, errors.Wrap(err, "Can't init metrics")
	}
	return res, nil
}

type createRequest struct {
	Pool       api.Pool `json:"pool,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
	WindowSize int      `json:"windowSize,omitempty"`
	Seed       int64    `json:"seed,omitempty"`
}

type createResult struct {
	ID       string `json:"id"`
	Strategy string `json:"strategy"`
}

type decideRequest struct {
	Idle    []api.Resource `json:"idle"`
	Waiting []api.Task     `json:"waiting"`
}

type decideResult struct {
	Round int `json:"round"`
	*api.Decision
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	ch := promhttp.InstrumentHandlerDuration(data.metrics.createDur, createHandler{data: data})
	dh := promhttp.InstrumentHandlerDuration(data.metrics.decideDur, decideHandler{data: data})
	eh := promhttp.InstrumentHandlerDuration(data.metrics.eventDur, eventHandler{data: data})
	router.Methods("POST").Path("/runs").Handler(ch)
	router.Methods("POST").Path("/runs/{id}/decide").Handler(dh)
	router.Methods("POST").Path("/runs/{id}/events").Handler(eh)
	router.Methods("GET").Path("/runs/{id}/stats").Handler(statsHandler{data: data})
	router.Methods("GET").Path("/runs/{id}/subscribe").Handler(websocketHandler{data: data})
	router.Methods("DELETE").Path("/runs/{id}").Handler(closeHandler{data: data})
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
	router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	return router
}

type createHandler struct {
	data *ServiceData
}

func (h createHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Create run request from %s", r.Host)
	var in createRequest
	if err := decode(r, &in); err != nil {
		http.Error(w, "Bad input", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	pool := in.Pool
	if len(pool) == 0 {
		if h.data.PoolProvider == nil {
			http.Error(w, "No pool", http.StatusBadRequest)
			cmdapp.Log.Error("No pool in request and no default pool configured")
			return
		}
		var err error
		if pool, err = h.data.PoolProvider.Get(); err != nil {
			http.Error(w, "Can't load default pool", http.StatusInternalServerError)
			cmdapp.Log.Error(err)
			return
		}
	}
	prm := h.data.Defaults
	if in.Strategy != "" {
		prm.Strategy = in.Strategy
	}
	if in.WindowSize > 0 {
		prm.WindowSize = in.WindowSize
	}
	if in.Seed != 0 {
		prm.Seed = in.Seed
	}
	if prm.Strategy == "" {
		prm.Strategy = planner.StrategyGreedy
	}
	p, err := h.data.newPlanner(pool, prm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	id := uuid.New().String()
	h.data.runs.add(newRun(id, prm.Strategy, pool, p))
	h.data.metrics.activeRuns.Inc()
	cmdapp.Log.Infof("Created run %s, strategy: %s", id, prm.Strategy)
	writeJSON(w, &createResult{ID: id, Strategy: prm.Strategy})
}

type decideHandler struct {
	data *ServiceData
}

func (h decideHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cmdapp.Log.Debugf("Decide request for %s", id)
	rn, err := h.data.runs.get(id)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	var in decideRequest
	if err := decode(r, &in); err != nil {
		http.Error(w, "Bad input", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	d, round, err := rn.decide(in.Idle, in.Waiting, func(d *api.Decision, round int) {
		h.data.metrics.decisionSize.WithLabelValues(rn.strategy).Observe(float64(len(d.Assignments)))
		for _, a := range d.Assignments {
			h.data.metrics.assignments.WithLabelValues(string(a.Task.Type)).Inc()
		}
		publishDecision(h.data, &messages.DecisionMessage{RunID: id, Round: round, Assignments: d.Assignments})
	})
	if err != nil {
		writeRunError(w, h.data, err)
		return
	}
	writeJSON(w, &decideResult{Round: round, Decision: d})
}

//publishDecision fans out the decision in round order, failures are logged only
func publishDecision(data *ServiceData, msg *messages.DecisionMessage) {
	if data.Recorder != nil {
		cmdapp.LogIf(data.Recorder.RecordDecision(msg.RunID, msg.Round, msg.Assignments))
	}
	data.subs.broadcast(msg.RunID, msg)
	if data.MessageSender != nil && data.DecisionQueue != "" {
		cmdapp.LogIf(data.MessageSender.Send(msg, data.DecisionQueue))
	}
}

type eventHandler struct {
	data *ServiceData
}

func (h eventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in messages.EventMessage
	if err := decode(r, &in); err != nil {
		http.Error(w, "Bad input", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	in.RunID = mux.Vars(r)["id"]
	if err := in.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	if err := reportEvent(h.data, &in); err != nil {
		writeRunError(w, h.data, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

//reportEvent forwards the event to the run planner, used by HTTP and queue listener
func reportEvent(data *ServiceData, msg *messages.EventMessage) error {
	rn, err := data.runs.get(msg.RunID)
	if err != nil {
		return err
	}
	e := msg.ToEvent()
	if err := rn.report(e); err != nil {
		return err
	}
	data.metrics.events.WithLabelValues(e.Lifecycle.String()).Inc()
	if data.Recorder != nil {
		cmdapp.LogIf(data.Recorder.RecordEvent(msg.RunID, e))
	}
	return nil
}

type statsHandler struct {
	data *ServiceData
}

func (h statsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rn, err := h.data.runs.get(id)
	if err == nil {
		writeJSON(w, rn.record())
		return
	}
	if h.data.RunProvider == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	rec, err := h.data.RunProvider.Get(id)
	if err != nil {
		http.Error(w, "Can't get run", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	if rec == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		cmdapp.Log.Errorf("Run not found '%s'", id)
		return
	}
	writeJSON(w, rec)
}

type closeHandler struct {
	data *ServiceData
}

func (h closeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cmdapp.Log.Infof("Close run %s", id)
	rn, err := h.data.runs.get(id)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	rec := rn.record()
	rec.Closed = time.Now()
	if h.data.RunSaver != nil {
		if err := h.data.RunSaver.Save(rec); err != nil {
			http.Error(w, "Can't save run", http.StatusInternalServerError)
			cmdapp.Log.Error(err)
			return
		}
	}
	if _, err := h.data.runs.remove(id); err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	h.data.metrics.activeRuns.Dec()
	h.data.subs.closeAll(id)
	writeJSON(w, rec)
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

type websocketHandler struct {
	data *ServiceData
}

func (h websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cmdapp.Log.Infof("ws request for %s from %s", id, r.Host)
	if _, err := h.data.runs.get(id); err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't init ws connection"))
		return
	}
	go h.data.subs.handleConnection(id, c)
}

func writeRunError(w http.ResponseWriter, data *ServiceData, err error) {
	cmdapp.Log.Error(err)
	switch {
	case errors.Is(err, errRunNotFound):
		http.Error(w, "Run not found", http.StatusNotFound)
	case errors.Is(err, errRunFailed):
		http.Error(w, err.Error(), http.StatusConflict)
	case planner.IsInvariant(err):
		data.metrics.violations.Inc()
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return errors.Wrap(dec.Decode(v), "Can't decode input")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(v); err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}
