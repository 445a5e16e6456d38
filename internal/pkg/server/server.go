// Package server exposes the bench over HTTP: setup, control actions,
// live telemetry, history and summaries. Handlers are thin; all state
// lives in the session and all domain rules in the cell package.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/cellbench/internal/pkg/cell"
	"github.com/anicoll/cellbench/internal/pkg/history"
	"github.com/anicoll/cellbench/internal/pkg/model"
	"github.com/anicoll/cellbench/internal/pkg/session"
	"github.com/anicoll/cellbench/pkg/stream"
)

// Store is the optional persistence collaborator. When nil the history
// endpoints fall back to a generated two-hour backfill.
type Store interface {
	GetSamples(ctx context.Context, cellID *string, from, to *time.Time) ([]model.TelemetrySample, error)
	GetLatestSamples(ctx context.Context) ([]model.TelemetrySample, error)
}

type server struct {
	session *session.Session
	store   Store
	hub     *stream.Hub
	logger  *zap.Logger
	rng     *rand.Rand
	now     func() time.Time

	mu          sync.Mutex
	backfill    []model.TelemetrySample
	backfillKey string
}

type Option func(*server)

func WithRand(rng *rand.Rand) Option {
	return func(s *server) {
		s.rng = rng
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *server) {
		s.now = now
	}
}

func New(sess *session.Session, store Store, hub *stream.Hub, opts ...Option) *server {
	s := &server{
		session: sess,
		store:   store,
		hub:     hub,
		logger:  zap.L(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.getStatus)
	mux.HandleFunc("GET /cells", s.getCells)
	mux.HandleFunc("PUT /cells", s.putCells)
	mux.HandleFunc("GET /bench", s.getBench)
	mux.HandleFunc("PUT /bench", s.putBench)
	mux.HandleFunc("POST /control/{action}", s.postControl)
	mux.HandleFunc("GET /control/params", s.getParams)
	mux.HandleFunc("PUT /control/params", s.putParams)
	mux.HandleFunc("GET /telemetry/live", s.getLive)
	mux.HandleFunc("GET /telemetry/latest", s.getLatest)
	mux.HandleFunc("GET /telemetry/history", s.getHistory)
	mux.HandleFunc("GET /summary", s.getSummary)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.Handler)
	}
	return LoggingMiddleware(mux)
}

func (s *server) getStatus(w http.ResponseWriter, r *http.Request) {
	cells := s.session.Cells()

	resp := StatusResponse{
		Mode:           s.session.Mode(),
		Bench:          s.session.Bench(),
		RuntimeMinutes: s.session.Runtime().Minutes(),
		TotalCells:     len(cells),
		Cells:          make([]CellOverview, 0, len(cells)),
		Warnings:       []model.Warning{},
	}

	for _, c := range cells {
		resp.AvgVoltage += c.Voltage
		resp.TotalCurrent += math.Abs(c.Current)
		resp.AvgTemperature += c.Temperature

		pct := cell.EstimateCharge(c.Voltage, c.Chemistry)
		resp.Cells = append(resp.Cells, CellOverview{
			ID:          c.ID,
			Chemistry:   c.Chemistry,
			Voltage:     c.Voltage,
			Temperature: c.Temperature,
			ChargePct:   pct,
			ChargeLevel: cell.ChargeLevel(pct),
		})

		warnings := cell.EvaluateSafety(c.Voltage, c.Current, c.Temperature, c.Chemistry)
		for i := range warnings {
			warnings[i].CellID = c.ID
		}
		resp.Warnings = append(resp.Warnings, warnings...)
	}
	if len(cells) > 0 {
		resp.AvgVoltage /= float64(len(cells))
		resp.AvgTemperature /= float64(len(cells))
	}
	resp.AllClear = len(resp.Warnings) == 0

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) getCells(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Cells())
}

func (s *server) putCells(w http.ResponseWriter, r *http.Request) {
	var cells []model.CellConfig
	if err := json.NewDecoder(r.Body).Decode(&cells); err != nil {
		s.handleError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.ReplaceCells(cells); err != nil {
		s.handleError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Info("cell configuration replaced", zap.Int("cells", len(cells)))
	s.writeJSON(w, http.StatusOK, s.session.Cells())
}

func (s *server) getBench(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Bench())
}

func (s *server) putBench(w http.ResponseWriter, r *http.Request) {
	var info model.BenchInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		s.handleError(w, http.StatusBadRequest, err)
		return
	}
	s.session.SetBench(info)
	s.writeJSON(w, http.StatusOK, info)
}

// postControl maps the control panel buttons onto mode switches. Every
// action is legal in every mode.
func (s *server) postControl(w http.ResponseWriter, r *http.Request) {
	var mode model.OperatingMode
	switch action := r.PathValue("action"); action {
	case "charge":
		mode = model.ModeCharging
	case "discharge":
		mode = model.ModeDischarging
	case "pause":
		mode = model.ModePaused
	case "stop":
		mode = model.ModeIdle
	default:
		s.handleError(w, http.StatusBadRequest, fmt.Errorf("unknown control action: %q", action))
		return
	}

	s.session.SetMode(mode)
	s.logger.Info("operating mode switched", zap.String("mode", mode.String()))
	s.writeJSON(w, http.StatusOK, ControlResponse{Mode: mode})
}

func (s *server) getParams(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Params())
}

func (s *server) putParams(w http.ResponseWriter, r *http.Request) {
	var params model.ControlParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.handleError(w, http.StatusBadRequest, err)
		return
	}
	for name, v := range map[string]float64{
		"target_voltage":     params.TargetVoltage,
		"max_current":        params.MaxCurrent,
		"target_temperature": params.TargetTemperature,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.handleError(w, http.StatusBadRequest, fmt.Errorf("%s must be finite", name))
			return
		}
	}
	s.session.SetParams(params)
	s.writeJSON(w, http.StatusOK, params)
}

func (s *server) getLive(w http.ResponseWriter, r *http.Request) {
	samples := s.session.SamplesTail(20)
	s.writeJSON(w, http.StatusOK, LiveResponse{
		Mode:  s.session.Mode(),
		Cells: cellStatuses(samples),
	})
}

// getLatest serves the most recent reading per cell: from the store when
// persistence is on, else from the in-memory rolling buffer.
func (s *server) getLatest(w http.ResponseWriter, r *http.Request) {
	var samples []model.TelemetrySample
	if s.store != nil {
		stored, err := s.store.GetLatestSamples(r.Context())
		if err != nil {
			s.handleError(w, http.StatusInternalServerError, err)
			return
		}
		samples = stored
	} else {
		latest := s.session.LatestSamples()
		ids := make([]string, 0, len(latest))
		for id := range latest {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			samples = append(samples, latest[id])
		}
	}

	s.writeJSON(w, http.StatusOK, LiveResponse{
		Mode:  s.session.Mode(),
		Cells: cellStatuses(samples),
	})
}

func cellStatuses(samples []model.TelemetrySample) []model.CellStatus {
	statuses := make([]model.CellStatus, 0, len(samples))
	for _, sample := range samples {
		warnings := cell.EvaluateSample(sample)
		pct := cell.EstimateCharge(sample.Voltage, sample.Chemistry)
		statuses = append(statuses, model.CellStatus{
			Sample:      sample,
			ChargePct:   pct,
			ChargeLevel: cell.ChargeLevel(pct),
			SafetyScore: cell.SafetyScore(len(warnings)),
			Warnings:    warnings,
		})
	}
	return statuses
}

func (s *server) getHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r)
	if err != nil {
		s.handleError(w, http.StatusBadRequest, err)
		return
	}

	samples, err := s.historySamples(r.Context(), filter)
	if err != nil {
		s.handleError(w, http.StatusInternalServerError, err)
		return
	}
	samples = filter.Apply(samples)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=battery_data_%s.csv", s.now().Format("20060102_150405")))
		if err := history.WriteCSV(w, samples); err != nil {
			s.logger.Error("failed to stream csv export", zap.Error(err))
		}
		return
	}

	s.writeJSON(w, http.StatusOK, samples)
}

func (s *server) getSummary(w http.ResponseWriter, r *http.Request) {
	samples, err := s.historySamples(r.Context(), history.Filter{})
	if err != nil {
		s.handleError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SummaryResponse{
		ActiveCells: s.session.CellCount(),
		Summary:     history.Summarize(samples),
		Safety:      history.SafetySeries(samples),
	})
}

// historySamples prefers the store; without one it serves a mock backfill
// regenerated whenever the cell configuration changes. The requested window
// and cell are pushed down to the store query, otherwise its default window
// would drop rows the caller explicitly asked for; chemistry and multi-cell
// narrowing stay in Filter.Apply.
func (s *server) historySamples(ctx context.Context, filter history.Filter) ([]model.TelemetrySample, error) {
	if s.store != nil {
		var cellID *string
		if len(filter.CellIDs) == 1 {
			cellID = &filter.CellIDs[0]
		}
		return s.store.GetSamples(ctx, cellID, filter.From, filter.To)
	}

	cells := s.session.Cells()
	key := fingerprint(cells)

	s.mu.Lock()
	defer s.mu.Unlock()
	if key != s.backfillKey {
		s.backfill = history.Backfill(cells, s.rng, s.now())
		s.backfillKey = key
	}
	return s.backfill, nil
}

func fingerprint(cells []model.CellConfig) string {
	return fmt.Sprintf("%+v", cells)
}

func parseHistoryFilter(r *http.Request) (history.Filter, error) {
	q := r.URL.Query()
	filter := history.Filter{CellIDs: q["cell"]}

	for _, raw := range q["chemistry"] {
		chemistry, err := model.ParseChemistry(raw)
		if err != nil {
			return history.Filter{}, err
		}
		filter.Chemistries = append(filter.Chemistries, chemistry)
	}

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return history.Filter{}, fmt.Errorf("invalid from timestamp: %w", err)
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return history.Filter{}, fmt.Errorf("invalid to timestamp: %w", err)
		}
		filter.To = &to
	}
	return filter, nil
}

func (s *server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *server) handleError(w http.ResponseWriter, code int, err error) {
	s.logger.Warn("request failed", zap.Int("status", code), zap.Error(err))
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}
