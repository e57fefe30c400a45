package climate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidQuery is returned for out-of-range coordinates or years.
	ErrInvalidQuery = errors.New("invalid climate query")
	// ErrNoCountryCode marks a geocoded place without a usable country code.
	// Emissions then fall back to the world series.
	ErrNoCountryCode = errors.New("country code unresolved, using world emissions")
)

const (
	defaultPlaceName = "Selected Location"
	globalPlaceName  = "World"
	worldCountryCode = "WLD"

	// reportTimeout bounds the background hand-off of one record to the sinks.
	reportTimeout = 10 * time.Second

	// DefaultStartYear is used when a query does not name one.
	DefaultStartYear = 1960
)

// Sources groups one implementation per feed. Any field may be nil in the
// live set; the synthetic set must be complete.
type Sources struct {
	Temperature       TemperatureSource
	GlobalTemperature TemperatureSource
	CO2               CO2Source
	Pollution         PollutionSource
	PollutionHistory  PollutionHistorySource
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Live      Sources
	Synthetic Sources
	Geocoder  Geocoder

	// Optional sinks for provenance.
	Recorder  OutcomeRecorder
	Publisher DegradationPublisher
	Status    StatusStore

	Logger *slog.Logger
}

// Service builds ClimateRecords from live feeds with synthetic fallback.
type Service struct {
	temperature       *FallbackTemperature
	globalTemperature *FallbackTemperature
	co2               *FallbackCO2
	pollution         *FallbackPollution
	history           *FallbackPollutionHistory

	live      Sources
	geocoder  Geocoder
	recorder  OutcomeRecorder
	publisher DegradationPublisher
	status    StatusStore
	logger    *slog.Logger
	now       func() time.Time

	reports sync.WaitGroup
}

// NewService creates a new Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	globalLive := cfg.Live.GlobalTemperature
	if globalLive == nil {
		globalLive = cfg.Live.Temperature
	}
	globalSynthetic := cfg.Synthetic.GlobalTemperature
	if globalSynthetic == nil {
		globalSynthetic = cfg.Synthetic.Temperature
	}
	return &Service{
		temperature:       &FallbackTemperature{Live: cfg.Live.Temperature, Synthetic: cfg.Synthetic.Temperature, Logger: logger},
		globalTemperature: &FallbackTemperature{Live: globalLive, Synthetic: globalSynthetic, Logger: logger},
		co2:               &FallbackCO2{Live: cfg.Live.CO2, Synthetic: cfg.Synthetic.CO2, Logger: logger},
		pollution:         &FallbackPollution{Live: cfg.Live.Pollution, Synthetic: cfg.Synthetic.Pollution, Logger: logger},
		history:           &FallbackPollutionHistory{Live: cfg.Live.PollutionHistory, Synthetic: cfg.Synthetic.PollutionHistory, Logger: logger},
		live:              cfg.Live,
		geocoder:          cfg.Geocoder,
		recorder:          cfg.Recorder,
		publisher:         cfg.Publisher,
		status:            cfg.Status,
		logger:            logger,
		now:               time.Now,
	}
}

// Query is the input of FetchClimateDataForLocation.
type Query struct {
	Lat       float64
	Lon       float64
	StartYear int
	EndYear   int

	// Country overrides the reverse-geocoded ISO alpha-3 code.
	Country string
	// Global selects the world-wide temperature series and WLD emissions.
	Global bool
}

// Validate checks ranges and fills in default years.
func (q *Query) Validate(now time.Time) error {
	if q.Lat < -90 || q.Lat > 90 {
		return fmt.Errorf("%w: lat %.4f out of range", ErrInvalidQuery, q.Lat)
	}
	if q.Lon < -180 || q.Lon > 180 {
		return fmt.Errorf("%w: lon %.4f out of range", ErrInvalidQuery, q.Lon)
	}
	if q.StartYear == 0 {
		q.StartYear = DefaultStartYear
	}
	if q.EndYear == 0 {
		q.EndYear = now.Year()
	}
	if q.StartYear > q.EndYear {
		return fmt.Errorf("%w: startYear %d after endYear %d", ErrInvalidQuery, q.StartYear, q.EndYear)
	}
	return nil
}

// FetchClimateDataForLocation resolves the place, fetches the three feeds
// concurrently and summarizes them. Feeds fall back to synthetic data
// individually; an error is returned only if a synthetic source fails.
func (s *Service) FetchClimateDataForLocation(ctx context.Context, q Query) (ClimateRecord, error) {
	if err := q.Validate(s.now()); err != nil {
		return ClimateRecord{}, err
	}

	loc, geoOutcome := s.resolveLocation(ctx, q)
	s.logger.Debug("fetching climate data",
		"location", loc.Key(),
		"name", loc.Name,
		"country", loc.CountryCode,
		"startYear", q.StartYear,
		"endYear", q.EndYear,
	)

	temperatureSource := s.temperature
	if q.Global {
		temperatureSource = s.globalTemperature
	}

	var (
		temps     []TemperatureSample
		co2       []CO2Sample
		pollution PollutionSample
		outcomes  [3]SourceOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		temps, outcomes[0], err = temperatureSource.Fetch(gctx, loc, q.StartYear, q.EndYear)
		if err != nil {
			return fmt.Errorf("temperature: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		co2, outcomes[1], err = s.co2.Fetch(gctx, loc.CountryCode, q.StartYear, q.EndYear)
		if err != nil {
			return fmt.Errorf("co2: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pollution, outcomes[2], err = s.pollution.Fetch(gctx, loc)
		if err != nil {
			return fmt.Errorf("pollution: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("climate aggregation failed", "location", loc.Key(), "error", err)
		return ClimateRecord{}, err
	}

	sort.SliceStable(temps, func(i, j int) bool { return temps[i].Year < temps[j].Year })
	sort.SliceStable(co2, func(i, j int) bool { return co2[i].Year < co2[j].Year })

	record := ClimateRecord{
		ID:          uuid.NewString(),
		Location:    loc,
		Temperature: temps,
		CO2:         co2,
		Pollution:   pollution,
		Summary:     Summarize(temps, co2, pollution, q.StartYear, q.EndYear),
		Sources:     append([]SourceOutcome{geoOutcome}, outcomes[:]...),
		GeneratedAt: s.now().UTC(),
	}

	// Sinks talk to SQLite and MQTT; the response does not wait for them.
	s.reports.Go(func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
		s.report(rctx, record)
	})
	return record, nil
}

// Wait blocks until every record fetched so far has been handed to the
// sinks. Call it before closing them.
func (s *Service) Wait() {
	s.reports.Wait()
}

// PollutionHistory returns an hourly air quality series for a location.
func (s *Service) PollutionHistory(ctx context.Context, lat, lon float64, from, to time.Time) ([]PollutionSample, SourceOutcome, error) {
	if !from.Before(to) {
		return nil, SourceOutcome{}, fmt.Errorf("%w: from must be before to", ErrInvalidQuery)
	}
	loc := Location{Lat: lat, Lon: lon, Name: defaultPlaceName}
	return s.history.Fetch(ctx, loc, from, to)
}

func (s *Service) resolveLocation(ctx context.Context, q Query) (Location, SourceOutcome) {
	loc := Location{Lat: q.Lat, Lon: q.Lon, Name: defaultPlaceName, CountryCode: worldCountryCode}
	if q.Global || loc.IsGlobal() {
		loc.Name = globalPlaceName
		return loc, SourceOutcome{Feed: FeedGeocoding, Provider: "static", Live: true}
	}

	outcome := SourceOutcome{Feed: FeedGeocoding, Provider: "static"}
	if s.geocoder == nil {
		outcome.Error = ErrNotConfigured.Error()
	} else {
		outcome.Provider = s.geocoder.Name()
		place, err := s.geocoder.Reverse(ctx, q.Lat, q.Lon)
		if err != nil {
			s.logger.Warn("reverse geocoding failed", "location", loc.Key(), "error", err)
			outcome.Error = err.Error()
		} else {
			outcome.Live = true
			if place.Name != "" {
				loc.Name = place.Name
			}
			if place.CountryCode != "" {
				loc.CountryCode = place.CountryCode
			} else if q.Country == "" {
				s.logger.Warn("geocoded place has no country code", "location", loc.Key(), "place", loc.Name)
				outcome.Error = ErrNoCountryCode.Error()
			}
		}
	}

	if q.Country != "" {
		loc.CountryCode = q.Country
	}
	return loc, outcome
}

// report hands outcomes to the optional sinks. Failures are logged only.
func (s *Service) report(ctx context.Context, record ClimateRecord) {
	for _, o := range record.Sources {
		if !o.Live && o.Feed != FeedGeocoding {
			s.logger.Info("record contains synthetic data",
				"record", record.ID,
				"feed", o.Feed,
				"provider", o.Provider,
			)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.RecordOutcomes(ctx, record.ID, record.Location, record.Sources); err != nil {
			s.logger.Warn("recording source outcomes failed", "record", record.ID, "error", err)
		}
	}
	if s.publisher != nil && record.Degraded() {
		if err := s.publisher.PublishDegraded(ctx, record); err != nil {
			s.logger.Warn("publishing degradation event failed", "record", record.ID, "error", err)
		}
	}
}

// ProbeLocation is the fixed point used for upstream health probes.
var ProbeLocation = Location{Lat: 51.48, Lon: 0.0, Name: "Greenwich", CountryCode: "GBR"}

// ProbeSources calls every configured live source once and stores the result
// in the status store, if any.
func (s *Service) ProbeSources(ctx context.Context) []SourceStatus {
	year := s.now().Year() - 2

	type probe struct {
		name string
		feed Feed
		run  func(ctx context.Context) error
	}
	var probes []probe
	if src := s.live.Temperature; src != nil {
		probes = append(probes, probe{src.Name(), FeedTemperature, func(ctx context.Context) error {
			_, err := src.Temperature(ctx, ProbeLocation, year, year)
			return err
		}})
	}
	if src := s.live.GlobalTemperature; src != nil {
		probes = append(probes, probe{src.Name(), FeedTemperature, func(ctx context.Context) error {
			_, err := src.Temperature(ctx, Location{}, year-1, year)
			return err
		}})
	}
	if src := s.live.CO2; src != nil {
		probes = append(probes, probe{src.Name(), FeedCO2, func(ctx context.Context) error {
			_, err := src.CO2(ctx, ProbeLocation.CountryCode, year-5, year)
			return err
		}})
	}
	if src := s.live.Pollution; src != nil {
		probes = append(probes, probe{src.Name(), FeedPollution, func(ctx context.Context) error {
			_, err := src.Pollution(ctx, ProbeLocation)
			return err
		}})
	}
	if src := s.geocoder; src != nil {
		probes = append(probes, probe{src.Name(), FeedGeocoding, func(ctx context.Context) error {
			_, err := src.Reverse(ctx, ProbeLocation.Lat, ProbeLocation.Lon)
			return err
		}})
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses []SourceStatus
	)
	for _, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()

			started := s.now()
			err := p.run(ctx)
			st := SourceStatus{
				Name:      p.name,
				Feed:      p.feed,
				Healthy:   err == nil,
				Latency:   s.now().Sub(started),
				CheckedAt: s.now().UTC(),
			}
			if err != nil {
				st.Error = err.Error()
				s.logger.Warn("source probe failed", "source", p.name, "error", err)
			}

			mu.Lock()
			statuses = append(statuses, st)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	if s.status != nil {
		for _, st := range statuses {
			s.status.SaveStatus(st)
		}
	}
	return statuses
}

// SourceStatuses returns the latest probe result of every source.
func (s *Service) SourceStatuses() []SourceStatus {
	if s.status == nil {
		return nil
	}
	return s.status.GetAllLatest()
}

// SourceStatusHistory returns probe results of one source within a range.
func (s *Service) SourceStatusHistory(name string, from, to time.Time) ([]SourceStatus, error) {
	if s.status == nil {
		return nil, ErrNotConfigured
	}
	return s.status.GetRange(name, from, to)
}
