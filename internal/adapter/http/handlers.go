package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Count  int            `json:"count"`
	Storms []stormSummary `json:"storms"`
}

type stormSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Season      int      `json:"season"`
	Basin       string   `json:"basin"`
	Genesis     string   `json:"genesis"`
	Points      int      `json:"points"`
	MaxWind     *float64 `json:"max_wind"`
	MinPressure *float64 `json:"min_pressure"`
	ACE         float64  `json:"ace"`
}

type stormDetail struct {
	ID          string       `json:"id"`
	ATCFID      *string      `json:"atcf_id"`
	Name        string       `json:"name"`
	Season      int          `json:"season"`
	Basin       string       `json:"basin"`
	Subbasin    string       `json:"subbasin"`
	Genesis     string       `json:"genesis"`
	Agencies    []string     `json:"agencies"`
	Points      int          `json:"points"`
	MaxWind     *float64     `json:"max_wind"`
	MinPressure *float64     `json:"min_pressure"`
	ACE         float64      `json:"ace"`
	Track       []trackPoint `json:"track"`
}

type trackPoint struct {
	Time           string            `json:"time"`
	Lat            float64           `json:"lat"`
	Lon            float64           `json:"lon"`
	Wind           *float64          `json:"wind"`
	Pressure       *float64          `json:"mslp"`
	Classification string            `json:"classification"`
	Basin          string            `json:"basin"`
	Subbasin       string            `json:"subbasin"`
	Speed          *float64          `json:"speed"`
	RMW            *float64          `json:"rmw"`
	DistToLand     *float64          `json:"dist2land"`
	Radii          radiiJSON         `json:"radii"`
	Provenance     map[string]string `json:"provenance"`
}

type radiiJSON struct {
	R34 quadrantsJSON `json:"r34"`
	R50 quadrantsJSON `json:"r50"`
	R64 quadrantsJSON `json:"r64"`
}

type quadrantsJSON struct {
	NE *float64 `json:"ne"`
	SE *float64 `json:"se"`
	SW *float64 `json:"sw"`
	NW *float64 `json:"nw"`
}

type stormACEResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ACE         float64 `json:"ace"`
	Subtropical bool    `json:"subtropical_included"`
}

type seasonACEResponse struct {
	Season      int     `json:"season"`
	Scope       string  `json:"scope"`
	ACE         float64 `json:"ace"`
	Subtropical bool    `json:"subtropical_included"`
}

func (s *Server) handleListStorms(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	storms := c.Select(filter)
	summaries := make([]stormSummary, 0, len(storms))
	for _, storm := range storms {
		summaries = append(summaries, s.summarize(storm))
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(summaries), Storms: summaries})
}

func (s *Server) handleGetStorm(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w)
	if !ok {
		return
	}
	storm, err := c.Get(mux.Vars(r)["sid"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.detail(storm))
}

func (s *Server) handleStormACE(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w)
	if !ok {
		return
	}
	subtropical, err := s.parseSubtropical(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	storm, err := c.Get(mux.Vars(r)["sid"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stormACEResponse{
		ID:          storm.SID,
		Name:        storm.Name,
		ACE:         storm.ACE(subtropical),
		Subtropical: subtropical,
	})
}

func (s *Server) handleSeasonACE(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w)
	if !ok {
		return
	}
	season, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad season %q", mux.Vars(r)["year"]))
		return
	}
	subtropical, err := s.parseSubtropical(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = archive.ScopeGlobal
	}

	ace, err := c.SeasonACE(season, scope, subtropical)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, seasonACEResponse{
		Season:      season,
		Scope:       scope,
		ACE:         ace,
		Subtropical: subtropical,
	})
}

// collection fetches the current snapshot, answering 503 when none is
// loaded yet.
func (s *Server) collection(w http.ResponseWriter) (*archive.Collection, bool) {
	c := s.provider.Collection()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no snapshot loaded"))
		return nil, false
	}
	return c, true
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	var notFound *archive.NotFoundError
	var ambiguous *archive.AmbiguousMatchError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &ambiguous):
		writeError(w, http.StatusConflict, err)
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) parseSubtropical(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("subtropical")
	if raw == "" {
		return s.subtropicalACE, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("bad subtropical flag %q", raw)
	}
	return v, nil
}

func parseFilter(r *http.Request) (archive.Filter, error) {
	q := r.URL.Query()
	var filter archive.Filter

	if raw := q.Get("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			return archive.Filter{}, fmt.Errorf("bad season %q", raw)
		}
		filter.Season = season
	}
	if raw := q.Get("basin"); raw != "" {
		basin, err := domain.ParseBasin(raw)
		if err != nil {
			return archive.Filter{}, err
		}
		filter.Basin = basin
	}
	if raw := q.Get("classification"); raw != "" {
		class, err := domain.ParseClassification(raw)
		if err != nil {
			return archive.Filter{}, err
		}
		filter.Classification = class
	}
	filter.Name = q.Get("name")

	if raw := q.Get("box"); raw != "" {
		box, err := parseBox(raw)
		if err != nil {
			return archive.Filter{}, err
		}
		filter.Box = box
	}
	return filter, nil
}

// parseBox reads "latmin,latmax,lonmin,lonmax".
func parseBox(raw string) (*domain.Box, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("box wants latmin,latmax,lonmin,lonmax, got %q", raw)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("box wants latmin,latmax,lonmin,lonmax, got %q", raw)
		}
		vals[i] = v
	}
	if vals[0] > vals[1] {
		return nil, fmt.Errorf("box latitude range %v..%v is inverted", vals[0], vals[1])
	}
	return &domain.Box{LatMin: vals[0], LatMax: vals[1], LonMin: vals[2], LonMax: vals[3]}, nil
}

func (s *Server) summarize(storm *domain.Storm) stormSummary {
	return stormSummary{
		ID:          storm.SID,
		Name:        storm.Name,
		Season:      storm.Season,
		Basin:       string(storm.Basin),
		Genesis:     storm.Genesis.Format(domain.TimeLayout),
		Points:      storm.Points(),
		MaxWind:     storm.MaxWind(),
		MinPressure: storm.MinPressure(),
		ACE:         storm.ACE(s.subtropicalACE),
	}
}

func (s *Server) detail(storm *domain.Storm) stormDetail {
	d := stormDetail{
		ID:          storm.SID,
		Name:        storm.Name,
		Season:      storm.Season,
		Basin:       string(storm.Basin),
		Subbasin:    string(storm.Subbasin),
		Genesis:     storm.Genesis.Format(domain.TimeLayout),
		Points:      storm.Points(),
		MaxWind:     storm.MaxWind(),
		MinPressure: storm.MinPressure(),
		ACE:         storm.ACE(s.subtropicalACE),
	}
	if storm.ATCFID != "" {
		d.ATCFID = &storm.ATCFID
	}
	for _, agency := range storm.Agencies {
		d.Agencies = append(d.Agencies, string(agency))
	}

	d.Track = make([]trackPoint, storm.Points())
	for i := range storm.Times {
		prov := make(map[string]string, len(storm.Provenance[i]))
		for field, agency := range storm.Provenance[i] {
			prov[string(field)] = string(agency)
		}
		radii := storm.Radii[i]
		d.Track[i] = trackPoint{
			Time:           storm.Times[i].Format(domain.TimeLayout),
			Lat:            storm.Lats[i],
			Lon:            storm.Lons[i],
			Wind:           storm.Winds[i],
			Pressure:       storm.Pressures[i],
			Classification: string(storm.Classifications[i]),
			Basin:          string(storm.Basins[i]),
			Subbasin:       string(storm.Subbasins[i]),
			Speed:          storm.Speeds[i],
			RMW:            storm.RMWs[i],
			DistToLand:     storm.DistsToLand[i],
			Radii: radiiJSON{
				R34: quadrants(radii.R34),
				R50: quadrants(radii.R50),
				R64: quadrants(radii.R64),
			},
			Provenance: prov,
		}
	}
	return d
}

func quadrants(q domain.Quadrants) quadrantsJSON {
	return quadrantsJSON{NE: q.NE, SE: q.SE, SW: q.SW, NW: q.NW}
}
