package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// climateQuery holds query parameters of the aggregate endpoint.
type climateQuery struct {
	Lat       *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	Lon       *float64 `query:"lon" validate:"required,gte=-180,lte=180"`
	StartYear int      `query:"startYear" validate:"omitempty,gte=1750,lte=2200"`
	EndYear   int      `query:"endYear" validate:"omitempty,gte=1750,lte=2200"`
	Country   string   `query:"country" validate:"omitempty,len=3,alpha"`
	Scope     string   `query:"scope" validate:"omitempty,oneof=global local"`
}

func (q climateQuery) toQuery() climate.Query {
	return climate.Query{
		Lat:       *q.Lat,
		Lon:       *q.Lon,
		StartYear: q.StartYear,
		EndYear:   q.EndYear,
		Country:   upper(q.Country),
		Global:    q.Scope == "global",
	}
}

// pollutionHistoryQuery holds query parameters for the pollution history endpoint.
type pollutionHistoryQuery struct {
	Lat  float64   `validate:"gte=-90,lte=90"`
	Lon  float64   `validate:"gte=-180,lte=180"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *pollutionHistoryQuery) bind(c *fiber.Ctx) error {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errors.New("lon must be a number")
	}
	h.Lat, h.Lon = lat, lon

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

type colorScaleQuery struct {
	Steps int `query:"steps" validate:"gte=2,lte=100"`
}

type colorValueQuery struct {
	Value *float64 `query:"v" validate:"required"`
}

// ndviRequest is the body of the NDVI grid endpoint.
type ndviRequest struct {
	Date       string `json:"date"`
	Resolution int    `json:"resolution"`
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
