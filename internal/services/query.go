package services

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"superstore-dashboard/internal/analytics"
)

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Query is one dashboard request: the active filter plus presentation knobs.
// Zero TopN and Horizon fall back to the configured defaults.
type Query struct {
	Filter  analytics.Filter
	TopN    int
	Horizon int
}

// FilterParams is the wire form of a Query, as sent in a URL query string or
// in datastar signals.
type FilterParams struct {
	From    string   `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To      string   `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Regions []string `json:"regions" validate:"max=64,dive,max=128"`
	Mode    string   `json:"mode" validate:"omitempty,oneof=all none only"`
	Top     int      `json:"top" validate:"omitempty,min=1,max=100"`
	Horizon int      `json:"horizon" validate:"omitempty,min=1,max=24"`
}

// ParseFilterParams reads from, to, region (repeatable), regions, top and
// horizon from a query string.
func ParseFilterParams(values url.Values) (FilterParams, error) {
	p := FilterParams{
		From:    strings.TrimSpace(values.Get("from")),
		To:      strings.TrimSpace(values.Get("to")),
		Regions: values["region"],
		Mode:    strings.TrimSpace(values.Get("regions")),
	}

	var err error
	if p.Top, err = atoiParam(values, "top"); err != nil {
		return p, err
	}
	if p.Horizon, err = atoiParam(values, "horizon"); err != nil {
		return p, err
	}
	return p, nil
}

func atoiParam(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

// Validate checks field formats and ranges, then that the date range is not
// inverted.
func (p FilterParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check", strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	if p.From != "" && p.To != "" && p.To < p.From {
		return fmt.Errorf("invalid date range: to %s is before from %s", p.To, p.From)
	}
	return nil
}

// Query validates p and converts it. An unset mode follows the dashboard
// convention: no regions selected means every region.
func (p FilterParams) Query() (Query, error) {
	if err := p.Validate(); err != nil {
		return Query{}, err
	}

	q := Query{TopN: p.Top, Horizon: p.Horizon}
	q.Filter.From, _ = parseDate(p.From)
	q.Filter.To, _ = parseDate(p.To)

	switch p.Mode {
	case "all":
		q.Filter.Regions = analytics.RegionsAll()
	case "none":
		q.Filter.Regions = analytics.RegionsNone()
	case "only":
		q.Filter.Regions = analytics.RegionsOnly(p.Regions...)
	default:
		q.Filter.Regions = analytics.RegionsFromSelection(p.Regions)
	}
	return q, nil
}

// Encode renders p as a query string understood by ParseFilterParams.
func (p FilterParams) Encode() string {
	v := url.Values{}
	if p.From != "" {
		v.Set("from", p.From)
	}
	if p.To != "" {
		v.Set("to", p.To)
	}
	for _, r := range p.Regions {
		if r != "" {
			v.Add("region", r)
		}
	}
	if p.Mode != "" {
		v.Set("regions", p.Mode)
	}
	if p.Top > 0 {
		v.Set("top", strconv.Itoa(p.Top))
	}
	if p.Horizon > 0 {
		v.Set("horizon", strconv.Itoa(p.Horizon))
	}
	return v.Encode()
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
