package handlers

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/services"
)

// datastarParam is the query parameter datastar uses for signals on GET.
const datastarParam = "datastar"

// filterFromRequest reads the active filter. Datastar requests carry it as
// signals; plain links and API calls use query parameters.
func filterFromRequest(r *http.Request) (services.FilterParams, services.Query, error) {
	var (
		params services.FilterParams
		err    error
	)
	if r.URL.Query().Has(datastarParam) {
		err = datastar.ReadSignals(r, &params)
	} else {
		params, err = services.ParseFilterParams(r.URL.Query())
	}
	if err != nil {
		return params, services.Query{}, apperrors.ValidationWrap(err, "Invalid filter parameters").WithDetails(err.Error())
	}

	q, err := params.Query()
	if err != nil {
		return params, services.Query{}, apperrors.ValidationWrap(err, "Invalid filter parameters").WithDetails(err.Error())
	}
	return params, q, nil
}
