package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/delivery"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// Handler exposes the engine over HTTP. Every internal failure is converted
// into the tagged result envelope; nothing leaks past this boundary.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Logger   zerolog.Logger
}

type deliveryQuoteInput struct {
	Items  []LineInput `json:"items" validate:"required,min=1,dive"`
	Region string      `json:"region,omitempty"`
}

// Totals handles POST /v1/checkout/totals.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		h.writeFailure(w, errors.New("checkout service not configured"))
		return
	}
	var in TotalsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeInvalid(w, "invalid payload")
		return
	}
	if err := h.validate(in); err != nil {
		h.writeInvalid(w, "items are required and every quantity must be a positive integer")
		return
	}
	totals, err := h.Svc.CalculateOrderTotals(r.Context(), in)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if totals.CouponReason != "" {
		obs.CouponRejections.WithLabelValues(totals.CouponReason).Inc()
	}
	obs.QuoteTotal.WithLabelValues("ok").Inc()
	common.JSONResult(w, http.StatusOK, totals)
}

// ListDeliveryOptions handles GET /v1/delivery-options: the full catalog,
// used to populate a selection UI before totals are known.
func (h *Handler) ListDeliveryOptions(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		h.writeFailure(w, errors.New("checkout service not configured"))
		return
	}
	options, err := h.Svc.DeliveryOptions(r.Context(), nil, "")
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeOptions(w, options)
}

// QuoteDeliveryOptions handles POST /v1/delivery-options/quote: options
// filtered by eligibility for the supplied cart.
func (h *Handler) QuoteDeliveryOptions(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		h.writeFailure(w, errors.New("checkout service not configured"))
		return
	}
	var in deliveryQuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeInvalid(w, "invalid payload")
		return
	}
	if err := h.validate(in); err != nil {
		h.writeInvalid(w, "items are required and every quantity must be a positive integer")
		return
	}
	options, err := h.Svc.DeliveryOptions(r.Context(), in.Items, in.Region)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeOptions(w, options)
}

func (h *Handler) writeOptions(w http.ResponseWriter, options []delivery.Option) {
	if options == nil {
		options = []delivery.Option{}
	}
	common.JSONResult(w, http.StatusOK, options)
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func (h *Handler) writeInvalid(w http.ResponseWriter, msg string) {
	obs.QuoteTotal.WithLabelValues("invalid_input").Inc()
	common.JSONFailure(w, http.StatusBadRequest, msg)
}

// writeFailure maps domain errors onto the tagged failure envelope with a
// single human-readable message. Anything unrecognised is an internal data
// error: logged in full, reported generically.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var (
		unavailable pricing.ItemUnavailableError
		stock       pricing.InsufficientStockError
		notFound    delivery.OptionNotFoundError
	)
	switch {
	case errors.As(err, &unavailable):
		obs.QuoteTotal.WithLabelValues("item_unavailable").Inc()
		common.JSONFailure(w, http.StatusConflict, unavailable.Error())
	case errors.As(err, &stock):
		obs.QuoteTotal.WithLabelValues("insufficient_stock").Inc()
		common.JSONFailure(w, http.StatusConflict, stock.Error())
	case errors.As(err, &notFound):
		obs.QuoteTotal.WithLabelValues("delivery_option_not_found").Inc()
		common.JSONFailure(w, http.StatusUnprocessableEntity, notFound.Error())
	case errors.Is(err, ErrEmptyCart), errors.Is(err, pricing.ErrInvalidQuantity):
		obs.QuoteTotal.WithLabelValues("invalid_input").Inc()
		common.JSONFailure(w, http.StatusBadRequest, err.Error())
	default:
		obs.QuoteTotal.WithLabelValues("internal").Inc()
		h.Logger.Error().Err(err).Msg("totals calculation failed")
		common.JSONFailure(w, http.StatusInternalServerError, "internal error, please retry")
	}
}
