// README: Session handlers: create/get/mutate/save/cancel a booking draft.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"charter/internal/modules/booking"
	"charter/internal/types"
)

type SessionHandler struct {
	booking *booking.Service
}

func NewSessionHandler(svc *booking.Service) *SessionHandler {
	return &SessionHandler{booking: svc}
}

// sessionResponse is the shape every session endpoint returns: the current
// draft plus the freshly derived quote breakdown.
type sessionResponse struct {
	Session *booking.Session `json:"session"`
	Quote   booking.Quote    `json:"quote"`
}

type createSessionReq struct {
	FromBookingID string `json:"from_booking_id"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	sess, quote, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		FromBookingID: types.ID(req.FromBookingID),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Session: sess, Quote: quote})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, quote, err := h.booking.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: sess, Quote: quote})
}

type stopPriceEditReq struct {
	Leg   string      `json:"leg"`
	Index int         `json:"index"`
	Price types.Money `json:"price"`
}

// updateSessionReq mirrors booking.Mutation: absent fields stay untouched,
// money amounts are minor units.
type updateSessionReq struct {
	CustomerID    *string `json:"customer_id"`
	ServiceID     *string `json:"service_id"`
	ServiceName   *string `json:"service_name"`
	VehicleTypeID *string `json:"vehicle_type_id"`
	ContractorID  *string `json:"contractor_id"`

	PickupDate *string `json:"pickup_date"`
	PickupTime *string `json:"pickup_time"`

	BasePrice          *types.Money            `json:"base_price"`
	MidnightSurcharge  *types.Money            `json:"midnight_surcharge"`
	AdditionalDiscount *types.Money            `json:"additional_discount"`
	ExtraServices      *[]booking.ExtraService `json:"extra_services"`
	JobCost            *types.Money            `json:"job_cost"`
	CashToCollect      *types.Money            `json:"cash_to_collect"`

	StopPrices []stopPriceEditReq `json:"stop_prices"`
}

func (h *SessionHandler) Update(c *gin.Context) {
	var req updateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	m := booking.Mutation{
		ServiceName:        req.ServiceName,
		PickupDate:         req.PickupDate,
		PickupTime:         req.PickupTime,
		BasePrice:          req.BasePrice,
		MidnightSurcharge:  req.MidnightSurcharge,
		AdditionalDiscount: req.AdditionalDiscount,
		ExtraServices:      req.ExtraServices,
		JobCost:            req.JobCost,
		CashToCollect:      req.CashToCollect,
	}
	m.CustomerID = toIDPtr(req.CustomerID)
	m.ServiceID = toIDPtr(req.ServiceID)
	m.VehicleTypeID = toIDPtr(req.VehicleTypeID)
	m.ContractorID = toIDPtr(req.ContractorID)
	for _, e := range req.StopPrices {
		leg, ok := parseLeg(e.Leg)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid stop leg")
			return
		}
		m.StopPrices = append(m.StopPrices, booking.StopPriceEdit{Leg: leg, Index: e.Index, Price: e.Price})
	}

	sess, quote, err := h.booking.Apply(c.Request.Context(), types.ID(c.Param("id")), m)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: sess, Quote: quote})
}

type addStopReq struct {
	Leg      string `json:"leg"`
	Location string `json:"location"`
}

func (h *SessionHandler) AddStop(c *gin.Context) {
	var req addStopReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	leg, ok := parseLeg(req.Leg)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid stop leg")
		return
	}
	sess, quote, err := h.booking.AddStop(c.Request.Context(), types.ID(c.Param("id")), booking.AddStopCommand{
		Leg:      leg,
		Location: req.Location,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: sess, Quote: quote})
}

func (h *SessionHandler) RemoveStop(c *gin.Context) {
	leg, ok := parseLeg(c.Param("leg"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid stop leg")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid stop index")
		return
	}
	sess, quote, err := h.booking.RemoveStop(c.Request.Context(), types.ID(c.Param("id")), booking.RemoveStopCommand{
		Leg:   leg,
		Index: index,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: sess, Quote: quote})
}

func (h *SessionHandler) Save(c *gin.Context) {
	bookingID, err := h.booking.Save(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": bookingID})
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	if err := h.booking.Cancel(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeBookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseLeg(s string) (booking.StopLeg, bool) {
	switch booking.StopLeg(s) {
	case booking.LegPickup:
		return booking.LegPickup, true
	case booking.LegDropoff:
		return booking.LegDropoff, true
	}
	return "", false
}

func toIDPtr(s *string) *types.ID {
	if s == nil {
		return nil
	}
	id := types.ID(*s)
	return &id
}
