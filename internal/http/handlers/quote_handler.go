// README: Stateless quote handler: runs the engine over a throwaway draft.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"charter/internal/modules/booking"
	"charter/internal/types"
)

type QuoteHandler struct {
	pricing booking.SnapshotSource
}

func NewQuoteHandler(src booking.SnapshotSource) *QuoteHandler {
	return &QuoteHandler{pricing: src}
}

// Quote prices a hypothetical booking from query parameters without creating
// a session. Stop counts occupy that many slots so per-stop defaults and the
// aggregate surcharge both apply.
func (h *QuoteHandler) Quote(c *gin.Context) {
	pickupStops, ok := stopCountParam(c, "pickup_stops")
	if !ok {
		return
	}
	dropoffStops, ok := stopCountParam(c, "dropoff_stops")
	if !ok {
		return
	}

	draft := booking.Draft{
		CustomerID:    types.ID(c.Query("customer_id")),
		ServiceID:     types.ID(c.Query("service_id")),
		ServiceName:   c.Query("service_name"),
		VehicleTypeID: types.ID(c.Query("vehicle_type_id")),
		ContractorID:  types.ID(c.Query("contractor_id")),
		PickupTime:    c.Query("pickup_time"),
	}
	for i := 0; i < pickupStops; i++ {
		draft.PickupStops[i].Location = "stop"
	}
	for i := 0; i < dropoffStops; i++ {
		draft.DropoffStops[i].Location = "stop"
	}

	snap, err := h.pricing.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "pricing unavailable")
		return
	}
	quote := booking.Recompute(&draft, booking.NewEditSet(), snap)
	c.JSON(http.StatusOK, gin.H{"draft": draft, "quote": quote})
}

func stopCountParam(c *gin.Context, name string) (int, bool) {
	raw := c.DefaultQuery(name, "0")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > booking.MaxStops {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
