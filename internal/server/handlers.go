package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/service"
	"github.com/jdeck/cashflow/internal/storage"
)

// handlers holds the services the HTTP layer dispatches to.
type handlers struct {
	ledger *service.LedgerService
	flows  *service.FlowService
	table  currency.Table
}

type upsertUserRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	PhotoURL    string `json:"photo_url"`
}

type createEventRequest struct {
	Name     string `json:"name" binding:"required"`
	Cost     string `json:"cost" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

type addPaymentRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Paid     string `json:"paid" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

// crossRate is one conversion rate row in the currencies listing.
type crossRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

type currencyView struct {
	currency.Currency
	Rates []crossRate `json:"rates"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listCurrencies returns the table with the value of one unit of each
// currency expressed in every other currency.
func (h *handlers) listCurrencies(c *gin.Context) {
	currencies := h.table.Currencies()
	views := make([]currencyView, 0, len(currencies))
	for _, cur := range currencies {
		view := currencyView{Currency: cur}
		for _, other := range currencies {
			if other.Code == cur.Code {
				continue
			}
			rate, err := h.table.Convert(1, cur.Code, other.Code)
			if err != nil {
				h.fail(c, err)
				return
			}
			view.Rates = append(view.Rates, crossRate{Currency: other.Code, Rate: rate})
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"currencies": views})
}

func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.ledger.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	views := make([]service.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, service.UserView{ID: u.ID, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL})
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

func (h *handlers) upsertUser(c *gin.Context) {
	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.ledger.UpsertUser(c.Request.Context(), c.Param("id"), req.DisplayName, req.PhotoURL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": service.UserView{ID: user.ID, DisplayName: user.DisplayName, PhotoURL: user.PhotoURL}})
}

func (h *handlers) listEvents(c *gin.Context) {
	summaries, err := h.flows.EventSummaries(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": summaries})
}

func (h *handlers) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event, err := h.ledger.CreateEvent(c.Request.Context(), req.Name, req.Cost, req.Currency)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event_id": event.ID})
}

func (h *handlers) disableEvent(c *gin.Context) {
	if err := h.ledger.DisableEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) addSplitter(c *gin.Context) {
	splitter, err := h.ledger.AddSplitter(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"splitter_id": splitter.ID})
}

func (h *handlers) removeSplitter(c *gin.Context) {
	if err := h.ledger.RemoveSplitter(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) addPayment(c *gin.Context) {
	var req addPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := h.ledger.AddPayment(c.Request.Context(), c.Param("id"), req.UserID, req.Paid, req.Currency)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment_id": payment.ID})
}

func (h *handlers) deletePayment(c *gin.Context) {
	if err := h.ledger.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) computeFlows(c *gin.Context) {
	report, err := h.flows.ComputeFlows(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// fail maps service errors onto HTTP statuses: bad monetary input is the
// client's fault, missing records are 404, everything else is internal.
func (h *handlers) fail(c *gin.Context, err error) {
	var unknownCurrency *currency.UnknownCurrencyError
	var malformedAmount *currency.MalformedAmountError

	switch {
	case errors.As(err, &unknownCurrency), errors.As(err, &malformedAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
