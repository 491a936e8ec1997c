package pos

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

const (
	HeaderActorID    = "X-Actor-Id"
	HeaderActorName  = "X-Actor-Name"
	HeaderActorRoles = "X-Actor-Roles"
)

// Handler is the thin HTTP surface over the order service. It decodes
// commands, hands them to the service, and renders snapshots; every piece of
// business logic lives below it.
type Handler struct {
	logger  apt.Logger
	config  *apt.Config
	tlm     *telemetry.HTTP
	service *OrderService
}

func NewHandler(service *OrderService, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		logger:  logger,
		config:  config,
		tlm:     telemetry.NewHTTP(),
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.OpenOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/close", h.CloseOrder)

		r.Route("/{orderID}/items", func(r chi.Router) {
			r.Post("/", h.AddItem)
			r.Put("/{itemID}", h.UpdateItem)
			r.Delete("/{itemID}", h.RemoveItem)
		})
	})

	r.Get("/tables", h.ListTables)

	r.Route("/food", func(r chi.Router) {
		r.Get("/", h.ListMenu)
		r.Post("/", h.CreateMenuItem)
		r.Put("/{id}", h.UpdateMenuItem)
		r.Delete("/{id}", h.DeleteMenuItem)
	})
}

// Order handlers

func (h *Handler) OpenOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeOrderOpenPayload(w, r, log)
	if !ok {
		return
	}

	if errs := ValidateOrderOpen(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	snapshot, err := h.service.OpenOrder(ctx, actor, req.TableID)
	if err != nil {
		h.respondFailure(w, log, err, "cannot open order")
		return
	}

	links := apt.RESTfulLinksFor(snapshot)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, snapshot, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	snapshot, err := h.service.GetOrder(ctx, actor, id)
	if err != nil {
		h.respondFailure(w, log, err, "cannot get order")
		return
	}

	links := apt.RESTfulLinksFor(snapshot)
	apt.RespondSuccess(w, snapshot, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	search := r.URL.Query().Get("search")

	snapshots, err := h.service.ListOrders(ctx, actor, status, search)
	if err != nil {
		h.respondFailure(w, log, err, "cannot list orders")
		return
	}

	apt.RespondCollection(w, snapshots, "order")
}

func (h *Handler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	snapshot, err := h.service.CloseOrder(ctx, actor, id)
	if err != nil {
		h.respondFailure(w, log, err, "cannot close order")
		return
	}

	log.Info("order closed", "order_id", id.String(), "total", snapshot.Total)
	links := apt.RESTfulLinksFor(snapshot)
	apt.RespondSuccess(w, snapshot, links...)
}

// Line item handlers

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	orderID, ok := h.parseOrderIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeItemAddPayload(w, r, log)
	if !ok {
		return
	}

	if errs := ValidateItemAdd(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	snapshot, err := h.service.AddItem(ctx, actor, orderID, AddItemRequest{
		MenuItemID: req.FoodID,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		DedupToken: req.DedupToken,
	})
	if err != nil {
		h.respondFailure(w, log, err, "cannot add item")
		return
	}

	links := apt.RESTfulLinksFor(snapshot)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, snapshot, links...)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	orderID, ok := h.parseOrderIDParam(w, r, log)
	if !ok {
		return
	}

	itemID, ok := h.parseItemIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeItemUpdatePayload(w, r, log)
	if !ok {
		return
	}

	snapshot, err := h.service.UpdateItem(ctx, actor, orderID, itemID, UpdateItemRequest{
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		h.respondFailure(w, log, err, "cannot update item")
		return
	}

	links := apt.RESTfulLinksFor(snapshot)
	apt.RespondSuccess(w, snapshot, links...)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	orderID, ok := h.parseOrderIDParam(w, r, log)
	if !ok {
		return
	}

	itemID, ok := h.parseItemIDParam(w, r, log)
	if !ok {
		return
	}

	snapshot, err := h.service.RemoveItem(ctx, actor, orderID, itemID)
	if err != nil {
		h.respondFailure(w, log, err, "cannot remove item")
		return
	}

	links := apt.RESTfulLinksFor(snapshot)
	apt.RespondSuccess(w, snapshot, links...)
}

// Table handlers

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	snapshots, err := h.service.ListTables(ctx, actor)
	if err != nil {
		h.respondFailure(w, log, err, "cannot list tables")
		return
	}

	apt.RespondCollection(w, snapshots, "table")
}

// Catalog handlers

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenu")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	items, err := h.service.ListMenu(ctx, actor)
	if err != nil {
		h.respondFailure(w, log, err, "cannot list menu")
		return
	}

	apt.RespondCollection(w, items, "food")
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeMenuItemPayload(w, r, log)
	if !ok {
		return
	}

	if errs := ValidateMenuItemUpsert(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	item := NewMenuItem()
	item.Name = req.Name
	item.Category = req.Category
	item.Price = req.Price
	item.ImageURL = req.ImageURL
	if req.Active != nil {
		item.Active = *req.Active
	}

	created, err := h.service.CreateMenuItem(ctx, actor, item)
	if err != nil {
		h.respondFailure(w, log, err, "cannot create menu item")
		return
	}

	links := apt.RESTfulLinksFor(created)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, created, links...)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeMenuItemPayload(w, r, log)
	if !ok {
		return
	}

	if errs := ValidateMenuItemUpsert(ctx, req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	item, err := h.service.GetMenuItem(ctx, actor, id)
	if err != nil {
		h.respondFailure(w, log, err, "cannot load menu item")
		return
	}

	item.Name = req.Name
	item.Category = req.Category
	item.Price = req.Price
	item.ImageURL = req.ImageURL
	if req.Active != nil {
		item.Active = *req.Active
	}

	updated, err := h.service.UpdateMenuItem(ctx, actor, item)
	if err != nil {
		h.respondFailure(w, log, err, "cannot update menu item")
		return
	}

	links := apt.RESTfulLinksFor(updated)
	apt.RespondSuccess(w, updated, links...)
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	actor, ok := h.actorFrom(w, r, log)
	if !ok {
		return
	}

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DeleteMenuItem(ctx, actor, id); err != nil {
		h.respondFailure(w, log, err, "cannot delete menu item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// actorFrom reads the staff identity the authenticating edge attached to the
// request. The engine never authenticates; it only authorizes.
func (h *Handler) actorFrom(w http.ResponseWriter, r *http.Request, log apt.Logger) (Actor, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderActorID))
	if id == "" {
		log.Debug("missing actor identity")
		apt.RespondError(w, http.StatusUnauthorized, "Missing actor identity")
		return Actor{}, false
	}

	var roles []string
	for _, role := range strings.Split(r.Header.Get(HeaderActorRoles), ",") {
		role = strings.TrimSpace(strings.ToLower(role))
		if role != "" {
			roles = append(roles, role)
		}
	}

	return Actor{
		ID:    id,
		Name:  strings.TrimSpace(r.Header.Get(HeaderActorName)),
		Roles: roles,
	}, true
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	return h.parseUUIDParam(w, r, log, "id")
}

func (h *Handler) parseOrderIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	return h.parseUUIDParam(w, r, log, "orderID")
}

func (h *Handler) parseItemIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	return h.parseUUIDParam(w, r, log, "itemID")
}

func (h *Handler) parseUUIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		log.Debug("missing url parameter", "param", name)
		apt.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Debug("invalid url parameter", "param", name, "value", raw)
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}

	return id, true
}

// respondFailure maps a typed engine failure onto its HTTP status. Anything
// without a kind is a programming surprise and answers 500.
func (h *Handler) respondFailure(w http.ResponseWriter, log apt.Logger, err error, msg string) {
	status := statusForKind(KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Debug(msg, "error", err)
	}
	apt.RespondError(w, status, err.Error())
}

func statusForKind(kind Kind) int {
	switch kind {
	case KindAlreadyOccupied, KindOrderClosed:
		return http.StatusConflict
	case KindEmptyOrder, KindInvalidQuantity, KindUnknownMenuItem:
		return http.StatusUnprocessableEntity
	case KindLineItemNotFound, KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBusy, KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Payload decoders

type OrderOpenRequest struct {
	TableID uuid.UUID `json:"table_id"`
}

type ItemAddRequest struct {
	FoodID     uuid.UUID `json:"food_id"`
	Quantity   int       `json:"quantity"`
	Notes      string    `json:"notes,omitempty"`
	DedupToken string    `json:"dedup_token,omitempty"`
}

type ItemUpdateRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type MenuItemRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

func (h *Handler) decodeOrderOpenPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OrderOpenRequest, bool) {
	var req OrderOpenRequest
	if !h.decodeJSON(w, r, log, &req) {
		return OrderOpenRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeItemAddPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (ItemAddRequest, bool) {
	var req ItemAddRequest
	if !h.decodeJSON(w, r, log, &req) {
		return ItemAddRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeItemUpdatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (ItemUpdateRequest, bool) {
	var req ItemUpdateRequest
	if !h.decodeJSON(w, r, log, &req) {
		return ItemUpdateRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeMenuItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (MenuItemRequest, bool) {
	var req MenuItemRequest
	if !h.decodeJSON(w, r, log, &req) {
		return MenuItemRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, log apt.Logger, target interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}
