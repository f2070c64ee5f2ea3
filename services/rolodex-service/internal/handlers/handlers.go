package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/rolodex/libs/httpx"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/outbox"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/storage"
)

// Store is the party directory as the API sees it.
type Store interface {
	ListParties(ctx context.Context, page storage.Page) ([]storage.Party, error)
	GetParty(ctx context.Context, partyID int64) (storage.Party, error)
	ListPartyAddresses(ctx context.Context, partyID int64) ([]storage.Address, error)
	ListPartyRelationships(ctx context.Context, partyID int64) ([]storage.Relationship, error)
	ListPartyExternalIdentifiers(ctx context.Context, partyID int64) ([]storage.ExternalIdentifier, error)

	ListPersons(ctx context.Context, page storage.Page) ([]storage.Person, error)
	GetPerson(ctx context.Context, partyID int64) (storage.Person, error)
	CreatePerson(ctx context.Context, in storage.Person) (storage.Person, error)
	UpdatePerson(ctx context.Context, partyID int64, in storage.Person) (storage.Person, error)
	DeletePerson(ctx context.Context, partyID int64) error

	ListOrganisations(ctx context.Context, page storage.Page) ([]storage.Organisation, error)
	GetOrganisation(ctx context.Context, partyID int64) (storage.Organisation, error)
	CreateOrganisation(ctx context.Context, in storage.Organisation) (storage.Organisation, error)
	UpdateOrganisation(ctx context.Context, partyID int64, in storage.Organisation) (storage.Organisation, error)
	DeleteOrganisation(ctx context.Context, partyID int64) error

	ListAddresses(ctx context.Context, page storage.Page) ([]storage.Address, error)
	GetAddress(ctx context.Context, addressID int64) (storage.Address, error)
	CreateAddress(ctx context.Context, in storage.Address) (storage.Address, error)
	DeleteAddress(ctx context.Context, addressID int64) error
	ListAddressParties(ctx context.Context, addressID int64) ([]storage.Party, error)

	ListPartyAddressLinks(ctx context.Context, page storage.Page) ([]storage.PartyAddress, error)
	GetPartyAddressLink(ctx context.Context, partyID, addressID int64) (storage.PartyAddress, error)
	LinkPartyAddress(ctx context.Context, partyID, addressID int64) (storage.PartyAddress, error)
	UnlinkPartyAddress(ctx context.Context, partyID, addressID int64) error

	ListRelationships(ctx context.Context, page storage.Page) ([]storage.Relationship, error)
	GetRelationship(ctx context.Context, id int64) (storage.Relationship, error)
	CreateRelationship(ctx context.Context, in storage.Relationship) (storage.Relationship, error)
	DeleteRelationship(ctx context.Context, id int64) (storage.Relationship, error)

	ListExternalIdentifiers(ctx context.Context, page storage.Page) ([]storage.ExternalIdentifier, error)
	GetExternalIdentifier(ctx context.Context, id int64) (storage.ExternalIdentifier, error)
	CreateExternalIdentifier(ctx context.Context, partyID int64, systemName, externalID string) (storage.ExternalIdentifier, error)
	DeleteExternalIdentifier(ctx context.Context, id int64) (storage.ExternalIdentifier, error)
}

// OutboxStats reports relay backlog.
type OutboxStats interface {
	Stats(ctx context.Context) (outbox.Stats, error)
}

type Handler struct {
	store    Store
	outbox   OutboxStats
	logger   *slog.Logger
	validate *validator.Validate
}

func New(store Store, outboxStats OutboxStats, logger *slog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names in validation errors
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{store: store, outbox: outboxStats, logger: logger, validate: v}
}

// decode reads and validates a JSON body. It writes the error response and
// returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return h.check(w, dst)
}

func (h *Handler) check(w http.ResponseWriter, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	httpx.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation failed",
		"detail": details,
	})
	return false
}

// fail maps a store error to a response. notFound is the 404 message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, notFound, http.StatusNotFound)
	case errors.Is(err, storage.ErrConflict):
		http.Error(w, "resource already exists", http.StatusConflict)
	case errors.Is(err, storage.ErrUnknownReference):
		http.Error(w, "referenced party or address does not exist", http.StatusUnprocessableEntity)
	default:
		h.logger.Error("request failed",
			"err", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, fmt.Sprintf("invalid %s", name), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func pageFrom(w http.ResponseWriter, r *http.Request) (storage.Page, bool) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return storage.Page{}, false
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit == 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return storage.Page{}, false
	}
	return storage.Page{Skip: skip, Limit: limit}, true
}
