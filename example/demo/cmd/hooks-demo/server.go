package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/postgresengine"
	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/requestcontext"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type documentHandlers struct {
	client *dbhooks.Client
}

func newRouter(client *dbhooks.Client) http.Handler {
	h := documentHandlers{client: client}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requireTenant)
	router.Use(requestcontext.Middleware())

	router.Route("/documents", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/count", h.count)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.delete)
	})

	return router
}

func requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerTenantID) == "" {
			writeError(w, http.StatusBadRequest, errMissingTenant)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h documentHandlers) list(w http.ResponseWriter, r *http.Request) {
	args := postgresengine.QueryArgs{
		OrderBy: []postgresengine.OrderBy{{Column: "created_at", Desc: true}},
	}

	if take, err := strconv.Atoi(r.URL.Query().Get("take")); err == nil && take > 0 {
		args.Take = take
	}

	h.respond(w, r, dbhooks.FindMany, args, http.StatusOK)
}

func (h documentHandlers) count(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, dbhooks.Count, postgresengine.QueryArgs{}, http.StatusOK)
}

func (h documentHandlers) get(w http.ResponseWriter, r *http.Request) {
	args, ok := byID(w, r)
	if !ok {
		return
	}

	h.respond(w, r, dbhooks.FindFirstOrThrow, args, http.StatusOK)
}

func (h documentHandlers) delete(w http.ResponseWriter, r *http.Request) {
	args, ok := byID(w, r)
	if !ok {
		return
	}

	h.respond(w, r, dbhooks.Delete, args, http.StatusOK)
}

func (h documentHandlers) create(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := jsonAPI.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.respond(w, r, dbhooks.Create, postgresengine.QueryArgs{Data: data}, http.StatusCreated)
}

func (h documentHandlers) respond(
	w http.ResponseWriter,
	r *http.Request,
	operation dbhooks.Operation,
	args postgresengine.QueryArgs,
	status int,
) {
	result, err := h.client.Run(r.Context(), modelDocument, operation, args)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}

	writeJSON(w, status, result)
}

func byID(w http.ResponseWriter, r *http.Request) (postgresengine.QueryArgs, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return postgresengine.QueryArgs{}, false
	}

	return postgresengine.QueryArgs{Where: map[string]any{"id": id}}, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, postgresengine.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, postgresengine.ErrMissingData), errors.Is(err, postgresengine.ErrUnsupportedArgs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonAPI.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
