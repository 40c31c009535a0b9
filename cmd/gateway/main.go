package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"paper-rag/internal/app"
	"paper-rag/internal/httputil"
	"paper-rag/internal/llm"
	"paper-rag/internal/rag"
	"paper-rag/internal/store"
)

type chatRequest struct {
	Messages []llm.Message `json:"messages" validate:"required,min=1,dive"`
}

type sourceRequest struct {
	ObjectID   string `json:"object_id" validate:"required"`
	Collection string `json:"collection" validate:"required"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	answerer, err := deps.Answerer()
	if err != nil {
		deps.Log.Error("failed to build answerer", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps.Log, answerer, deps.Store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httputil.Serve(ctx, srv, deps.Log); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(log *slog.Logger, answerer rag.Answerer, st store.Store) chi.Router {
	r := httputil.NewRouter(log)
	r.Get("/", rootHandler)
	r.Get("/healthz", httputil.HealthHandler(log))
	r.Post("/api/chat", chatHandler(log, answerer))
	r.Post("/api/sources", sourcesHandler(log, st))
	return r
}

func rootHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "QA backend is running"})
}

func chatHandler(log *slog.Logger, answerer rag.Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(log, w, err)
			return
		}

		resp, err := answerer.Answer(r.Context(), req.Messages)
		if errors.Is(err, rag.ErrNoQuestion) {
			httputil.Fail(log, w, "conversation has no user message", err, http.StatusBadRequest)
			return
		}
		if err != nil {
			httputil.Fail(log, w, "failed to answer", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func sourcesHandler(log *slog.Logger, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(log, w, err)
			return
		}

		props, err := st.GetObject(r.Context(), req.Collection, req.ObjectID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.Fail(log, w, "object not found", err, http.StatusNotFound)
			return
		case errors.Is(err, store.ErrUnknownCollection):
			httputil.Fail(log, w, "unknown collection", err, http.StatusBadRequest)
			return
		case err != nil:
			httputil.Fail(log, w, "failed to fetch object", err, http.StatusInternalServerError)
			return
		}

		cols := st.Collections()
		if req.Collection == cols.Chunks {
			mergeParent(r.Context(), log, st, cols.Papers, props)
		}
		httputil.WriteJSON(w, http.StatusOK, props)
	}
}

// mergeParent copies the parent paper's title, date and url into a chunk's
// properties. Lookup failures only get logged.
func mergeParent(ctx context.Context, log *slog.Logger, st store.Store, papers string, props map[string]any) {
	docID, _ := props[store.PropDocID].(string)
	if docID == "" {
		return
	}
	parent, err := st.GetObject(ctx, papers, docID)
	if err != nil {
		log.Warn("failed to fetch parent paper", "doc_id", docID, "err", err)
		return
	}
	props["pdf_title"] = parent[store.PropTitle]
	props["pdf_date"] = parent[store.PropDate]
	props["pdf_url"] = parent[store.PropPDFURL]
}
