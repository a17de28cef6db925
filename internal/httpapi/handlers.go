package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/pipeline"
	"github.com/mesh-intelligence/memonest/internal/service"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// maxBodyBytes caps the size of a JSON request body.
const maxBodyBytes = 1 << 20

// operation runs one memo use case against a session's service.
type operation func(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error

func createMemo(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
	return svc.CreateMemo(ctx, rec)
}

func getMemo(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
	return svc.GetMemo(ctx, rec)
}

func getMemos(ctx context.Context, svc *service.MemoService, _ pipeline.Record) error {
	return svc.GetMemos(ctx)
}

func updateMemo(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
	return svc.UpdateMemo(ctx, rec)
}

func deleteMemo(ctx context.Context, svc *service.MemoService, rec pipeline.Record) error {
	return svc.DeleteMemo(ctx, rec)
}

// handle adapts an operation to an http.HandlerFunc. The raw record is the
// query string merged with an optional JSON object body; body fields win.
func (rt *Router) handle(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := readRecord(r)
		if err != nil {
			rt.respondJSON(w, http.StatusBadRequest, map[string]any{types.KeyError: err.Error()})
			return
		}

		if rt.singleUser() {
			rt.serial.Lock()
			defer rt.serial.Unlock()
		}

		session, err := rt.factory.Session(r.Context())
		if err != nil {
			rt.internalError(w, r, err)
			return
		}
		defer func() {
			if err := session.Close(); err != nil {
				rt.logger.Error("Failed to close session", zap.Error(err))
			}
		}()
		session.Sink.Reset()

		if err := op(r.Context(), session.Service, rec); err != nil {
			rt.internalError(w, r, err)
			return
		}

		data := session.Sink.Data()
		if data == nil {
			data = map[string]any{}
		}
		rt.respondJSON(w, statusFor(types.ErrorCode(session.Sink.Code())), data)
	}
}

// statusFor maps an emitted error code to an HTTP status. Code 0 means no
// error was emitted.
func statusFor(code types.ErrorCode) int {
	switch {
	case code == 0:
		return http.StatusOK
	case code.IsValidation():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// readRecord builds the raw input record from the request.
func readRecord(r *http.Request) (pipeline.Record, error) {
	rec := pipeline.Record{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			rec[key] = values[0]
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return rec, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, nil
		}
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	for key, value := range body {
		rec[key] = value
	}
	return rec, nil
}

func (rt *Router) internalError(w http.ResponseWriter, r *http.Request, err error) {
	rt.logger.Error("Memo operation failed",
		zap.String("path", r.URL.Path),
		zap.String("requestID", chimiddleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	rt.respondJSON(w, http.StatusInternalServerError, map[string]any{types.KeyError: "internal error"})
}

func (rt *Router) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rt.logger.Error("Failed to encode response", zap.Error(err))
	}
}
