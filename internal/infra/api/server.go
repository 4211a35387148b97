package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/infra/logging"
	"media-job-intake/internal/usecase"
)

const (
	headerUserID = "user_id"
	maxBodyBytes = 1 << 20
)

// Server exposes JobUseCase over HTTP.
type Server struct {
	jobs    usecase.JobUseCase
	timeout time.Duration
	log     *zerolog.Logger
}

func NewServer(jobs usecase.JobUseCase, requestTimeout time.Duration, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Server{jobs: jobs, timeout: requestTimeout, log: &l}
}

// Routes builds the router. Probes and metrics bypass the request timeout.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/process", func(r chi.Router) {
		r.Use(Timeout(s.timeout))

		r.With(requireUser).Post("/audio", s.submit(decodeAs[audioRequest]))
		r.With(requireUser).Post("/video", s.submit(decodeAs[videoRequest]))
		r.With(requireUser).Post("/gif", s.submit(decodeAs[gifRequest]))
		r.Put("/updateStatus/{status}/{fileSize}/{fileDuration}/{id}", s.updateStatus)
		r.With(requireUser).Delete("/delete", s.delete)
		r.With(requireUser).Get("/getAll", s.list)
	})
	return r
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerUserID) == "" {
			badRequest(w, "missing user_id header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type convertRequest interface {
	toModel() model.ConvertRequest
}

func decodeAs[T convertRequest](r *http.Request) (model.ConvertRequest, error) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return model.ConvertRequest{}, err
	}
	return body.toModel(), nil
}

func (s *Server) submit(decode func(*http.Request) (model.ConvertRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.With(ctx, s.log)

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		req, err := decode(r)
		if err != nil {
			log.Warn().Err(err).Msg("invalid submit body")
			badRequest(w, "Invalid request body")
			return
		}

		res, err := s.jobs.Submit(ctx, req, r.Header.Get(headerUserID))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.With(ctx, s.log)

	status := chi.URLParam(r, "status")
	msg, err := s.jobs.UpdateStatus(ctx,
		chi.URLParam(r, "id"),
		model.JobStatus(status),
		chi.URLParam(r, "fileSize"),
		chi.URLParam(r, "fileDuration"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.With(ctx, s.log)

	var ids []string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ids); err != nil {
		log.Warn().Err(err).Msg("invalid delete body")
		badRequest(w, "Invalid request body")
		return
	}
	if err := s.jobs.Delete(ctx, ids, r.Header.Get(headerUserID)); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.With(ctx, s.log)

	jobs, err := s.jobs.List(ctx, r.Header.Get(headerUserID))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}
