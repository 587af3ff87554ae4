package apphttp

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/kawabatas/spanner-otel-app/internal/app/usecase"
	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
)

// Register wires the endpoints onto the provided mux. The table is flat and matches on the
// path only, whatever the method:
//
//	/                exact, "OK"
//	/singers         all singers
//	/singers/random  one random singer
//	/singers/<id>    one singer; anything after the prefix is parsed as the id
//	everything else  404
func Register(mux *http.ServeMux, svc *usecase.SingerService) {
	mux.HandleFunc("/{$}", root)
	mux.HandleFunc("/singers", listSingers(svc))
	mux.HandleFunc("/singers/random", randomSinger(svc))
	mux.HandleFunc("/singers/{id...}", singerByID(svc))
	mux.HandleFunc("/", notFound)
}

const singersPrefix = "/singers/"

// rawPaths answers unclean paths (double slashes, dot segments, trailing slashes) before the
// mux would redirect them. Under /singers/ the remainder is never a valid id.
func rawPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == "" || path.Clean(p) == p {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(p, singersPrefix) {
			writeText(w, http.StatusBadRequest, msgInvalidSingerID)
			return
		}
		notFound(w, r)
	})
}

func root(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, msgOK)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, msgNotFound)
}

func listSingers(svc *usecase.SingerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		singers, err := svc.GetAll(r.Context())
		if err != nil {
			internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, singers)
	}
}

func randomSinger(svc *usecase.SingerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		singer, err := svc.GetRandom(r.Context())
		writeSinger(w, r, singer, err)
	}
}

func singerByID(svc *usecase.SingerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeText(w, http.StatusBadRequest, msgInvalidSingerID)
			return
		}
		singer, err := svc.GetByID(r.Context(), id)
		writeSinger(w, r, singer, err)
	}
}

func writeSinger(w http.ResponseWriter, r *http.Request, singer model.Singer, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeText(w, http.StatusNotFound, msgSingerNotFound)
	case err != nil:
		internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, singer)
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "singer query failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	writeText(w, http.StatusInternalServerError, msgInternal)
}
