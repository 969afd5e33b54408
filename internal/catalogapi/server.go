package catalogapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"catalog-backend/internal/components/telemetry"
)

const report_server_write = "server.write"

var endpoints = []string{
	"/faculties",
	"/faculties/{faculty_code}",
	"/subjects",
	"/subjects/{subject_code}",
	"/courses",
	"/courses/{course_code}",
	"/class_schedules",
	"/class_schedules/{course_code}",
	"/class_schedules/{course_code}/{term}",
	"/class_schedules/lectures/{course_code}/{term}",
	"/class_schedules/labs/{course_code}/{term}",
	"/class_schedules/seminars/{course_code}/{term}",
}

type errorBody struct {
	Detail     string `json:"detail"`
	Suggestion string `json:"suggestion,omitempty"`
}

type server struct {
	catalog Catalog
	tel     telemetry.API
}

// NewHandler exposes the catalog over http.
func NewHandler(c Catalog, tel telemetry.API) http.Handler {
	s := server{catalog: c, tel: telemetry.NewScopedAPI("catalogapi", tel)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		s.write(w, http.StatusOK, map[string][]string{"endpoints": endpoints})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /faculties", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Faculties())
	})
	mux.HandleFunc("GET /faculties/{code}", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Faculty(r.PathValue("code")))
	})
	mux.HandleFunc("GET /subjects", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Subjects())
	})
	mux.HandleFunc("GET /subjects/{code}", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Subject(r.PathValue("code")))
	})
	mux.HandleFunc("GET /courses", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Courses())
	})
	mux.HandleFunc("GET /courses/{code}", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Course(r.PathValue("code")))
	})
	mux.HandleFunc("GET /class_schedules", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Schedules())
	})
	mux.HandleFunc("GET /class_schedules/{code}", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Schedule(r.PathValue("code")))
	})
	mux.HandleFunc("GET /class_schedules/{code}/{term}", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w)(c.Term(r.PathValue("code"), r.PathValue("term")))
	})

	for path, classType := range map[string]string{
		"lectures": "Lecture",
		"labs":     "Lab",
		"seminars": "Seminar",
	} {
		mux.HandleFunc("GET /class_schedules/"+path+"/{code}/{term}", func(w http.ResponseWriter, r *http.Request) {
			s.respond(w)(c.ClassType(r.PathValue("code"), r.PathValue("term"), classType))
		})
	}

	return mux
}

// respond returns a function so that lookups can be passed in directly,
// s.respond(w)(c.Course(code)).
func (s server) respond(w http.ResponseWriter) func(v any, err error) {
	return func(v any, err error) {
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.write(w, http.StatusOK, v)
	}
}

func (s server) writeError(w http.ResponseWriter, err error) {
	var notFound NotFoundError
	switch {
	case errors.As(err, &notFound):
		s.write(w, http.StatusNotFound, errorBody{
			Detail:     notFound.Error(),
			Suggestion: notFound.Suggestion,
		})
	case errors.Is(err, ErrNotOffered), errors.Is(err, ErrScheduleFailed):
		s.write(w, http.StatusNotFound, errorBody{Detail: err.Error()})
	default:
		s.write(w, http.StatusServiceUnavailable, errorBody{Detail: "catalog data is unavailable"})
	}
}

func (s server) write(w http.ResponseWriter, status int, v any) {
	buffer := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err != nil {
		s.tel.ReportBroken(report_server_write, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	w.Write(buffer.Bytes())
}
