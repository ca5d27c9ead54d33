package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"github.com/rs/zerolog"
)

// CourseHandler serves the catalog, progress and certificate endpoints.
type CourseHandler struct {
	catalog   *app.CatalogService
	service   *app.ProgressService
	generator *app.CourseGenerator
	log       zerolog.Logger
}

// NewCourseHandler wires the REST handlers. generator may be nil when no AI backend
// is configured; generation requests then answer 503.
func NewCourseHandler(catalog *app.CatalogService, service *app.ProgressService, generator *app.CourseGenerator, log zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		catalog:   catalog,
		service:   service,
		generator: generator,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /courses", h.listCourses)
	mux.HandleFunc("GET /courses/{id}", h.getCourse)
	mux.HandleFunc("PUT /courses/{id}", h.replaceCourse)
	mux.HandleFunc("POST /courses/generate", h.generateCourse)
	mux.HandleFunc("GET /courses/{id}/progress", h.getProgress)
	mux.HandleFunc("DELETE /courses/{id}/progress", h.resetProgress)
	mux.HandleFunc("PUT /courses/{id}/lessons/{lessonId}", h.setLessonCompleted)
	mux.HandleFunc("POST /courses/{id}/lessons/{lessonId}/quiz", h.submitQuiz)
	mux.HandleFunc("GET /courses/{id}/certificate", h.getCertificate)
	mux.HandleFunc("PUT /courses/{id}/certificate/name", h.setHolderName)
}

type generateRequest struct {
	Notes string `json:"notes"`
}

type completeRequest struct {
	Completed bool `json:"completed"`
}

type quizRequest struct {
	Answers map[string]string `json:"answers"`
}

type quizResponse struct {
	Result   domain.QuizResult   `json:"result"`
	Progress domain.ProgressView `json:"progress"`
}

type holderNameRequest struct {
	Name string `json:"name"`
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List(r.Context()))
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// replaceCourse swaps the content of an existing course. Progress on lessons that
// survive keeps counting; progress on removed lessons is ignored.
func (h *CourseHandler) replaceCourse(w http.ResponseWriter, r *http.Request) {
	var course domain.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	course.ID = r.PathValue("id")
	replaced, err := h.service.ReplaceCourse(r.Context(), course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replaced)
}

func (h *CourseHandler) generateCourse(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		http.Error(w, "course generation is not configured", http.StatusServiceUnavailable)
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	course, err := h.generator.Generate(r.Context(), req.Notes)
	if err != nil {
		if !errors.Is(err, domain.ErrNotesTooShort) && !errors.Is(err, domain.ErrMalformedCourse) {
			h.log.Error().Err(err).Msg("course generation failed")
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CourseHandler) resetProgress(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ResetProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CourseHandler) setLessonCompleted(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.service.SetLessonCompleted(r.Context(), r.PathValue("id"), r.PathValue("lessonId"), req.Completed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CourseHandler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	result, view, err := h.service.SubmitQuiz(r.Context(), r.PathValue("id"), r.PathValue("lessonId"), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Result: result, Progress: view})
}

func (h *CourseHandler) getCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.Certificate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (h *CourseHandler) setHolderName(w http.ResponseWriter, r *http.Request) {
	var req holderNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SetHolderName(r.Context(), r.PathValue("id"), req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrCourseNotCompleted):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLessonLocked),
		errors.Is(err, domain.ErrQuizNotPassed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotQuizLesson),
		errors.Is(err, domain.ErrNotesTooShort):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedCourse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrProgressUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Message: err.Error()})
}
