package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/apierr"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/request"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/response"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registry"
)

// StudentHandler handles administrative student record endpoints
type StudentHandler struct {
	registry *registry.Service
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(registry *registry.Service) *StudentHandler {
	return &StudentHandler{registry: registry}
}

// Import handles POST /api/v1/admin/students
func (h *StudentHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req request.ImportStudentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.registry.Import(r.Context(), req.ToModel())
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.ImportResponse{Students: make([]response.StudentRecord, len(created))}
	for i, rec := range created {
		resp.Students[i] = response.StudentRecordFromModel(rec)
	}
	response.JSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/v1/admin/students/{id}
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	rec, err := h.registry.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StudentRecordFromModel(rec))
}

// Find handles GET /api/v1/admin/students?student_id=
func (h *StudentHandler) Find(w http.ResponseWriter, r *http.Request) {
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if studentID == "" {
		WriteError(w, apierr.NewInvalidRequestError("student_id is required"))
		return
	}

	rec, err := h.registry.GetByStudentID(r.Context(), studentID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StudentRecordFromModel(rec))
}

// Delete handles DELETE /api/v1/admin/students/{id}
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	accountDeleted, err := h.registry.Delete(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.DeleteStudentResponse{
		Deleted:        true,
		AccountDeleted: accountDeleted,
	})
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, apierr.NewNotFoundError("Not found")
	}
	return id, nil
}
