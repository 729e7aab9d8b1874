package request

import (
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registration"
)

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Email                string `json:"email"`
	Handle               string `json:"handle"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	StudentID            string `json:"student_id"`
	LastName             string `json:"last_name"`
	FirstName            string `json:"first_name"`
	Birthday             string `json:"birthday"`
}

// ToRegistration converts the body to a registration request
func (r RegisterRequest) ToRegistration() registration.Request {
	return registration.Request{
		Email:                r.Email,
		Handle:               r.Handle,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
		StudentID:            r.StudentID,
		LastName:             r.LastName,
		FirstName:            r.FirstName,
		Birthday:             r.Birthday,
	}
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

// StudentRecord is one row of an import request
type StudentRecord struct {
	StudentID string     `json:"student_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Birthday  model.Date `json:"birthday"`
}

// ImportStudentsRequest is the request body for importing student records
type ImportStudentsRequest struct {
	Students []StudentRecord `json:"students"`
}

// ToModel converts the rows to registry input
func (r ImportStudentsRequest) ToModel() []model.NewStudentRecord {
	out := make([]model.NewStudentRecord, len(r.Students))
	for i, s := range r.Students {
		out[i] = model.NewStudentRecord{
			StudentID: s.StudentID,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Birthday:  s.Birthday,
		}
	}
	return out
}

// UpdateProgressRequest is the request body for setting account progress
type UpdateProgressRequest struct {
	Level            *int `json:"level"`
	ExperiencePoints *int `json:"experience_points"`
}
