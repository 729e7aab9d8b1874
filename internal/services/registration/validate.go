package registration

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
)

const (
	maxFieldLength    = 255
	minPasswordLength = 8
)

// validate checks the request fields and returns the parsed birthday
func validate(req Request) (model.Date, error) {
	verr := &model.ValidationError{}

	fields := []struct {
		name  string
		value string
	}{
		{"email", req.Email},
		{"handle", req.Handle},
		{"password", req.Password},
		{"student_id", req.StudentID},
		{"last_name", req.LastName},
		{"first_name", req.FirstName},
		{"birthday", req.Birthday},
	}
	for _, f := range fields {
		label := strings.ReplaceAll(f.name, "_", " ")
		switch {
		case strings.TrimSpace(f.value) == "":
			verr.Add(f.name, fmt.Sprintf("The %s field is required.", label))
		case utf8.RuneCountInString(f.value) > maxFieldLength:
			verr.Add(f.name, fmt.Sprintf("The %s may not be greater than %d characters.", label, maxFieldLength))
		}
	}

	if _, bad := verr.Fields["email"]; !bad {
		if addr, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil || addr.Address != strings.TrimSpace(req.Email) {
			verr.Add("email", "The email must be a valid email address.")
		}
	}

	if _, bad := verr.Fields["password"]; !bad {
		if utf8.RuneCountInString(req.Password) < minPasswordLength {
			verr.Add("password", fmt.Sprintf("The password must be at least %d characters.", minPasswordLength))
		}
		if req.Password != req.PasswordConfirmation {
			verr.Add("password", "The password confirmation does not match.")
		}
	}

	var birthday model.Date
	if _, bad := verr.Fields["birthday"]; !bad {
		d, err := model.ParseDate(strings.TrimSpace(req.Birthday))
		if err != nil {
			verr.Add("birthday", "The birthday is not a valid date.")
		}
		birthday = d
	}

	return birthday, verr.Err()
}
