package middleware

import (
	"errors"
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxContentLength = 100000
	maxTitleLength   = 256
	maxFieldLength   = 10000
	maxAttendees     = 100
)

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxContentLength {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateTitle validates a meeting title.
func ValidateTitle(title string) error {
	if len(title) > maxTitleLength {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateText validates a free-form proposal field such as the
// description or agenda.
func ValidateText(field, value string) error {
	if len(value) > maxFieldLength {
		return fmt.Errorf("%s exceeds maximum length", field)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s must be valid UTF-8", field)
	}
	return nil
}

// ValidateAttendees checks each entry is a bare email address.
func ValidateAttendees(emails []string) error {
	if len(emails) > maxAttendees {
		return errors.New("too many attendees")
	}
	for _, email := range emails {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return fmt.Errorf("invalid attendee email %q", email)
		}
	}
	return nil
}
