package libcal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/libcal/internal/constants"
)

// ReserveBooking is one item (and optionally seat) to reserve until To.
type ReserveBooking struct {
	ID     int       `json:"id"                validate:"required,gt=0"`
	SeatID *int      `json:"seat_id,omitempty" validate:"omitempty,gt=0"`
	To     time.Time `json:"to"                validate:"required"`
}

// ReservePayload is the body of a reservation request. Answers to the
// booking form are set with SetQuestion("q1", "answer"); list answers are
// sent comma separated.
type ReservePayload struct {
	QuestionExtras `json:"-" yaml:"-"`

	Start        time.Time        `json:"start"                  validate:"required"`
	FirstName    string           `json:"fname"                  validate:"required"`
	LastName     string           `json:"lname"                  validate:"required"`
	Email        string           `json:"email"                  validate:"required,email"`
	Nickname     *string          `json:"nickname,omitempty"`
	AdminBooking *bool            `json:"adminbooking,omitempty"`
	Test         *bool            `json:"test,omitempty"`
	Bookings     []ReserveBooking `json:"bookings"               validate:"required,min=1,dive"`
}

// Validate checks the payload before it is sent.
func (p *ReservePayload) Validate() error {
	return validateStruct(p)
}

// MarshalJSON writes the payload in the form the reserve endpoint expects:
// timestamps with a numeric zone offset, empty members left out, and form
// answers as top level members.
func (p ReservePayload) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"start": p.Start.Format(constants.ReserveTimeFormat),
	}

	putNonEmpty(data, "fname", p.FirstName)
	putNonEmpty(data, "lname", p.LastName)
	putNonEmpty(data, "email", p.Email)

	if p.Nickname != nil {
		putNonEmpty(data, "nickname", *p.Nickname)
	}

	if p.AdminBooking != nil && *p.AdminBooking {
		data["adminbooking"] = true
	}

	if p.Test != nil && *p.Test {
		data["test"] = true
	}

	bookings := make([]map[string]interface{}, 0, len(p.Bookings))

	for _, b := range p.Bookings {
		booking := map[string]interface{}{
			"to": b.To.Format(constants.ReserveTimeFormat),
		}

		if b.ID != 0 {
			booking["id"] = b.ID
		}

		if b.SeatID != nil && *b.SeatID != 0 {
			booking["seat_id"] = *b.SeatID
		}

		bookings = append(bookings, booking)
	}

	data["bookings"] = bookings

	for _, name := range p.QuestionNames() {
		value, _ := p.Question(name)
		if list, ok := value.([]interface{}); ok {
			data[name] = answerString(list)

			continue
		}

		data[name] = value
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding reserve payload: %w", err)
	}

	return out, nil
}

func putNonEmpty(data map[string]interface{}, key, value string) {
	if value != "" {
		data[key] = value
	}
}

func answerString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, answerString(item))
		}

		return strings.Join(parts, constants.AnswerSeparator)
	case []string:
		return strings.Join(v, constants.AnswerSeparator)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
