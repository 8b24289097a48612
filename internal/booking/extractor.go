package booking

import (
	"strings"
	"time"

	"voice-receptionist/internal/calls"
	"voice-receptionist/internal/fields"
)

// Field is one booking attribute and the payload keys it may arrive under,
// in priority order. The voice platform mixes snake_case, camelCase and
// short names depending on event type and prompt wording.
type Field struct {
	Canonical string
	Paths     []fields.Path
}

func paths(keys ...string) []fields.Path {
	out := make([]fields.Path, 0, len(keys))
	for _, k := range keys {
		out = append(out, fields.P(k))
	}
	return out
}

var (
	CustomerName  = Field{"customer_name", paths("customer_name", "customerName", "name", "customer.name")}
	CustomerEmail = Field{"customer_email", paths("customer_email", "customerEmail", "email", "customer.email")}
	CustomerPhone = Field{"customer_phone", paths("customer_phone", "customerPhone", "phone", "phone_number", "phoneNumber", "customer.phone")}
	DateTime      = Field{"booking_date_time", paths("booking_date_time", "bookingDateTime", "booking_date", "bookingDate", "date_time", "dateTime", "datetime", "date", "appointment_time", "appointmentTime")}
	Service       = Field{"service_details", paths("service_details", "serviceDetails", "service", "reason", "service_type", "serviceType")}

	// Known is every field the extractor recognizes.
	Known = []Field{CustomerName, CustomerEmail, CustomerPhone, DateTime, Service}
)

func (f Field) From(m map[string]any) string { return fields.FirstString(m, f.Paths...) }

// Details is a booking as read from a payload, before it is attached to a call.
type Details struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	RequestedText string
	RequestedAt   *time.Time
	Service       string
}

// Recognizable reports whether m carries at least one known booking field.
func Recognizable(m map[string]any) bool {
	for _, f := range Known {
		if fields.Any(m, f.Paths...) {
			return true
		}
	}
	return false
}

// Canonicalize maps whatever variant keys are present onto the canonical
// snake_case names. Unknown keys are dropped; absent fields are omitted.
func Canonicalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(Known))
	for _, f := range Known {
		if v := f.From(m); v != "" {
			out[f.Canonical] = v
		}
	}
	return out
}

// Extract reads booking details from m. Naive dates are interpreted in loc.
// The caller number is used as contact phone when none was captured.
// ok is false when m has no recognizable booking field.
func Extract(m map[string]any, callerNumber string, loc *time.Location) (Details, bool) {
	if !Recognizable(m) {
		return Details{}, false
	}
	d := Details{
		CustomerName:  CustomerName.From(m),
		CustomerEmail: strings.ToLower(CustomerEmail.From(m)),
		CustomerPhone: CustomerPhone.From(m),
		RequestedText: DateTime.From(m),
		Service:       Service.From(m),
	}
	if d.CustomerPhone == "" {
		d.CustomerPhone = strings.TrimSpace(callerNumber)
	}
	d.RequestedAt = ParseDate(d.RequestedText, loc)
	return d, true
}

// Booking attaches d to a call.
func (d Details) Booking(call calls.CallLog, source calls.BookingSource) calls.Booking {
	return calls.Booking{
		CallLogID:     call.ID,
		AgentID:       call.AgentID,
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		CustomerPhone: d.CustomerPhone,
		RequestedAt:   d.RequestedAt,
		RequestedText: d.RequestedText,
		Service:       d.Service,
		Status:        calls.BookingStatusPending,
		Source:        source,
	}
}
