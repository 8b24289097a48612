package assistant

const (
	BookAppointmentTool = "book_appointment"
	EndCallTool         = "endCall"
)

// BookingToolSchema is the parameter schema of book_appointment. Tool-call
// arguments are validated against it after variant keys are canonicalized.
const BookingToolSchema = `{
  "type": "object",
  "properties": {
    "customer_name": {
      "type": "string",
      "minLength": 1,
      "description": "Full name of the caller, as confirmed by the caller."
    },
    "customer_email": {
      "type": "string",
      "minLength": 3,
      "description": "Email address of the caller, spelled out and confirmed."
    },
    "booking_date_time": {
      "type": "string",
      "minLength": 1,
      "description": "Requested date and time exactly as agreed with the caller, e.g. 2026-03-05 14:00."
    },
    "service_details": {
      "type": "string",
      "description": "Service or reason for the appointment."
    },
    "customer_phone": {
      "type": "string",
      "description": "Callback number if the caller gave one."
    }
  },
  "required": ["customer_name", "customer_email", "booking_date_time"]
}`

// StructuredDataSchema asks the platform's post-call analysis for the same
// booking fields, so a booking can be recovered when the tool was never called.
const StructuredDataSchema = `{
  "type": "object",
  "properties": {
    "customer_name": {"type": "string"},
    "customer_email": {"type": "string"},
    "customer_phone": {"type": "string"},
    "booking_date_time": {"type": "string"},
    "service_details": {"type": "string"}
  }
}`

func bookingTool(server Server) Tool {
	return Tool{
		Type: "function",
		Function: &Function{
			Name:        BookAppointmentTool,
			Description: "Create an appointment request once the caller has confirmed every detail.",
			Parameters:  []byte(BookingToolSchema),
		},
		Server: &server,
		Messages: []ToolMessage{
			{Type: "request-start", Content: "One moment while I save that for you."},
			{Type: "request-failed", Content: "I'm sorry, I couldn't save that booking just now."},
		},
	}
}

func endCallTool() Tool {
	return Tool{Type: EndCallTool}
}
