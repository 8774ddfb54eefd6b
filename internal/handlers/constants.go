package handlers

// MaxBodyBytes caps JSON request bodies
const MaxBodyBytes = 64 << 10

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests"
	ErrBusy                = "Room is busy, please retry"
	ErrInvalidTicket       = "Invalid ticket"
	ErrTicketRequired      = "Ticket required"
	ErrEmailUnavailable    = "Invitations by e-mail are not available"
)
