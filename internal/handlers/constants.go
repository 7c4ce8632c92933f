package handlers

const (
	AppName = "Flashforge"

	CSRFFormField  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	ErrInvalidFormData       = "Invalid form data"
	ErrInvalidCSRFToken      = "Invalid CSRF token"
	ErrTooManyRequests       = "Too many requests, please slow down"
	ErrInternalServerError   = "Internal server error"
	ErrInternalServerErrorUC = "Internal Server Error"

	MsgSetNotFound  = "Flashcard set not found."
	MsgCardNotFound = "Card not found."

	MsgSetCreated  = "Flashcard set created successfully!"
	MsgSetDeleted  = "Flashcard set deleted successfully!"
	MsgCardAdded   = "Card added successfully!"
	MsgCardDeleted = "Card deleted successfully!"

	MsgFavoriteAdded    = "Card added to favorites!"
	MsgFavoriteRemoved  = "Card removed from favorites!"
	MsgFavoriteNotFound = "Card not found"
)
