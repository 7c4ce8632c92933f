package cardaction

import (
	"context"
	"errors"
	"time"
)

// DeletePrompt is the confirmation question shown before deleting a card.
const DeletePrompt = "Are you sure you want to delete this card?"

// NotificationTTL is how long a notification stays on screen.
const NotificationTTL = 3 * time.Second

const favoriteErrorMessage = "Error updating favorite status"

// Appearance is the visual variant of a favorite button.
type Appearance int

const (
	Unfavorited Appearance = iota
	Favorited
	Loading
)

func (a Appearance) String() string {
	switch a {
	case Favorited:
		return "favorited"
	case Loading:
		return "loading"
	default:
		return "unfavorited"
	}
}

// AppearanceFor returns the resting appearance for a favorite flag.
func AppearanceFor(favorite bool) Appearance {
	if favorite {
		return Favorited
	}
	return Unfavorited
}

// NotificationKind classifies a notification.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
	KindInfo    NotificationKind = "info"
)

// Notification is a transient message shown to the user.
type Notification struct {
	Message string
	Kind    NotificationKind
}

// FavoriteButton is the control that triggers a favorite toggle.
type FavoriteButton interface {
	Appearance() Appearance
	SetAppearance(Appearance)
}

// Notifier shows transient notifications.
type Notifier interface {
	Notify(Notification)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// FavoriteToggler sends a toggle-favorite request. *Client implements it.
type FavoriteToggler interface {
	ToggleFavorite(ctx context.Context, setID, cardID int64) (FavoriteResult, error)
}

// CardDeleter sends a delete-card request. *Client implements it.
type CardDeleter interface {
	DeleteCard(ctx context.Context, setID, cardID int64) error
}

// ToggleFavorite runs the favorite flow: the button shows the loading
// appearance while the request is in flight, then either the new state or,
// on any failure, the appearance it had before the click.
func ToggleFavorite(ctx context.Context, toggler FavoriteToggler, setID, cardID int64, button FavoriteButton, notifier Notifier) error {
	previous := button.Appearance()
	button.SetAppearance(Loading)

	res, err := toggler.ToggleFavorite(ctx, setID, cardID)

	appearance, note := Outcome(previous, res, err)
	button.SetAppearance(appearance)
	notifier.Notify(note)
	return err
}

// Outcome decides the button appearance and notification for a finished
// toggle-favorite request. previous is the appearance before the request.
func Outcome(previous Appearance, res FavoriteResult, err error) (Appearance, Notification) {
	if err == nil && res.Success {
		return AppearanceFor(res.Favorite), Notification{Message: res.Message, Kind: KindSuccess}
	}

	message := favoriteErrorMessage
	var unsuccessful *UnsuccessfulError
	if errors.As(err, &unsuccessful) && unsuccessful.Message != "" {
		message = unsuccessful.Message
	} else if err == nil && res.Message != "" {
		message = res.Message
	}
	return previous, Notification{Message: message, Kind: KindError}
}

// DeleteCard asks for confirmation and, if given, deletes the card. It
// reports whether the delete was sent. Callers reload their deck afterwards;
// nothing is removed locally.
func DeleteCard(ctx context.Context, deleter CardDeleter, setID, cardID int64, confirmer Confirmer) (bool, error) {
	if !confirmer.Confirm(DeletePrompt) {
		return false, nil
	}
	if err := deleter.DeleteCard(ctx, setID, cardID); err != nil {
		return true, err
	}
	return true, nil
}
