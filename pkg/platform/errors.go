package platform

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
)

// Kind is the category of a platform failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindNotFound
	KindTransient
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

var (
	// ErrPermissionDenied is matched by failures caused by the bot lacking access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is matched by failures caused by a missing channel, message, member or role.
	ErrNotFound = errors.New("not found")

	// ErrTransient is matched by failures that may succeed if retried (rate limits, network).
	ErrTransient = errors.New("transient failure")
)

// Error is a classified platform failure.
type Error struct {
	// Kind is the category of the failure.
	Kind Kind

	// Op is the platform call that failed.
	Op string

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrTransient:
		return e.Kind == KindTransient
	}
	return false
}

// NewError creates a classified error.
func NewError(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// wrap classifies err, returning nil for a nil error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Classify(err), Op: op, Err: err}
}

// Classify works out the Kind of an error returned by the platform client.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	pErr := new(Error)
	if errors.As(err, &pErr) {
		return pErr.Kind
	}

	if errors.Is(err, discordgo.ErrStateNotFound) {
		return KindNotFound
	}

	restErr := new(discordgo.RESTError)
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeMissingAccess,
				discordgo.ErrCodeMissingPermissions,
				discordgo.ErrCodeCannotSendMessagesToThisUser:
				return KindPermissionDenied
			case discordgo.ErrCodeUnknownChannel,
				discordgo.ErrCodeUnknownMessage,
				discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownUser,
				discordgo.ErrCodeUnknownRole:
				return KindNotFound
			}
		}

		if restErr.Response != nil {
			switch code := restErr.Response.StatusCode; {
			case code == http.StatusForbidden:
				return KindPermissionDenied
			case code == http.StatusNotFound:
				return KindNotFound
			case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
				return KindTransient
			}
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindUnknown
}
