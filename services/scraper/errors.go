package scraper

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// timeout, connection failure or a non-2xx portal response
	KindNetwork ErrorKind = iota
	// an expected selector target is gone, the page layout changed
	KindStructural
	// the portal itself rejected the lookup, Message carries its text
	KindValidation
	// the page parsed fine but held neither an info card nor marks
	KindNoData
)

// PortalError is the classified failure of one pipeline invocation.
// Nothing in here is fatal to the process, callers turn the kind
// into an apology string and return the user to a menu.
type PortalError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PortalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *PortalError) Unwrap() error {
	return e.Err
}

// UserMessage maps the failure onto the short explanation shown in
// chat. Validation failures surface the portal's own wording.
func (e *PortalError) UserMessage() string {
	switch e.Kind {
	case KindValidation:
		return e.Message
	case KindNoData:
		return "الرقم الجامعي غير موجود أو لا توجد له نتائج في هذه الكلية."
	default:
		return "حدث خطأ أثناء الاتصال بالخادم. يرجى المحاولة لاحقًا."
	}
}

// KindOf extracts the classification from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var perr *PortalError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return 0, false
}
