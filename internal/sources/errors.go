package sources

import (
	"fmt"

	"github.com/meridianmaps/catalog-server/internal/config"
)

// LoadError kinds distinguish the two terminal failure modes of a group load.
const (
	// KindInvalidResponseShape marks a response that arrived and parsed but
	// is not a valid GeoJSON feature collection
	KindInvalidResponseShape = "invalid_response_shape"

	// KindRequestFailed folds together network errors, non-2xx statuses,
	// timeouts, and malformed response bodies
	KindRequestFailed = "request_failed"
)

// LoadError is a terminal group load failure carrying a title and an HTML
// message for direct display to end users. The message keeps its literal
// paragraph and mailto structure; clients render it verbatim.
type LoadError struct {
	// Kind is one of the Kind* constants
	Kind string

	// GroupName identifies the group whose load failed
	GroupName string

	// Title is a short heading for the failure
	Title string

	// Message is the HTML body of the failure report
	Message string

	// Err is the underlying cause, for logs rather than display
	Err error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("group %q: %s: %v", e.GroupName, e.Kind, e.Err)
	}
	return fmt.Sprintf("group %q: %s", e.GroupName, e.Kind)
}

// Unwrap returns the underlying cause
func (e *LoadError) Unwrap() error {
	return e.Err
}

// newInvalidShapeError reports a response that is not a GeoJSON feature
// collection.
func newInvalidShapeError(groupName string, support config.SupportConfig, err error) *LoadError {
	email := support.Email
	message := "An error occurred while invoking GetFeature on the WFS server. " +
		"The server's response does not appear to be a valid GeoJSON feature collection." +
		"<p>If you entered the link manually, please verify that the link is correct.</p>" +
		"<p>This error may also indicate that the group is temporarily unavailable. " +
		"Try opening the group again, and if the problem persists, please report it by " +
		fmt.Sprintf("sending an email to <a href=\"mailto:%s\">%s</a>.</p>", email, email)

	return &LoadError{
		Kind:      KindInvalidResponseShape,
		GroupName: groupName,
		Title:     "Invalid WFS server",
		Message:   message,
		Err:       err,
	}
}

// newRequestFailedError reports a GetFeature call that failed outright or
// returned a body that could not be parsed.
func newRequestFailedError(groupName string, support config.SupportConfig, err error) *LoadError {
	email := support.Email
	appName := support.GetAppName()
	message := "An error occurred while invoking GetFeature on the WFS server." +
		"<p>If you entered the link manually, please verify that the link is correct.</p>" +
		fmt.Sprintf("<p>This error may also indicate that the server does not support "+
			"<a href=\"https://enable-cors.org/\" target=\"_blank\">CORS</a>. If this is your server, "+
			"verify that CORS is enabled and enable it if it is not. If you do not control the server, "+
			"please contact the administrator of the server and ask them to enable CORS. Or, contact the "+
			"%s team by emailing <a href=\"mailto:%s\">%s</a> and ask us to add this server to the list "+
			"of non-CORS-enabled servers that may be proxied by %s itself.</p>",
			appName, email, email, appName) +
		"<p>If the problem persists, try opening the group again, and if it still fails, please report " +
		fmt.Sprintf("it by sending an email to <a href=\"mailto:%s\">%s</a>.</p>", email, email)

	return &LoadError{
		Kind:      KindRequestFailed,
		GroupName: groupName,
		Title:     "Group is not available",
		Message:   message,
		Err:       err,
	}
}
