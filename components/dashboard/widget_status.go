package dashboard

// WidgetStatus is the render lifecycle state of one widget.
type WidgetStatus string

const (
	StatusIdle    WidgetStatus = "idle"
	StatusLoading WidgetStatus = "loading"
	StatusSuccess WidgetStatus = "success"
	StatusEmpty   WidgetStatus = "empty"
	StatusError   WidgetStatus = "error"
)

// Terminal reports whether the state ends a fetch.
func (s WidgetStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusEmpty || s == StatusError
}

// StatusOf derives the status for a finished fetch.
func StatusOf(data WidgetData, err error) WidgetStatus {
	switch {
	case err != nil:
		return StatusError
	case data == nil || data.IsEmpty():
		return StatusEmpty
	default:
		return StatusSuccess
	}
}

// ErrorMessage returns the text shown in place of widget content. Configuration
// errors carry their own prompt; other kinds get a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	switch ClassifyError(err) {
	case KindConfiguration, KindValidation:
		return err.Error()
	case KindNetwork:
		return "Unable to reach the data service"
	case KindTimeout:
		return "The data request timed out"
	case KindAuthentication:
		return "Your session has expired"
	case KindAuthorization:
		return "You do not have access to this data"
	case KindNotFound:
		return "The requested data was not found"
	default:
		return "Failed to load widget data"
	}
}
