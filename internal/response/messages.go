package response

// Default message keys are "response.<status>". Deployments that localize
// replace the resolver with a lookup into their own string table; keys with
// no translation fall through to the built-in English defaults.

var defaultMessages = map[Status]string{
	StatusSuccess:         "Request completed successfully",
	StatusCreated:         "Resource created successfully",
	StatusUpdated:         "Resource updated successfully",
	StatusDeleted:         "Resource deleted successfully",
	StatusError:           "An error occurred",
	StatusValidationError: "The given data was invalid",
	StatusUnauthorized:    "Authentication required",
	StatusForbidden:       "You are not allowed to perform this action",
	StatusNotFound:        "Resource not found",
	StatusServerError:     "Internal server error",
	StatusBadRequest:      "Bad request",
	StatusTooManyRequests: "Too many requests",
}

type MessageResolver func(key string) string

var resolver MessageResolver

// SetMessageResolver installs a locale resolver consulted before the
// built-in defaults. Passing nil restores the defaults. Not safe to call
// concurrently with request handling; install once at startup.
func SetMessageResolver(r MessageResolver) {
	resolver = r
}

func defaultMessage(s Status) string {
	if resolver != nil {
		if msg := resolver("response." + string(s)); msg != "" {
			return msg
		}
	}
	if msg, ok := defaultMessages[s]; ok {
		return msg
	}
	return defaultMessages[StatusError]
}
