package constants

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyCaller  = "caller"
	ContextKeyTask    = "task"
	ContextKeyRequest = "request_id"

	SessionCookieName = "task_session"
	SessionKeyToken   = "token"

	HeaderRequestID = "X-Request-ID"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Accounts
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt input limit in bytes
	BcryptCost        = 12
)

const MaxAIGeneratedTasks = 20
