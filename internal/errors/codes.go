package errors

// Error code constants
// Format: CATEGORY_SPECIFIC_DETAIL
// Clients map on the code, the message is for humans.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // credentials required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong username/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthUserInactive       = "AUTH_USER_INACTIVE"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzManagerOnly  = "AUTHZ_MANAGER_ONLY"
	AuthzCustomerOnly = "AUTHZ_CUSTOMER_ONLY"
	AuthzCrewOnly     = "AUTHZ_DELIVERY_CREW_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidQuery = "VALIDATION_INVALID_QUERY"
	ValidationUnknownGroup = "VALIDATION_UNKNOWN_GROUP"
	ValidationEmptyCart    = "VALIDATION_EMPTY_CART"
	ValidationNotCrew      = "VALIDATION_NOT_DELIVERY_CREW"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"
	ResourceInUse         = "RESOURCE_IN_USE"

	// ==================== Orders (ORDER_) ====================
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderNotPending        = "ORDER_NOT_PENDING"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Rate limit (RATE_LIMIT_) ====================
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
