package http

// Client-facing messages. They are part of the public contract.
const (
	msgInternal          = "Internal server error"
	msgInvalidLogin      = "Invalid email or password"
	msgTooManyAttempts   = "Too many login attempts. Try again after "
	msgLoginOK           = "Login successful"
	msgRegisterOK        = "User registered successfully"
	msgEmailTaken        = "User with this email already exists"
	msgProfileOK         = "Profile retrieved successfully"
	msgUserNotFound      = "User not found"
	msgInvalidRefresh    = "Invalid or expired refresh token"
	msgRefreshOK         = "Token refreshed"
	msgLogoutOK          = "Logged out successfully"
	msgInvalidJSON       = "Request body must be valid JSON"
	msgInvalidIPArgument = "A valid IP address is required"
)
