/*
Package authsdk provides a client SDK for the geoadmin authentication service
and the wire types its handlers write.

# Overview

The service issues two tokens on login. The access token is returned in the
response body and is sent as "Authorization: Bearer" on protected calls. The
refresh token is set as an HttpOnly cookie named refreshToken; SDKClient keeps
it in a cookie jar so Refresh works the way it would in a browser.

	client := authsdk.NewSDKClient("http://localhost:8080")

	// Create an account
	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	// Log in and fetch the profile
	session, err := client.Authenticate(ctx, "alice@example.com", "secret1")
	profile, err := session.Profile(ctx)

Session.Profile refreshes the access token once and retries when the server
answers 401.

# Errors

Every failure is an *APIError carrying the HTTP status and the server's
message. Failed logins also carry the attempts left for the caller's address:

	_, err := client.Login(ctx, authsdk.LoginRequest{Email: e, Password: p})
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		// wait for the window to reset
	}

# Client address

Login throttling is per client address. Behind a proxy, WithClientIP sets
X-Forwarded-For on every request from the returned client.
*/
package authsdk
