/*
Package authsdk is a client for a GoTrue compatible identity provider, the
hosted service that owns user accounts, passwords and social logins.

Create one Client at process start and pass it to whatever needs it:

	idp := authsdk.NewClient("https://project.example.co", anonKey)
	idp.ServiceKey = serviceKey // only needed for admin calls

Password sign in and sign up:

	sess, err := idp.SignInWithPassword(ctx, email, password)
	res, err := idp.SignUp(ctx, email, password, map[string]any{"name": name})

OAuth with PKCE. The verifier must be kept by the caller until the provider
redirects back with a code:

	pkce, err := authsdk.GeneratePKCEChallenge()
	redirect := idp.AuthorizeURL("github", siteURL+"/api/auth/callback", pkce)
	// ... later, in the callback
	sess, err := idp.ExchangeCodeForSession(ctx, code, pkce.Verifier)

Every call returns either a payload or an error. Responses the provider
rejects come back as *Error with the HTTP status and the provider's message.
Transport failures are returned wrapped and satisfy net.Error. Calls made
before BaseURL and APIKey are set fail with ErrNotConfigured.
*/
package authsdk
