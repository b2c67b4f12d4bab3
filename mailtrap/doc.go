// Package mailtrap wires AuthShield to Mailtrap for transactional email.
//
// The package resolves its configuration from the environment, builds one
// shared client bound to the Mailtrap endpoint and token, and exposes the
// sender identity used as the "from" field of outgoing mail. A missing token
// halts startup; a rejected token does not, it is only reported by the
// background credential check.
//
// # Basic Usage
//
//	client, err := mailtrap.Setup()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, err = client.Send(ctx, &mailtrap.Email{
//		From:     mailtrap.DefaultSender(),
//		To:       []mailtrap.Address{{Email: "user@example.com"}},
//		Subject:  "Verify your email",
//		HTMLBody: "<p>Your code is 123456</p>",
//		Category: "Email Verification",
//	})
//
// # Environment
//
//   - MAILTRAP_TOKEN (required)
//   - MAILTRAP_ENDPOINT (default https://send.api.mailtrap.io)
//   - MAILTRAP_SENDER_EMAIL (default mailtrap@demomailtrap.com)
//   - MAILTRAP_SENDER_NAME (default AuthShield)
//   - MAILTRAP_TRANSPORT (api or smtp, default api)
//   - MAILTRAP_CREDENTIAL_CHECK (default true)
//   - LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT
//
// Values are trimmed, and a single trailing slash is stripped from the endpoint.
package mailtrap
