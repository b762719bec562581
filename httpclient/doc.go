// Package httpclient is the HTTP client used for every outbound vendor call:
// transcription providers, embeddings and chat completion.
//
// Failures come back as *Error with a classification (timeout, connection,
// auth, rate limit, validation, server, decode) that callers translate into
// their own error taxonomy.
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.deepgram.com",
//	    Auth:    httpclient.SchemeAuth("Token", key),
//	})
//	resp, err := client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/v1/listen", Body: wav})
package httpclient
