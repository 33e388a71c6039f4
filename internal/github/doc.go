// Package github creates issues through the GitHub REST API.
//
// The client wraps go-github with an oauth2 static token source, so every
// request carries an `Authorization: Bearer <token>` header along with
// go-github's media type and API version headers. Timeout and redirect policy
// are set explicitly on the underlying http.Client rather than inherited from
// http.DefaultClient.
//
// [Client.CreateIssue] makes exactly one attempt. Only 201 Created counts as
// success; failures come back as [*APIError], [*UnexpectedStatusError], or
// [*TransportError].
package github
