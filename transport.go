package authkit

import (
	"net/http"
)

// Transport wraps base so that every outgoing request carries the session's
// bearer token, with the same renew-and-replay-once behavior as [Client.Do].
// A nil base uses http.DefaultTransport.
//
// Requests whose body cannot be replayed (no GetBody) skip the replay and
// return the 401 response as-is.
func (c *Client) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{client: c, base: base}
}

type authTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	snap := t.client.Snapshot()

	token := ""
	if snap.Authenticated() {
		token = snap.Credential.AccessToken
	}

	out := req.Clone(req.Context())
	if token != "" && out.Header.Get("Authorization") == "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || token == "" {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	cred, rerr := t.client.requestRefresh(req.Context())
	if rerr != nil {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return resp, nil
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	_ = resp.Body.Close()

	t.client.metricInc(MetricGatewayAuthRetry)
	return t.base.RoundTrip(retry)
}
