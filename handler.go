package totpflow

import (
	"net"
	"net/http"
)

// Handler returns an http.Handler driving the full authentication flow:
// challenge POSTs, code POSTs, and magic-link GETs. Mount it on the login
// route and, when magic links are enabled, on the callback path as well.
//
// On success the session is committed with the configured max-age and the
// response redirects to the success target. On failure the message is stored
// under the session error key and the response redirects to the failure
// target; when no failure redirect is configured the failure surfaces as a
// 401 with the message in the body.
func (e *Engine) Handler(load SessionLoaderFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := load(r)
		if err != nil {
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		ctx := WithClientIP(r.Context(), remoteIP(r))
		result, err := e.Authenticate(ctx, r, sess)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		switch result.Outcome {
		case OutcomeSuccess:
			if err := sess.Commit(w, e.config.SessionMaxAge); err != nil {
				http.Error(w, "session commit failed", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, result.Target, http.StatusFound)
		case OutcomeFailure:
			if e.config.FailureRedirect == "" {
				http.Error(w, result.Message, http.StatusUnauthorized)
				return
			}
			sess.Set(e.config.SessionKeys.Error, result.Message)
			if err := sess.Commit(w, e.config.SessionMaxAge); err != nil {
				http.Error(w, "session commit failed", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, e.config.FailureRedirect, http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
