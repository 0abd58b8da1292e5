package main

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/geotrack/geotrack/geolib"
)

var errUnauthorized = errors.New("unauthorized")

// basicAuth protects every route with HTTP basic auth. Credentials are
// compared in constant time.
func basicAuth(user, password string) func(http.Handler) http.Handler {
	userBytes := []byte(user)
	passwordBytes := []byte(password)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqUser, reqPassword, _ := req.BasicAuth()

			userMatch := subtle.ConstantTimeCompare(userBytes, []byte(reqUser))
			passwordMatch := subtle.ConstantTimeCompare(passwordBytes, []byte(reqPassword))

			if userMatch+passwordMatch == 2 {
				next.ServeHTTP(w, req)

				return
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="geotrack"`)
			geolib.WriteError(w, errUnauthorized, "Authentication is required", http.StatusUnauthorized)
		})
	}
}
