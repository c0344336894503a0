package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

const codeUnauthorized = -32600

// requireToken rejects requests whose Authorization header does not carry
// the Bearer secret. The rejection is a JSON-RPC error body with HTTP 401.
// An empty secret rejects everything.
func requireToken(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if validToken(secret, r.Header.Get("Authorization")) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(rpcErrorBody{
			Version: "2.0",
			Error:   rpcErrorObject{Code: codeUnauthorized, Message: "Unauthorized"},
		})
	})
}

type rpcErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorBody struct {
	Version string         `json:"jsonrpc"`
	Error   rpcErrorObject `json:"error"`
	ID      any            `json:"id"`
}

func validToken(secret, header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if secret == "" || !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
