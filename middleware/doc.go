// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers.

# Logging

WithLogging logs request start/completion with method, path, and duration:

	mux.HandleFunc("POST /presenter-login", middleware.WithLogging(handler.Login))

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
	middleware.ParseJSONBody(r, &req)

# CORS

CORS allows only the origins configured at startup (CLIENT_ORIGINS);
"*" in the list allows any origin. Preflight OPTIONS requests are
short-circuited.
*/
package middleware
